// SPDX-FileCopyrightText: 2025 Free Mobile
// SPDX-License-Identifier: AGPL-3.0-only

//go:build !release

package anonymizer

import (
	"testing"

	"cryptopan/common/daemon"
	"cryptopan/common/helpers"
	"cryptopan/common/reporter"
)

// ReferenceKey is the key of the published Crypto-PAn test vectors.
var ReferenceKey = Key{
	21, 34, 23, 141, 51, 164, 207, 128, 19, 10, 91, 22, 73, 144, 125, 16,
	216, 152, 143, 131, 121, 121, 101, 39, 98, 87, 76, 45, 42, 132, 34, 2,
}

// NewMock creates a started anonymizer component using the reference key.
func NewMock(t testing.TB, r *reporter.Reporter) *Component {
	t.Helper()
	config := DefaultConfiguration()
	config.Key = ReferenceKey
	c, err := New(r, config, Dependencies{Daemon: daemon.NewMock(t)})
	if err != nil {
		t.Fatalf("New() error:\n%+v", err)
	}
	helpers.StartStop(t, c)
	return c
}
