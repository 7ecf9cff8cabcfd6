// SPDX-FileCopyrightText: 2025 Free Mobile
// SPDX-License-Identifier: AGPL-3.0-only

package scrambler

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidKeyLength is matched by any KeyError.
	ErrInvalidKeyLength = errors.New("invalid key length")
	// ErrEncryption is matched by any EncryptionError.
	ErrEncryption = errors.New("block cipher failure")
	// ErrBitCount is returned when the number of bits to scramble is outside
	// [0, 128].
	ErrBitCount = errors.New("bit count out of range")
	// ErrInvalidAddress is returned when scrambling the zero netip.Addr.
	ErrInvalidAddress = errors.New("invalid address")
)

// KeyError reports malformed key material.
type KeyError struct {
	Length   int
	Expected int
}

func (e KeyError) Error() string {
	return fmt.Sprintf("invalid key length: got %d bytes, expected %d", e.Length, e.Expected)
}

// Is makes KeyError match ErrInvalidKeyLength.
func (e KeyError) Is(target error) bool {
	return target == ErrInvalidKeyLength
}

// EncryptionError reports a block cipher which cannot be initialized or
// cannot process a block.
type EncryptionError struct {
	Backend string
	Err     error
}

func (e EncryptionError) Error() string {
	if e.Backend == "" {
		return fmt.Sprintf("block cipher: %s", e.Err)
	}
	return fmt.Sprintf("%s block cipher: %s", e.Backend, e.Err)
}

// Unwrap returns the underlying error.
func (e EncryptionError) Unwrap() error {
	return e.Err
}

// Is makes EncryptionError match ErrEncryption.
func (e EncryptionError) Is(target error) bool {
	return target == ErrEncryption
}
