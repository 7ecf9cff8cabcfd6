// SPDX-FileCopyrightText: 2022 Free Mobile
// SPDX-License-Identifier: AGPL-3.0-only

package helpers

import (
	"errors"
	"net/netip"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mitchellh/mapstructure"
)

func TestMapStructureMatchName(t *testing.T) {
	cases := []struct {
		pos       Pos
		mapKey    string
		fieldName string
		expected  bool
	}{
		{Mark(), "one", "one", true},
		{Mark(), "one", "One", true},
		{Mark(), "one-two", "OneTwo", true},
		{Mark(), "onetwo", "OneTwo", true},
		{Mark(), "One-Two", "OneTwo", true},
		{Mark(), "two", "one", false},
	}
	for _, tc := range cases {
		got := MapStructureMatchName(tc.mapKey, tc.fieldName)
		if got && !tc.expected {
			t.Errorf("%s%q == %q but expected !=", tc.pos, tc.mapKey, tc.fieldName)
		} else if !got && tc.expected {
			t.Errorf("%s%q != %q but expected ==", tc.pos, tc.mapKey, tc.fieldName)
		}
	}
}

func TestStringToSliceHookFunc(t *testing.T) {
	type Configuration struct {
		A []string
		B []int
	}
	TestConfigurationDecode(t, ConfigurationDecodeCases{
		{
			Initial: func() any { return Configuration{} },
			Configuration: func() any {
				return gin.H{
					"a": "blip,blop",
					"b": "1,2,3,4",
				}
			},
			Expected: Configuration{
				A: []string{"blip", "blop"},
				B: []int{1, 2, 3, 4},
			},
		},
	})
}

func TestProtectedDecodeHook(t *testing.T) {
	var configuration struct {
		A string
		B string
	}
	panicHook := func(from, _ reflect.Type, data any) (any, error) {
		if from.Kind() == reflect.String {
			panic(errors.New("noooo"))
		}
		return data, nil
	}
	decoder, err := mapstructure.NewDecoder(GetMapStructureDecoderConfig(&configuration, panicHook))
	if err != nil {
		t.Fatalf("NewDecoder() error:\n%+v", err)
	}
	err = decoder.Decode(gin.H{"A": "hello", "B": "bye"})
	if err == nil {
		t.Fatal("Decode() did not error")
	}
	if !strings.Contains(err.Error(), "internal error while parsing: noooo") {
		t.Errorf("Decode() error:\n%+v", err)
	}
}

func TestDecodeHooks(t *testing.T) {
	type Configuration struct {
		Timeout time.Duration
		Address netip.Addr
		Enabled bool
	}
	TestConfigurationDecode(t, ConfigurationDecodeCases{
		{
			Description: "duration, text unmarshaller and weak typing",
			Pos:         Mark(),
			Initial:     func() any { return Configuration{} },
			Configuration: func() any {
				return gin.H{
					"timeout": "10s",
					"address": "192.0.2.1",
					"enabled": "true",
				}
			},
			Expected: Configuration{
				Timeout: 10 * time.Second,
				Address: netip.MustParseAddr("192.0.2.1"),
				Enabled: true,
			},
		}, {
			Description: "unknown key",
			Pos:         Mark(),
			Initial:     func() any { return Configuration{} },
			Configuration: func() any {
				return gin.H{"unknown": "hello"}
			},
			Error: true,
		},
	})
}
