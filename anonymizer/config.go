// SPDX-FileCopyrightText: 2025 Free Mobile
// SPDX-License-Identifier: AGPL-3.0-only

package anonymizer

import (
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"net/netip"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"cryptopan/common/helpers"
	"cryptopan/scrambler"
)

// Configuration describes the configuration for the anonymizer component.
type Configuration struct {
	// Mode tells how addresses are anonymized.
	Mode Mode
	// Key is the 32-byte key used in Crypto-PAn mode. It can be provided
	// as an hexadecimal string, a base64 string or a list of bytes.
	Key Key
	// Cipher is the block cipher used in Crypto-PAn mode.
	Cipher string `validate:"cipher"`
	// CacheDuration is the time an anonymized address is kept in cache
	// after its last use. 0 disables the cache.
	CacheDuration time.Duration `validate:"min=0"`
	// CacheSize is the maximum number of addresses in cache.
	CacheSize int `validate:"min=0"`
	// Aggregate is the configuration for the aggregate mode.
	Aggregate AggregateConfiguration
	// Passthrough lists the subnets whose addresses are not anonymized.
	Passthrough []netip.Prefix
}

// AggregateConfiguration tells how many bits are kept in aggregate mode.
type AggregateConfiguration struct {
	IPv4Prefix int `validate:"min=0,max=32"`
	IPv6Prefix int `validate:"min=0,max=128"`
}

// DefaultConfiguration represents the default configuration for the
// anonymizer component. There is no default key.
func DefaultConfiguration() Configuration {
	return Configuration{
		Mode:          ModeCryptoPAn,
		Cipher:        "aes",
		CacheDuration: 10 * time.Minute,
		CacheSize:     100_000,
		Aggregate: AggregateConfiguration{
			IPv4Prefix: 24,
			IPv6Prefix: 64,
		},
	}
}

// Mode is an anonymization mode.
type Mode int

const (
	// ModeCryptoPAn scrambles addresses while preserving prefixes.
	ModeCryptoPAn Mode = iota
	// ModeAggregate zeroes the least significant bits of addresses.
	ModeAggregate
)

var modeNames = map[Mode]string{
	ModeCryptoPAn: "cryptopan",
	ModeAggregate: "aggregate",
}

// String turns a mode into a string.
func (m Mode) String() string {
	if name, ok := modeNames[m]; ok {
		return name
	}
	return "unknown"
}

// MarshalText turns a mode into text.
func (m Mode) MarshalText() ([]byte, error) {
	if name, ok := modeNames[m]; ok {
		return []byte(name), nil
	}
	return nil, fmt.Errorf("unknown mode %d", m)
}

// UnmarshalText parses a mode.
func (m *Mode) UnmarshalText(text []byte) error {
	for mode, name := range modeNames {
		if strings.EqualFold(string(text), name) {
			*m = mode
			return nil
		}
	}
	return fmt.Errorf("unknown mode %q", text)
}

// Key is the secret key for Crypto-PAn. It is never displayed.
type Key []byte

var errKeyEncoding = errors.New("key should be encoded as hexadecimal or base64")

// UnmarshalText parses a key encoded as hexadecimal or base64.
func (k *Key) UnmarshalText(text []byte) error {
	input := strings.TrimSpace(string(text))
	if len(input) == 2*scrambler.KeySize {
		if key, err := hex.DecodeString(input); err == nil {
			*k = key
			return nil
		}
	}
	key, err := base64.StdEncoding.DecodeString(input)
	if err != nil {
		return errKeyEncoding
	}
	*k = key
	return nil
}

// MarshalYAML hides the key when dumping the configuration.
func (k Key) MarshalYAML() (any, error) {
	if len(k) == 0 {
		return "", nil
	}
	return "<redacted>", nil
}

// String hides the key.
func (k Key) String() string {
	return "<redacted>"
}

// ConfigurationValidation checks the key is present in Crypto-PAn mode.
func ConfigurationValidation(sl validator.StructLevel) {
	c := sl.Current().Interface().(Configuration)
	if c.Mode == ModeCryptoPAn && len(c.Key) != scrambler.KeySize {
		sl.ReportError(c.Key, "key", "Key", "keysize", fmt.Sprint(scrambler.KeySize))
	}
}

func init() {
	helpers.Validate.RegisterStructValidation(ConfigurationValidation, Configuration{})
	helpers.Validate.RegisterValidation("cipher", func(fl validator.FieldLevel) bool {
		_, ok := scrambler.LookupBackend(fl.Field().String())
		return ok
	})
}
