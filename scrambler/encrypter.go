// SPDX-FileCopyrightText: 2025 Free Mobile
// SPDX-License-Identifier: AGPL-3.0-only

package scrambler

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"
	"slices"

	"golang.org/x/crypto/twofish"
)

const (
	// BlockSize is the size of a block handled by an Encrypter.
	BlockSize = 16
	// CipherKeySize is the size of the key given to a Backend.
	CipherKeySize = 16
)

// Block is a 128-bit block. Bit 0 is the most significant bit of the first
// byte.
type Block [BlockSize]byte

// Encrypter encrypts one 128-bit block under a fixed key. Implementations must
// be deterministic and safe for concurrent use: when the underlying cipher
// needs mutable state, it has to be protected or allocated per call. The
// output of the scrambler is only as good as the pseudorandomness of the
// encrypter.
type Encrypter interface {
	Encrypt(dst, src *Block)
}

// Backend builds an Encrypter from a 128-bit key.
type Backend func(key []byte) (Encrypter, error)

// blockEncrypter adapts a cipher.Block. Block ciphers from the standard
// library and from x/crypto do not mutate their state when encrypting.
type blockEncrypter struct {
	block cipher.Block
}

func (e blockEncrypter) Encrypt(dst, src *Block) {
	e.block.Encrypt(dst[:], src[:])
}

// FromBlock turns a block cipher into an Encrypter. The block size has to be
// 128 bits.
func FromBlock(block cipher.Block) (Encrypter, error) {
	if block.BlockSize() != BlockSize {
		return nil, EncryptionError{
			Err: fmt.Errorf("block size is %d bytes, expected %d", block.BlockSize(), BlockSize),
		}
	}
	return blockEncrypter{block}, nil
}

func newBlockBackend(name string, newCipher func([]byte) (cipher.Block, error)) Backend {
	return func(key []byte) (Encrypter, error) {
		if len(key) != CipherKeySize {
			return nil, KeyError{Length: len(key), Expected: CipherKeySize}
		}
		block, err := newCipher(key)
		if err != nil {
			return nil, EncryptionError{Backend: name, Err: err}
		}
		enc, err := FromBlock(block)
		if err != nil {
			return nil, EncryptionError{Backend: name, Err: err}
		}
		return enc, nil
	}
}

var (
	// AES is the AES-128 backend. This is the one used by the reference
	// Crypto-PAn implementation.
	AES = newBlockBackend("aes", aes.NewCipher)
	// Twofish is the Twofish-128 backend. Its output is not compatible with
	// other Crypto-PAn implementations.
	Twofish = newBlockBackend("twofish", func(key []byte) (cipher.Block, error) {
		return twofish.NewCipher(key)
	})
)

var backends = map[string]Backend{
	"aes":     AES,
	"twofish": Twofish,
}

// LookupBackend returns the backend registered with the provided name.
func LookupBackend(name string) (Backend, bool) {
	backend, ok := backends[name]
	return backend, ok
}

// Backends returns the sorted list of backend names.
func Backends() []string {
	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
