// SPDX-FileCopyrightText: 2025 Free Mobile
// SPDX-License-Identifier: AGPL-3.0-only

// Package scrambler implements Crypto-PAn, a prefix-preserving anonymization
// of IP addresses. Two addresses sharing a n-bit prefix are mapped to two
// addresses sharing a n-bit prefix. Without the key, the mapping cannot be
// distinguished from a random permutation.
//
// For each bit position i, a block made of the first i bits of the address
// followed by the last 128-i bits of a secret padding is encrypted. The most
// significant bit of the result decides if bit i is flipped. See "Prefix-
// Preserving IP Address Anonymization" (Xu, Fan, Ammar, Moon, 2002).
package scrambler

import (
	"encoding/binary"
	"fmt"
	"sync"
)

const (
	// KeySize is the size of the key used to build a Scrambler. The first
	// half is the cipher key, the second half is the padding seed.
	KeySize = 2 * CipherKeySize
	// MaxBits is the maximum number of bits which can be scrambled.
	MaxBits = 8 * BlockSize
)

// Scrambler anonymizes addresses. It is immutable once built and can be used
// from several goroutines.
type Scrambler struct {
	encrypter Encrypter
	padding   [2]uint64
}

// New creates a new scrambler using AES-128 from a 32-byte key.
func New(key []byte) (*Scrambler, error) {
	return NewWithBackend(key, AES)
}

// NewWithBackend creates a new scrambler from a 32-byte key and the provided
// block cipher backend.
func NewWithBackend(key []byte, backend Backend) (*Scrambler, error) {
	if len(key) != KeySize {
		return nil, KeyError{Length: len(key), Expected: KeySize}
	}
	encrypter, err := backend(key[:CipherKeySize])
	if err != nil {
		return nil, err
	}
	var seed Block
	copy(seed[:], key[CipherKeySize:])
	return NewWithEncrypter(encrypter, seed), nil
}

// NewWithEncrypter creates a new scrambler from an existing encrypter. The
// padding is the encrypted seed.
func NewWithEncrypter(encrypter Encrypter, seed Block) *Scrambler {
	var padding Block
	encrypter.Encrypt(&padding, &seed)
	return &Scrambler{
		encrypter: encrypter,
		padding: [2]uint64{
			binary.BigEndian.Uint64(padding[:8]),
			binary.BigEndian.Uint64(padding[8:]),
		},
	}
}

// scratchPool holds the blocks handed to the encrypter. They would escape to
// the heap on each call if they were allocated on the stack.
var scratchPool = sync.Pool{
	New: func() any { return new([2]Block) },
}

// highMask returns a 128-bit mask (as two halves) whose i most significant bits
// are set.
func highMask(i int) (uint64, uint64) {
	if i <= 64 {
		return ^uint64(0) << (64 - i), 0
	}
	return ^uint64(0), ^uint64(0) << (128 - i)
}

// Scramble anonymizes the nBits most significant bits of the provided block.
// The remaining bits are returned unmodified. nBits should be between 0 and
// 128. This needs nBits encryptions.
func (s *Scrambler) Scramble(input Block, nBits int) (Block, error) {
	if nBits < 0 || nBits > MaxBits {
		return input, fmt.Errorf("%w: %d", ErrBitCount, nBits)
	}
	scratch := scratchPool.Get().(*[2]Block)
	defer scratchPool.Put(scratch)
	padded, encrypted := &scratch[0], &scratch[1]
	hi := binary.BigEndian.Uint64(input[:8])
	lo := binary.BigEndian.Uint64(input[8:])
	var flipHi, flipLo uint64
	for i := range nBits {
		maskHi, maskLo := highMask(i)
		binary.BigEndian.PutUint64(padded[:8], hi&maskHi|s.padding[0]&^maskHi)
		binary.BigEndian.PutUint64(padded[8:], lo&maskLo|s.padding[1]&^maskLo)
		s.encrypter.Encrypt(encrypted, padded)
		bit := uint64(encrypted[0] >> 7)
		if i < 64 {
			flipHi |= bit << (63 - i)
		} else {
			flipLo |= bit << (127 - i)
		}
	}
	var output Block
	binary.BigEndian.PutUint64(output[:8], hi^flipHi)
	binary.BigEndian.PutUint64(output[8:], lo^flipLo)
	return output, nil
}
