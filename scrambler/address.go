// SPDX-FileCopyrightText: 2025 Free Mobile
// SPDX-License-Identifier: AGPL-3.0-only

package scrambler

import (
	"fmt"
	"net/netip"
)

// The 32 bits of an IPv4 address are put in the most significant bits of the
// block. This is what the reference implementation does and what the
// published test vectors expect.

// ScrambleIPv4 anonymizes an IPv4 address.
func (s *Scrambler) ScrambleIPv4(addr [4]byte) [4]byte {
	var input Block
	copy(input[:4], addr[:])
	output, _ := s.Scramble(input, 32)
	return [4]byte(output[:4])
}

// ScrambleIPv6 anonymizes an IPv6 address.
func (s *Scrambler) ScrambleIPv6(addr [16]byte) [16]byte {
	output, _ := s.Scramble(Block(addr), 128)
	return output
}

// ScrambleAddr anonymizes an IPv4 or an IPv6 address. The result has the same
// family. IPv4-mapped IPv6 addresses are handled as IPv6 addresses.
func (s *Scrambler) ScrambleAddr(addr netip.Addr) (netip.Addr, error) {
	switch {
	case addr.Is4():
		return netip.AddrFrom4(s.ScrambleIPv4(addr.As4())), nil
	case addr.Is6():
		return netip.AddrFrom16(s.ScrambleIPv6(addr.As16())).WithZone(addr.Zone()), nil
	}
	return addr, ErrInvalidAddress
}

// ScramblePrefix anonymizes a prefix. The returned prefix is the common prefix
// of all the anonymized addresses of the provided prefix.
func (s *Scrambler) ScramblePrefix(prefix netip.Prefix) (netip.Prefix, error) {
	if !prefix.IsValid() {
		return prefix, fmt.Errorf("%w: %s", ErrInvalidAddress, prefix)
	}
	prefix = prefix.Masked()
	addr := prefix.Addr()
	var input Block
	if addr.Is4() {
		a4 := addr.As4()
		copy(input[:4], a4[:])
	} else {
		input = addr.As16()
	}
	output, err := s.Scramble(input, prefix.Bits())
	if err != nil {
		return prefix, err
	}
	if addr.Is4() {
		return netip.PrefixFrom(netip.AddrFrom4([4]byte(output[:4])), prefix.Bits()), nil
	}
	return netip.PrefixFrom(netip.AddrFrom16(output), prefix.Bits()), nil
}
