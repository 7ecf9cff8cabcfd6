// SPDX-FileCopyrightText: 2022 Free Mobile
// SPDX-License-Identifier: AGPL-3.0-only

package helpers

import (
	"encoding/binary"
	"net"
	"net/netip"

	"github.com/kentik/patricia"
	tree "github.com/kentik/patricia/generics_tree"
)

// SubnetSet is a set of subnets allowing to check if an address or a prefix
// is part of one of them. IPv4 subnets and IPv6 subnets are kept in separate
// trees, so an IPv4 subnet and its v6-mapped counterpart do not collide.
type SubnetSet struct {
	v4      *tree.TreeV4[netip.Prefix]
	v6      *tree.TreeV6[netip.Prefix]
	subnets []netip.Prefix
}

// NewSubnetSet creates a subnet set from a list of subnets. Host bits are
// ignored and invalid subnets are skipped.
func NewSubnetSet(subnets []netip.Prefix) *SubnetSet {
	s := SubnetSet{
		v4: tree.NewTreeV4[netip.Prefix](),
		v6: tree.NewTreeV6[netip.Prefix](),
	}
	for _, subnet := range subnets {
		if !subnet.IsValid() {
			continue
		}
		subnet = subnet.Masked()
		if subnet.Addr().Is4() {
			s.v4.Set(ipv4Address(subnet), subnet)
		} else {
			s.v6.Set(ipv6Address(subnet), subnet)
		}
		s.subnets = append(s.subnets, subnet)
	}
	return &s
}

func ipv4Address(prefix netip.Prefix) patricia.IPv4Address {
	ip := prefix.Addr().As4()
	return patricia.NewIPv4Address(binary.BigEndian.Uint32(ip[:]), uint(prefix.Bits()))
}

func ipv6Address(prefix netip.Prefix) patricia.IPv6Address {
	ip := prefix.Addr().As16()
	return patricia.NewIPv6Address(net.IP(ip[:]), uint(prefix.Bits()))
}

// Contains tells if the provided address is part of one of the subnets. An
// IPv4 address never matches an IPv6 subnet and conversely.
func (s *SubnetSet) Contains(addr netip.Addr) bool {
	if !addr.IsValid() {
		return false
	}
	return s.ContainsPrefix(netip.PrefixFrom(addr, addr.BitLen()))
}

// ContainsPrefix tells if the provided prefix is fully part of one of the
// subnets.
func (s *SubnetSet) ContainsPrefix(prefix netip.Prefix) bool {
	if s == nil || len(s.subnets) == 0 || !prefix.IsValid() {
		return false
	}
	prefix = prefix.Masked()
	var (
		ok     bool
		subnet netip.Prefix
	)
	if prefix.Addr().Is4() {
		ok, subnet = s.v4.FindDeepestTag(ipv4Address(prefix))
	} else {
		ok, subnet = s.v6.FindDeepestTag(ipv6Address(prefix))
	}
	return ok && subnet.Bits() <= prefix.Bits()
}

// Len returns the number of subnets in the set.
func (s *SubnetSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.subnets)
}
