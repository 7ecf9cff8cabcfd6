// SPDX-FileCopyrightText: 2025 Free Mobile
// SPDX-License-Identifier: AGPL-3.0-only

package capture

import (
	"encoding/binary"
	"errors"
	"fmt"
	"net/netip"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

var (
	// ErrDecode is returned when a packet cannot be decoded far enough to
	// find all its addresses.
	ErrDecode = errors.New("cannot decode packet")
	// ErrLinkType is returned for packets captured on an interface whose
	// link type is not the one of the output.
	ErrLinkType = errors.New("unexpected link type")
)

// packetRewriter anonymizes the addresses of one packet in place. Layers
// decoded by gopacket without copy are slices of data, so their offsets
// can be derived from their capacity.
type packetRewriter struct {
	anonymizer Anonymizer
	data       []byte
	checksums  []trackedChecksum
	addresses  int
}

// rewritePacket anonymizes all the addresses found in the provided packet and
// updates the checksums covering them. It returns the number of anonymized
// addresses.
func rewritePacket(anonymizer Anonymizer, data []byte, decoder gopacket.Decoder) (int, error) {
	p := packetRewriter{anonymizer: anonymizer, data: data}
	packet := gopacket.NewPacket(data, decoder, gopacket.NoCopy)
	var pseudo checksumDelta
	var inPayload, ipv4 bool
	for _, layer := range packet.Layers() {
		switch layer.(type) {
		case gopacket.LinkLayer, gopacket.NetworkLayer:
			inPayload = false
		}
		switch l := layer.(type) {
		case *gopacket.DecodeFailure:
			if !inPayload {
				return 0, fmt.Errorf("%w: %s", ErrDecode, l.Error())
			}
		case *layers.IPv4:
			start, err := p.offset(l.Contents)
			if err != nil {
				return 0, err
			}
			ipv4 = true
			p.track(trackedChecksum{start: start, end: start + len(l.Contents), field: start + 10})
			pseudo = p.anonymizeAddresses(start+12, 4)
			if l.FragOffset == 0 && l.Flags&layers.IPv4MoreFragments != 0 {
				p.firstFragment(start+len(l.Contents), l.Protocol, pseudo)
			}
		case *layers.IPv6:
			start, err := p.offset(l.Contents)
			if err != nil {
				return 0, err
			}
			ipv4 = false
			pseudo = p.anonymizeAddresses(start+8, 16)
		case *layers.ARP:
			if l.Protocol != layers.EthernetTypeIPv4 || l.ProtAddressSize != 4 {
				continue
			}
			start, err := p.offset(l.Contents)
			if err != nil {
				return 0, err
			}
			hw := int(l.HwAddressSize)
			p.anonymizeAddress(start+8+hw, 4)
			p.anonymizeAddress(start+8+2*hw+4, 4)
		case *layers.TCP:
			inPayload = true
			if err := p.transport(l.Contents, 16, pseudo, checksumPlain); err != nil {
				return 0, err
			}
		case *layers.UDP:
			inPayload = true
			kind := checksumNonZero
			if ipv4 {
				kind = checksumOptional
			}
			if err := p.transport(l.Contents, 6, pseudo, kind); err != nil {
				return 0, err
			}
		case *layers.UDPLite:
			inPayload = true
			if err := p.transport(l.Contents, 6, pseudo, checksumNonZero); err != nil {
				return 0, err
			}
		case *layers.SCTP:
			inPayload = true
		case *layers.ICMPv4:
			inPayload = true
			start, err := p.offset(l.Contents)
			if err != nil {
				return 0, err
			}
			p.icmpv4(start, l.TypeCode.Type())
		case *layers.ICMPv6:
			inPayload = true
			start, err := p.offset(l.Contents)
			if err != nil {
				return 0, err
			}
			p.icmpv6(start, l.TypeCode.Type(), pseudo)
		}
	}
	p.updateChecksums()
	return p.addresses, nil
}

// offset returns the offset of a layer in the packet.
func (p *packetRewriter) offset(b []byte) (int, error) {
	offset := cap(p.data) - cap(b)
	if offset < 0 || offset > len(p.data) {
		return 0, fmt.Errorf("%w: layer outside of packet", ErrDecode)
	}
	return offset, nil
}

// track registers a checksum to update.
func (p *packetRewriter) track(c trackedChecksum) {
	if c.end > len(p.data) {
		c.end = len(p.data)
	}
	if c.field+2 > len(p.data) {
		return
	}
	p.checksums = append(p.checksums, c)
}

// transport registers the checksum of a transport header. It also covers
// the pseudo-header made of the addresses of the network layer.
func (p *packetRewriter) transport(contents []byte, field int, pseudo checksumDelta, kind checksumKind) error {
	start, err := p.offset(contents)
	if err != nil {
		return err
	}
	p.track(trackedChecksum{
		start:    start,
		end:      len(p.data),
		field:    start + field,
		delta:    pseudo,
		optional: kind == checksumOptional,
		nonZero:  kind != checksumPlain,
	})
	return nil
}

// firstFragment registers the transport checksum of the first fragment of a
// fragmented IPv4 packet, as gopacket does not decode it.
func (p *packetRewriter) firstFragment(start int, protocol layers.IPProtocol, pseudo checksumDelta) {
	switch protocol {
	case layers.IPProtocolTCP:
		p.track(trackedChecksum{start: start, end: len(p.data), field: start + 16, delta: pseudo})
	case layers.IPProtocolUDP:
		p.track(trackedChecksum{start: start, end: len(p.data), field: start + 6, delta: pseudo, optional: true, nonZero: true})
	}
}

// replace writes updated at the provided offset and records the change for
// all the checksums covering it.
func (p *packetRewriter) replace(offset int, updated []byte) {
	old := p.data[offset : offset+len(updated)]
	for i := range p.checksums {
		c := &p.checksums[i]
		if c.covers(offset) {
			c.delta.replace(offset-c.start, old, updated)
		}
	}
	copy(old, updated)
}

// anonymizeAddress anonymizes the address of the given size at the provided
// offset. It returns the change as a checksum delta.
func (p *packetRewriter) anonymizeAddress(offset, size int) checksumDelta {
	var delta checksumDelta
	if offset < 0 || offset+size > len(p.data) {
		return delta
	}
	original, ok := netip.AddrFromSlice(p.data[offset : offset+size])
	if !ok {
		return delta
	}
	anonymized := p.anonymizer.AnonymizeAddr(original)
	var updated []byte
	if size == 4 {
		b := anonymized.As4()
		updated = b[:]
	} else {
		b := anonymized.As16()
		updated = b[:]
	}
	delta.replace(0, p.data[offset:offset+size], updated)
	p.replace(offset, updated)
	p.addresses++
	return delta
}

// anonymizeAddresses anonymizes two consecutive addresses, usually a source
// and a destination.
func (p *packetRewriter) anonymizeAddresses(offset, size int) checksumDelta {
	delta := p.anonymizeAddress(offset, size)
	delta.add(p.anonymizeAddress(offset+size, size))
	return delta
}

// anonymizePrefix anonymizes a 128-bit prefix whose length is provided.
func (p *packetRewriter) anonymizePrefix(offset, bits int) {
	if offset+16 > len(p.data) || bits > 128 {
		return
	}
	prefix := netip.PrefixFrom(netip.AddrFrom16([16]byte(p.data[offset:offset+16])), bits)
	anonymized := p.anonymizer.AnonymizePrefix(prefix).Addr().As16()
	p.replace(offset, anonymized[:])
	p.addresses++
}

// innerIPv4 anonymizes an IPv4 header quoted in an ICMP error.
func (p *packetRewriter) innerIPv4(start int) {
	if start+20 > len(p.data) || p.data[start]>>4 != 4 {
		return
	}
	ihl := int(p.data[start]&0x0f) * 4
	p.track(trackedChecksum{start: start, end: start + ihl, field: start + 10})
	p.anonymizeAddresses(start+12, 4)
}

// innerIPv6 anonymizes an IPv6 header quoted in an ICMPv6 error.
func (p *packetRewriter) innerIPv6(start int) {
	if start+40 > len(p.data) || p.data[start]>>4 != 6 {
		return
	}
	p.anonymizeAddresses(start+8, 16)
}

func (p *packetRewriter) icmpv4(start int, kind uint8) {
	p.track(trackedChecksum{start: start, end: len(p.data), field: start + 2})
	switch kind {
	case layers.ICMPv4TypeRedirect:
		p.anonymizeAddress(start+4, 4)
		p.innerIPv4(start + 8)
	case layers.ICMPv4TypeDestinationUnreachable,
		layers.ICMPv4TypeTimeExceeded,
		layers.ICMPv4TypeParameterProblem:
		p.innerIPv4(start + 8)
	}
}

func (p *packetRewriter) icmpv6(start int, kind uint8, pseudo checksumDelta) {
	p.track(trackedChecksum{start: start, end: len(p.data), field: start + 2, delta: pseudo})
	switch kind {
	case layers.ICMPv6TypeDestinationUnreachable,
		layers.ICMPv6TypePacketTooBig,
		layers.ICMPv6TypeTimeExceeded,
		layers.ICMPv6TypeParameterProblem:
		p.innerIPv6(start + 8)
	case layers.ICMPv6TypeRouterSolicitation:
		p.ndpOptions(start + 8)
	case layers.ICMPv6TypeRouterAdvertisement:
		p.ndpOptions(start + 16)
	case layers.ICMPv6TypeNeighborSolicitation, layers.ICMPv6TypeNeighborAdvertisement:
		p.anonymizeAddress(start+8, 16)
		p.ndpOptions(start + 24)
	case layers.ICMPv6TypeRedirect:
		p.anonymizeAddresses(start+8, 16)
		p.ndpOptions(start + 40)
	}
}

// ndpOptions anonymizes the prefix information and the redirected header
// options of a neighbor discovery message.
func (p *packetRewriter) ndpOptions(offset int) {
	for offset+2 <= len(p.data) {
		kind := layers.ICMPv6Opt(p.data[offset])
		length := int(p.data[offset+1]) * 8
		if length == 0 || offset+length > len(p.data) {
			return
		}
		switch kind {
		case layers.ICMPv6OptPrefixInfo:
			if length == 32 {
				p.anonymizePrefix(offset+16, int(p.data[offset+2]))
			}
		case layers.ICMPv6OptRedirectedHeader:
			p.innerIPv6(offset + 8)
		}
		offset += length
	}
}

// updateChecksums updates the tracked checksums, innermost first, as a
// checksum field may be covered by an outer checksum.
func (p *packetRewriter) updateChecksums() {
	for len(p.checksums) > 0 {
		c := p.checksums[len(p.checksums)-1]
		p.checksums = p.checksums[:len(p.checksums)-1]
		current := binary.BigEndian.Uint16(p.data[c.field:])
		if updated := c.updated(current); updated != current {
			p.replace(c.field, putUint16(updated))
		}
	}
}
