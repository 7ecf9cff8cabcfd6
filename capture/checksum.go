// SPDX-FileCopyrightText: 2025 Free Mobile
// SPDX-License-Identifier: AGPL-3.0-only

package capture

import "encoding/binary"

// checksumDelta accumulates the changes of bytes covered by an Internet
// checksum (RFC 1071) to update it incrementally (RFC 1624).
type checksumDelta struct {
	sum uint32
}

// replace records that old is replaced by updated. rel is the offset of the
// first byte from the start of the checksummed data. Only its parity matters.
func (d *checksumDelta) replace(rel int, old, updated []byte) {
	for i := range old {
		o, n := uint32(old[i]), uint32(updated[i])
		if (rel+i)%2 == 0 {
			o <<= 8
			n <<= 8
		}
		d.sum += ^o&0xffff + n
		d.sum = d.sum&0xffff + d.sum>>16
	}
}

// add merges another delta.
func (d *checksumDelta) add(other checksumDelta) {
	d.sum += other.sum
	d.sum = d.sum&0xffff + d.sum>>16
}

// apply returns the updated checksum.
func (d checksumDelta) apply(checksum uint16) uint16 {
	sum := uint32(^checksum) + d.sum
	for sum > 0xffff {
		sum = sum&0xffff + sum>>16
	}
	return ^uint16(sum)
}

// trackedChecksum is a checksum field which has to be updated once all the
// bytes it covers have been anonymized.
type trackedChecksum struct {
	start, end int // covered bytes
	field      int // offset of the checksum
	delta      checksumDelta
	optional   bool // a zero checksum means no checksum
	nonZero    bool // a computed zero is sent as 0xffff
}

func (c *trackedChecksum) covers(offset int) bool {
	return offset >= c.start && offset < c.end
}

func (c *trackedChecksum) updated(current uint16) uint16 {
	if c.optional && current == 0 {
		return 0
	}
	result := c.delta.apply(current)
	if c.nonZero && result == 0 {
		return 0xffff
	}
	return result
}

// checksumKind tells how zero is handled by a transport checksum.
type checksumKind int

const (
	// checksumPlain is a checksum with no special zero value (TCP).
	checksumPlain checksumKind = iota
	// checksumNonZero is a checksum where zero is not allowed, a computed
	// zero is sent as 0xffff (UDP over IPv6, UDP-Lite).
	checksumNonZero
	// checksumOptional is like checksumNonZero, but a zero checksum means
	// no checksum (UDP over IPv4).
	checksumOptional
)

func putUint16(v uint16) []byte {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	return b[:]
}
