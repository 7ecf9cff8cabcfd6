// SPDX-FileCopyrightText: 2025 Free Mobile
// SPDX-License-Identifier: AGPL-3.0-only

package capture

import (
	"encoding/binary"
	"testing"

	"cryptopan/common/helpers"
)

// onesComplementSum computes the Internet checksum sum over the
// concatenation of the provided chunks. Valid data sums to 0xffff.
func onesComplementSum(chunks ...[]byte) uint16 {
	var data []byte
	for _, chunk := range chunks {
		data = append(data, chunk...)
	}
	var sum uint32
	for i := 0; i < len(data); i += 2 {
		if i+1 < len(data) {
			sum += uint32(binary.BigEndian.Uint16(data[i:]))
		} else {
			sum += uint32(data[i]) << 8
		}
	}
	for sum > 0xffff {
		sum = sum&0xffff + sum>>16
	}
	return uint16(sum)
}

func TestChecksumDelta(t *testing.T) {
	cases := []struct {
		description string
		offset      int
		updated     []byte
	}{
		{"aligned", 4, []byte{192, 0, 2, 1}},
		{"unaligned", 5, []byte{10, 20, 30}},
		{"single byte", 9, []byte{0xff}},
		{"unchanged", 2, []byte{0x33, 0x44}},
	}
	for _, tc := range cases {
		t.Run(tc.description, func(t *testing.T) {
			data := []byte{
				0x11, 0x22, 0x33, 0x44, 0x55, 0x66, 0x77, 0x88,
				0x99, 0xaa, 0xbb, 0xcc, 0x00, 0x00, 0xde, 0xad,
			}
			// Checksum is at offset 12.
			binary.BigEndian.PutUint16(data[12:], ^onesComplementSum(data))
			if got := onesComplementSum(data); got != 0xffff {
				t.Fatalf("onesComplementSum() == %#x before update", got)
			}

			var delta checksumDelta
			delta.replace(tc.offset, data[tc.offset:tc.offset+len(tc.updated)], tc.updated)
			copy(data[tc.offset:], tc.updated)
			current := binary.BigEndian.Uint16(data[12:])
			binary.BigEndian.PutUint16(data[12:], delta.apply(current))

			if got := onesComplementSum(data); got != 0xffff {
				t.Errorf("onesComplementSum() == %#x after update, expected 0xffff", got)
			}
		})
	}
}

func TestZeroChecksum(t *testing.T) {
	// Replacing 0x0000 by 0x0001 under a checksum of 0x0001 gives 0xffff
	// in ones' complement, whose complement is zero.
	cases := []struct {
		Pos      helpers.Pos
		Kind     string
		Checksum trackedChecksum
		Current  uint16
		Expected uint16
	}{
		{helpers.Mark(), "plain", trackedChecksum{}, 0x0001, 0},
		{helpers.Mark(), "non-zero", trackedChecksum{nonZero: true}, 0x0001, 0xffff},
		{helpers.Mark(), "optional", trackedChecksum{optional: true, nonZero: true}, 0x0001, 0xffff},
		{helpers.Mark(), "optional", trackedChecksum{optional: true, nonZero: true}, 0, 0},
		{helpers.Mark(), "non-zero", trackedChecksum{nonZero: true}, 0x1234, 0x1233},
	}
	for _, tc := range cases {
		c := tc.Checksum
		c.delta.replace(0, []byte{0, 0}, []byte{0, 1})
		if got := c.updated(tc.Current); got != tc.Expected {
			t.Errorf("%s%s: updated(%#x) == %#x, expected %#x",
				tc.Pos, tc.Kind, tc.Current, got, tc.Expected)
		}
	}
}
