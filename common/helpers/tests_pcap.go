// SPDX-FileCopyrightText: 2022 Free Mobile
// SPDX-License-Identifier: AGPL-3.0-only

//go:build !release

package helpers

import (
	"bytes"
	"io"
	"testing"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
)

// WritePcap serializes the provided layers as Ethernet frames into a PCAP
// stream. Lengths and checksums are computed.
func WritePcap(t testing.TB, packets ...[]gopacket.SerializableLayer) []byte {
	t.Helper()
	var out bytes.Buffer
	w := pcapgo.NewWriter(&out)
	if err := w.WriteFileHeader(65535, layers.LinkTypeEthernet); err != nil {
		t.Fatalf("WriteFileHeader() error:\n%+v", err)
	}
	ts := time.Date(2022, time.December, 31, 10, 23, 0, 0, time.UTC)
	opts := gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}
	for i, packet := range packets {
		var network gopacket.NetworkLayer
		for _, l := range packet {
			if nl, ok := l.(gopacket.NetworkLayer); ok {
				network = nl
			}
		}
		for _, l := range packet {
			if cl, ok := l.(checksummer); ok && network != nil {
				cl.SetNetworkLayerForChecksum(network)
			}
		}
		buf := gopacket.NewSerializeBuffer()
		if err := gopacket.SerializeLayers(buf, opts, packet...); err != nil {
			t.Fatalf("SerializeLayers() error:\n%+v", err)
		}
		data := buf.Bytes()
		ci := gopacket.CaptureInfo{
			Timestamp:     ts.Add(time.Duration(i) * time.Second),
			CaptureLength: len(data),
			Length:        len(data),
		}
		if err := w.WritePacket(ci, data); err != nil {
			t.Fatalf("WritePacket() error:\n%+v", err)
		}
	}
	return out.Bytes()
}

type checksummer interface {
	SetNetworkLayerForChecksum(gopacket.NetworkLayer) error
}

// ReadPcap reads a PCAP stream and decodes each frame as an Ethernet frame.
func ReadPcap(t testing.TB, in io.Reader) []gopacket.Packet {
	t.Helper()
	reader, err := pcapgo.NewReader(in)
	if err != nil {
		t.Fatalf("NewReader() error:\n%+v", err)
	}
	packets := []gopacket.Packet{}
	for {
		data, _, err := reader.ReadPacketData()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("ReadPacketData() error:\n%+v", err)
		}
		packets = append(packets, gopacket.NewPacket(data, reader.LinkType(), gopacket.Default))
	}
	return packets
}
