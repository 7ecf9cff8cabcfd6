// SPDX-FileCopyrightText: 2025 Free Mobile
// SPDX-License-Identifier: AGPL-3.0-only

// Package capture anonymizes packet captures. The addresses of the IP headers,
// of ARP messages, of headers quoted by ICMP errors and of neighbor discovery
// messages are anonymized in place and the checksums are updated. The size of
// the packets is not modified.
package capture

import (
	"bufio"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net/netip"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"

	"cryptopan/common/reporter"
)

const (
	// pcapngMagic is the type of the section header block starting a pcapng
	// stream. It reads the same in both byte orders.
	pcapngMagic = 0x0a0d0d0a
	// pcapngSnaplen is the snapshot length used when converting a pcapng
	// stream.
	pcapngSnaplen = 262144
)

// Anonymizer anonymizes addresses and prefixes.
type Anonymizer interface {
	AnonymizeAddr(netip.Addr) netip.Addr
	AnonymizePrefix(netip.Prefix) netip.Prefix
}

// Rewriter anonymizes packet captures.
type Rewriter struct {
	r          *reporter.Reporter
	anonymizer Anonymizer
	errLogger  reporter.Logger
	metrics    metrics
}

// Stats are the statistics of one rewrite.
type Stats struct {
	Packets   int // read packets
	Dropped   int // packets not written
	Addresses int // anonymized addresses
}

// New creates a new rewriter using the provided anonymizer.
func New(r *reporter.Reporter, anonymizer Anonymizer) *Rewriter {
	w := Rewriter{
		r:          r,
		anonymizer: anonymizer,
		errLogger:  r.Sample(reporter.BurstSampler(time.Minute, 10)),
	}
	w.initMetrics()
	return &w
}

// packetSource is implemented by pcapgo.Reader and pcapgo.NgReader.
type packetSource interface {
	ReadPacketData() ([]byte, gopacket.CaptureInfo, error)
	LinkType() layers.LinkType
}

// Rewrite reads a pcap or a pcapng stream and writes a pcap stream with the
// anonymized packets. Packets whose addresses cannot all be located are
// dropped.
func (w *Rewriter) Rewrite(ctx context.Context, in io.Reader, out io.Writer) (Stats, error) {
	var stats Stats
	buffered := bufio.NewReader(in)
	magic, err := buffered.Peek(4)
	if err != nil {
		return stats, fmt.Errorf("cannot read pcap header: %w", err)
	}
	var (
		source  packetSource
		ng      *pcapgo.NgReader
		snaplen uint32
		nanos   bool
	)
	if binary.BigEndian.Uint32(magic) == pcapngMagic {
		ng, err = pcapgo.NewNgReader(buffered, pcapgo.DefaultNgReaderOptions)
		if err != nil {
			return stats, fmt.Errorf("cannot read pcapng header: %w", err)
		}
		source, snaplen, nanos = ng, pcapngSnaplen, true
	} else {
		reader, err := pcapgo.NewReader(buffered)
		if err != nil {
			return stats, fmt.Errorf("cannot read pcap header: %w", err)
		}
		source, snaplen, nanos = reader, reader.Snaplen(), reader.Resolution() == gopacket.TimestampResolutionNanosecond
	}
	linkType := source.LinkType()

	output := bufio.NewWriter(out)
	writer := pcapgo.NewWriter(output)
	if nanos {
		writer = pcapgo.NewWriterNanos(output)
	}
	if err := writer.WriteFileHeader(snaplen, linkType); err != nil {
		return stats, fmt.Errorf("cannot write pcap header: %w", err)
	}
	w.r.Debug().
		Str("link", linkType.String()).
		Uint32("snaplen", snaplen).
		Msg("rewrite capture")

	for {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		data, ci, err := source.ReadPacketData()
		if errors.Is(err, io.EOF) {
			break
		}
		if errors.Is(err, io.ErrUnexpectedEOF) {
			w.r.Warn().Int("packets", stats.Packets).Msg("capture is truncated")
			break
		}
		if err != nil {
			return stats, fmt.Errorf("cannot read packet %d: %w", stats.Packets+1, err)
		}
		stats.Packets++
		w.metrics.packets.Inc()

		if ng != nil {
			if iface, err := ng.Interface(ci.InterfaceIndex); err != nil || iface.LinkType != linkType {
				w.drop(&stats, fmt.Errorf("%w on interface %d", ErrLinkType, ci.InterfaceIndex))
				continue
			}
		}
		count, err := rewritePacket(w.anonymizer, data, linkType)
		if err != nil {
			w.drop(&stats, err)
			continue
		}
		stats.Addresses += count
		w.metrics.addresses.Add(float64(count))
		if err := writer.WritePacket(ci, data); err != nil {
			return stats, fmt.Errorf("cannot write packet %d: %w", stats.Packets, err)
		}
	}
	if err := output.Flush(); err != nil {
		return stats, fmt.Errorf("cannot write capture: %w", err)
	}
	w.r.Info().
		Int("packets", stats.Packets).
		Int("dropped", stats.Dropped).
		Int("addresses", stats.Addresses).
		Msg("capture anonymized")
	return stats, nil
}

func (w *Rewriter) drop(stats *Stats, err error) {
	stats.Dropped++
	w.metrics.dropped.Inc()
	w.errLogger.Warn().Err(err).Int("packet", stats.Packets).Msg("drop packet")
}
