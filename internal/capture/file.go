/*
Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package capture

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"

	"github.com/ruidatools/rpa/protocol"
)

// packetHandle abstracts the pcapng/pcap reader variants, matching the
// teacher's pshark fallback pattern.
type packetHandle interface {
	gopacket.PacketDataSource
	LinkType() layers.LinkType
}

// FileSource replays a .pcap/.pcapng capture file (--pcap=<file>) as a
// protocol.Source, for raw packet-sniffer output rather than the
// tab-separated tshark-field log format.
type FileSource struct {
	f       *os.File
	handle  packetHandle
	src     *gopacket.PacketSource
	start   time.Time
	started bool
}

// NewFileSource opens path, trying the newer pcapng reader first and
// falling back to the classic pcap reader, per the teacher's pshark main.
func NewFileSource(path string) (*FileSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	handle, err := pcapgo.NewNgReader(f, pcapgo.DefaultNgReaderOptions)
	if err != nil {
		if _, serr := f.Seek(0, io.SeekStart); serr != nil {
			f.Close()
			return nil, fmt.Errorf("seeking in %s: %w", path, serr)
		}
		classic, cerr := pcapgo.NewReader(f)
		if cerr != nil {
			f.Close()
			return nil, fmt.Errorf("decoding %s: %w", path, cerr)
		}
		handle = classic
	}
	return &FileSource{
		f:      f,
		handle: handle,
		src:    gopacket.NewPacketSource(handle, handle.LinkType()),
	}, nil
}

// NextRecord returns the next UDP packet in the capture, skipping any
// non-UDP frames.
func (s *FileSource) NextRecord() (*protocol.Record, error) {
	for {
		packet, err := s.src.NextPacket()
		if err != nil {
			if err == io.EOF {
				return nil, protocol.ErrEOF
			}
			return nil, fmt.Errorf("reading capture: %w", err)
		}
		if !s.started {
			s.start = packet.Metadata().Timestamp
			s.started = true
		}
		rec, ok := recordFromCaptured(packet, s.start)
		if !ok {
			continue
		}
		return rec, nil
	}
}

func recordFromCaptured(packet gopacket.Packet, start time.Time) (*protocol.Record, bool) {
	udpLayer := packet.Layer(layers.LayerTypeUDP)
	if udpLayer == nil {
		return nil, false
	}
	udp, ok := udpLayer.(*layers.UDP)
	if !ok {
		return nil, false
	}
	payload := udp.Payload
	return &protocol.Record{
		DeltaTime:   packet.Metadata().Timestamp.Sub(start).Seconds(),
		ToPort:      int(udp.DstPort),
		FromPort:    int(udp.SrcPort),
		UDPLength:   len(payload) + 8,
		PayloadByte: payload,
	}, true
}

// Reset rewinds the capture file and rebuilds the packet reader of the same
// kind (pcapng or classic pcap), so the capture replays from its first
// packet, as magic discovery expects of a file source.
func (s *FileSource) Reset() error {
	if _, err := s.f.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("rewinding capture: %w", err)
	}
	var err error
	if _, ng := s.handle.(*pcapgo.NgReader); ng {
		s.handle, err = pcapgo.NewNgReader(s.f, pcapgo.DefaultNgReaderOptions)
	} else {
		s.handle, err = pcapgo.NewReader(s.f)
	}
	if err != nil {
		return fmt.Errorf("rewinding capture: %w", err)
	}
	s.src = gopacket.NewPacketSource(s.handle, s.handle.LinkType())
	s.started = false
	return nil
}

// Close releases the underlying file handle.
func (s *FileSource) Close() error {
	return s.f.Close()
}
