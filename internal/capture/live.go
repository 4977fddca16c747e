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

// Package capture adapts gopacket-based packet sources (a live interface
// or a .pcap/.pcapng file) into protocol.Source, the same Record shape
// produced by the tab-separated text log format of SPEC_FULL section 6
// (component C14). Downstream (C2 onward) never knows which kind of
// source it is reading from.
package capture

import (
	"fmt"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcap"

	"github.com/ruidatools/rpa/protocol"
)

// LiveSource opens a live pcap handle on iface, filtered to UDP traffic to
// or from ip, and yields Records in capture order.
type LiveSource struct {
	handle *pcap.Handle
	src    *gopacket.PacketSource
	start  time.Time
}

// NewLiveSource opens a promiscuous live capture on iface. snaplen follows
// the teacher's pshark default of a full-size UDP datagram.
func NewLiveSource(iface, ip string) (*LiveSource, error) {
	handle, err := pcap.OpenLive(iface, 65536, true, pcap.BlockForever)
	if err != nil {
		return nil, fmt.Errorf("opening live capture on %s: %w", iface, err)
	}
	filter := fmt.Sprintf("udp and host %s", ip)
	if err := handle.SetBPFFilter(filter); err != nil {
		handle.Close()
		return nil, fmt.Errorf("setting capture filter %q: %w", filter, err)
	}
	return &LiveSource{
		handle: handle,
		src:    gopacket.NewPacketSource(handle, handle.LinkType()),
		start:  time.Now(),
	}, nil
}

// NextRecord blocks until the next UDP packet arrives.
func (s *LiveSource) NextRecord() (*protocol.Record, error) {
	for packet := range s.src.Packets() {
		rec, ok := recordFromPacket(packet, s.start)
		if !ok {
			continue
		}
		return rec, nil
	}
	return nil, protocol.ErrEOF
}

// Reset is a no-op: a live interface cannot be replayed (spec section 4.2).
func (s *LiveSource) Reset() error { return nil }

// Close releases the pcap handle.
func (s *LiveSource) Close() error {
	s.handle.Close()
	return nil
}

func recordFromPacket(packet gopacket.Packet, start time.Time) (*protocol.Record, bool) {
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
		DeltaTime:   time.Since(start).Seconds(),
		ToPort:      int(udp.DstPort),
		FromPort:    int(udp.SrcPort),
		UDPLength:   len(payload) + 8,
		PayloadByte: payload,
	}, true
}
