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

package protocol

// Stats accumulates the running packet/byte counters exposed in the
// end-of-run summary (SPEC_FULL C16).
type Stats struct {
	HostPackets  int
	HostBytes    int
	ReplyPackets int
	ReplyBytes   int
	ChecksumErrs int
}

// ByteStream presents a packet-at-a-time Source as a flat, deswizzled byte
// stream (component C3/C4). Callers drive it with NextByte; NewPacket and
// the direction/handshake flags are refreshed on each packet boundary.
type ByteStream struct {
	src    Source
	reader *Reader
	magic  byte
	hasMagic bool

	cur  *Packet
	take int

	pendingNewPacket bool
	NewPacket        bool
	Stats            Stats
}

// NewByteStream constructs a stream over src. If neither SetMagic nor
// AutoDiscoverMagic has been called, the first NextByte call runs magic
// discovery itself.
func NewByteStream(src Source, reader *Reader) *ByteStream {
	return &ByteStream{src: src, reader: reader}
}

// SetMagic pins the deswizzle magic, bypassing discovery.
func (s *ByteStream) SetMagic(magic byte) {
	s.magic = magic
	s.hasMagic = true
}

// AutoDiscoverMagic scans the source for the magic byte per component C4
// and pins it, resetting the source to the start on success.
func (s *ByteStream) AutoDiscoverMagic() error {
	magic, err := DiscoverMagic(s.src, s.reader)
	if err != nil {
		return err
	}
	s.magic = magic
	s.hasMagic = true
	return nil
}

// Remaining returns the number of unread bytes in the current packet.
func (s *ByteStream) Remaining() int {
	if s.cur == nil {
		return 0
	}
	return s.cur.Len - s.take
}

// CurrentPacket returns the packet currently being read, or nil before the
// first byte has been consumed.
func (s *ByteStream) CurrentPacket() *Packet {
	return s.cur
}

func (s *ByteStream) loadNextPacket() (bool, error) {
	rec, err := s.src.NextRecord()
	if err != nil {
		if err == ErrEOF {
			return false, nil
		}
		return false, err
	}
	pkt, err := s.reader.Read(rec)
	if err != nil {
		return false, err
	}
	if pkt.Direction == ToController && !pkt.ChecksumOK {
		s.Stats.ChecksumErrs++
	}
	if pkt.Direction == ToController {
		s.Stats.HostPackets++
		s.Stats.HostBytes += pkt.Len
	} else {
		s.Stats.ReplyPackets++
		s.Stats.ReplyBytes += pkt.Len
	}
	s.cur = pkt
	s.take = 0
	return true, nil
}

// NextByte returns the next deswizzled data byte, or ok=false at end of
// stream. NewPacket is true for the first byte returned after a packet
// boundary, and is cleared as soon as it has been observed once.
func (s *ByteStream) NextByte() (b byte, ok bool, err error) {
	if !s.hasMagic {
		if err := s.AutoDiscoverMagic(); err != nil {
			return 0, false, err
		}
	}
	for {
		if s.cur != nil && s.take < s.cur.Len {
			raw := s.cur.Payload[s.take]
			s.take++
			if s.cur.Swizzled {
				raw = Deswizzle(raw, s.magic)
			}
			s.NewPacket = s.pendingNewPacket
			s.pendingNewPacket = false
			return raw, true, nil
		}
		loaded, err := s.loadNextPacket()
		if err != nil {
			return 0, false, err
		}
		if !loaded {
			return 0, false, nil
		}
		s.pendingNewPacket = true
	}
}
