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

import (
	"encoding/binary"
	"fmt"
)

// Packet is one UDP payload classified by direction, with its checksum
// verified (host direction only) and the checksum bytes stripped. The
// payload is still swizzled for host-direction packets; ByteStream
// deswizzles each byte as it is read and leaves Payload unchanged.
type Packet struct {
	Direction   Direction
	Swizzled    bool // true iff this packet was sent to a controller listen port
	Payload     []byte
	Len         int
	ChecksumOK  bool
	IsHandshake bool // true iff a reply packet of length 1
}

// Reader converts Records into Packets: direction classification, length
// validation and checksum verification (component C2).
type Reader struct{}

// NewReader constructs a packet reader.
func NewReader() *Reader { return &Reader{} }

// Read classifies rec and validates its declared length against the actual
// payload. Checksum bytes (host direction only) are verified and stripped
// from Packet.Payload.
func (r *Reader) Read(rec *Record) (*Packet, error) {
	if len(rec.PayloadByte) != rec.PayloadLen() {
		return nil, fmt.Errorf("declared payload length %d does not match actual payload length %d", rec.PayloadLen(), len(rec.PayloadByte))
	}
	p := &Packet{
		Swizzled: ControllerListenPorts[rec.ToPort],
	}
	isReply := ControllerSourcePorts[rec.FromPort]
	if isReply {
		p.Direction = FromController
		p.Payload = rec.PayloadByte
		p.ChecksumOK = true // replies carry no checksum; treated as valid.
	} else {
		p.Direction = ToController
		if len(rec.PayloadByte) < 2 {
			// Checksum semantics of a too-short host payload are undefined
			// by the source (spec section 9); treat as a vacuous pass.
			p.Payload = rec.PayloadByte
			p.ChecksumOK = true
		} else {
			declared := binary.BigEndian.Uint16(rec.PayloadByte[0:2])
			rest := rec.PayloadByte[2:]
			sum := uint16(sumBytes(rest) & 0xFFFF)
			p.ChecksumOK = declared == sum
			p.Payload = rest
		}
	}
	p.Len = len(p.Payload)
	p.IsHandshake = isReply && p.Len == 1
	return p, nil
}

func sumBytes(b []byte) int {
	s := 0
	for _, v := range b {
		s += int(v)
	}
	return s
}
