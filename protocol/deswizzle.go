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

import "fmt"

// Deswizzle reverses the per-byte obfuscation applied to host-direction
// payloads. It is the inverse of Swizzle for the same magic:
// Deswizzle(Swizzle(b, m), m) == b. Deswizzle(Deswizzle(b, m), m) is NOT
// generally b. See deswizzle_test.go for the round-trip law.
func Deswizzle(b byte, magic byte) byte {
	b = (b - 1) & 0xFF
	b ^= magic
	b ^= (b >> 7) & 0xFF
	b ^= (b << 7) & 0xFF
	b ^= (b >> 7) & 0xFF
	return b
}

// Swizzle is the forward transform the controller's host software applies.
// It exists only so tests can assert Deswizzle(Swizzle(b, m), m) == b; the
// analyzer never encodes outbound traffic (spec non-goal).
func Swizzle(b byte, magic byte) byte {
	b ^= (b >> 7) & 0xFF
	b ^= (b << 7) & 0xFF
	b ^= (b >> 7) & 0xFF
	b ^= magic
	b = (b + 1) & 0xFF
	return b
}

// MagicLUT maps a raw (unswizzled) single-byte reply to the magic byte it
// implies. Populated with the one documented controller family; additional
// families require an operator-supplied --magic until this grows (spec
// section 9, open question).
var MagicLUT = map[byte]byte{
	0xC6: 0x88,
}

// ErrMagicNotFound is returned when the discovery scan budget is exhausted
// without a recognized candidate.
var ErrMagicNotFound = fmt.Errorf("magic number not discovered within scan budget")

// DiscoverMagic scans replies from src looking for a single-byte reply
// whose raw value is a known MagicLUT entry. Non-reply packets are
// ignored. It fails after four non-matching reply candidates. The source
// is reset to the beginning afterward (a no-op for live sources).
func DiscoverMagic(src Source, reader *Reader) (byte, error) {
	tries := 4
	for {
		rec, err := src.NextRecord()
		if err != nil {
			return 0, fmt.Errorf("discovering magic: %w", err)
		}
		pkt, err := reader.Read(rec)
		if err != nil {
			return 0, err
		}
		if pkt.Direction != FromController || pkt.Len != 1 {
			continue
		}
		raw := pkt.Payload[0]
		if magic, ok := MagicLUT[raw]; ok {
			if err := src.Reset(); err != nil {
				return 0, err
			}
			return magic, nil
		}
		tries--
		if tries == 0 {
			return 0, ErrMagicNotFound
		}
	}
}
