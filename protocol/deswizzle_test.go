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
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDeswizzleIsInvolutiveWithSwizzle(t *testing.T) {
	for m := 0; m < 256; m += 7 {
		for b := 0; b < 256; b++ {
			swizzled := Swizzle(byte(b), byte(m))
			got := Deswizzle(swizzled, byte(m))
			require.Equal(t, byte(b), got, "magic=%d byte=%d", m, b)
		}
	}
}

func TestDiscoverMagicSucceedsOnKnownEntry(t *testing.T) {
	recs := []*Record{
		{ToPort: 40200, FromPort: 40200, UDPLength: 9, PayloadByte: []byte{0xC6}},
	}
	src := &fakeSource{recs: recs}
	magic, err := DiscoverMagic(src, NewReader())
	require.NoError(t, err)
	require.Equal(t, byte(0x88), magic)
	require.True(t, src.resetCalled)
}

func TestDiscoverMagicFailsAfterFourNonMatches(t *testing.T) {
	recs := []*Record{
		{ToPort: 40200, FromPort: 40200, UDPLength: 9, PayloadByte: []byte{0x01}},
		{ToPort: 40200, FromPort: 40200, UDPLength: 9, PayloadByte: []byte{0x02}},
		{ToPort: 40200, FromPort: 40200, UDPLength: 9, PayloadByte: []byte{0x03}},
		{ToPort: 40200, FromPort: 40200, UDPLength: 9, PayloadByte: []byte{0x04}},
		{ToPort: 40200, FromPort: 40200, UDPLength: 9, PayloadByte: []byte{0x05}},
	}
	src := &fakeSource{recs: recs}
	_, err := DiscoverMagic(src, NewReader())
	require.ErrorIs(t, err, ErrMagicNotFound)
}

type fakeSource struct {
	recs        []*Record
	idx         int
	resetCalled bool
}

func (f *fakeSource) NextRecord() (*Record, error) {
	if f.idx >= len(f.recs) {
		return nil, ErrEOF
	}
	r := f.recs[f.idx]
	f.idx++
	return r, nil
}

func (f *fakeSource) Reset() error {
	f.resetCalled = true
	f.idx = 0
	return nil
}

func (f *fakeSource) Close() error { return nil }
