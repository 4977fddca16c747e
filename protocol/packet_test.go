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

func TestReaderClassifiesDirectionByPort(t *testing.T) {
	r := NewReader()

	rec := &Record{ToPort: 40200, FromPort: 12345, UDPLength: 12, PayloadByte: []byte{0x00, 0x03, 0x01, 0x02}}
	pkt, err := r.Read(rec)
	require.NoError(t, err)
	require.Equal(t, ToController, pkt.Direction)
	require.True(t, pkt.Swizzled)
	require.True(t, pkt.ChecksumOK)
	require.Equal(t, []byte{0x01, 0x02}, pkt.Payload)

	rec2 := &Record{ToPort: 12345, FromPort: 40200, UDPLength: 9, PayloadByte: []byte{0xCC}}
	pkt2, err := r.Read(rec2)
	require.NoError(t, err)
	require.Equal(t, FromController, pkt2.Direction)
	require.True(t, pkt2.IsHandshake)
	require.True(t, pkt2.ChecksumOK)
}

func TestReaderRejectsChecksumMismatch(t *testing.T) {
	r := NewReader()
	rec := &Record{ToPort: 40200, FromPort: 12345, UDPLength: 12, PayloadByte: []byte{0xFF, 0xFF, 0x01, 0x02}}
	pkt, err := r.Read(rec)
	require.NoError(t, err)
	require.False(t, pkt.ChecksumOK)
}

func TestReaderRejectsLengthMismatch(t *testing.T) {
	r := NewReader()
	rec := &Record{ToPort: 40200, FromPort: 12345, UDPLength: 20, PayloadByte: []byte{0x01}}
	_, err := r.Read(rec)
	require.Error(t, err)
}

func TestReaderZeroLengthHostPayloadIsVacuousPass(t *testing.T) {
	r := NewReader()
	rec := &Record{ToPort: 40200, FromPort: 12345, UDPLength: 8, PayloadByte: []byte{}}
	pkt, err := r.Read(rec)
	require.NoError(t, err)
	require.True(t, pkt.ChecksumOK)
}
