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
	"time"

	"github.com/stretchr/testify/require"
)

func TestTrackerAcksExpectedTracksHandshake(t *testing.T) {
	tr := NewTracker()

	host := &Packet{Direction: ToController, Len: 4}
	st := tr.Observe(host, time.Time{})
	require.False(t, st.IsReply)
	require.Equal(t, 1, tr.AcksExpected())

	ack := &Packet{Direction: FromController, Len: 1, IsHandshake: true, Payload: []byte{ACK}}
	st = tr.Observe(ack, time.Time{})
	require.True(t, st.IsHandshake)
	require.Equal(t, KindACK, st.Kind)
	require.Equal(t, 0, tr.AcksExpected())
}

func TestTrackerNAKLeavesAcksExpectedUnchanged(t *testing.T) {
	tr := NewTracker()
	tr.Observe(&Packet{Direction: ToController, Len: 4}, time.Time{})
	st := tr.Observe(&Packet{Direction: FromController, Len: 1, IsHandshake: true, Payload: []byte{NAK}}, time.Time{})
	require.Equal(t, KindNAK, st.Kind)
	require.Equal(t, 1, tr.AcksExpected())
}

func TestTrackerUnexpectedReplyByte(t *testing.T) {
	tr := NewTracker()
	st := tr.Observe(&Packet{Direction: FromController, Len: 1, IsHandshake: true, Payload: []byte{0x01}}, time.Time{})
	require.Equal(t, KindUnexpected, st.Kind)
}

func TestTrackerReplyDataDoesNotChangeAcksExpected(t *testing.T) {
	tr := NewTracker()
	tr.Observe(&Packet{Direction: ToController, Len: 4}, time.Time{})
	st := tr.Observe(&Packet{Direction: FromController, Len: 8, IsHandshake: false, Payload: make([]byte, 8)}, time.Time{})
	require.Equal(t, KindReplyData, st.Kind)
	require.Equal(t, 1, tr.AcksExpected())
}

func TestTrackerWarningUsesStaticThresholdBeforeEnoughSamples(t *testing.T) {
	tr := NewTracker()
	for i := 0; i < DefaultAckWarnThreshold+1; i++ {
		tr.Observe(&Packet{Direction: ToController, Len: 4}, time.Time{})
	}
	st := tr.Observe(&Packet{Direction: ToController, Len: 4}, time.Time{})
	require.NotEmpty(t, st.Warning)
}
