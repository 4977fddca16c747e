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
	"fmt"
	"time"

	"github.com/eclesh/welford"
)

// HandshakeKind classifies a reply packet's role in the host/controller
// handshake discipline (component C5).
type HandshakeKind int

// Handshake classifications.
const (
	KindNone HandshakeKind = iota // host-direction packet
	KindACK
	KindNAK
	KindENQ
	KindERR
	KindReplyData
	KindUnexpected
)

func (k HandshakeKind) String() string {
	switch k {
	case KindACK:
		return "ACK"
	case KindNAK:
		return "NAK"
	case KindENQ:
		return "ENQ"
	case KindERR:
		return "ERR"
	case KindReplyData:
		return "reply data"
	case KindUnexpected:
		return "unexpected"
	default:
		return "none"
	}
}

// Status is what the tracker reports back per packet, for the C9 per-packet
// status line and the classification flag C6 consumes.
type Status struct {
	IsReply       bool
	IsHandshake   bool
	Kind          HandshakeKind
	AcksExpected  int
	Warning       string // non-empty when acks_expected looks anomalous
}

// DefaultAckWarnThreshold is the static fallback threshold used until
// enough latency samples have accumulated to compute a data-driven one
// (SPEC_FULL C15).
const DefaultAckWarnThreshold = 3

// MinLatencySamples is the number of ACK round-trips required before the
// Welford-derived threshold (mean + 3*stddev) replaces the static default.
const MinLatencySamples = 8

// Tracker maintains the acks_expected counter and ACK latency statistics
// across an unreliable, unsequenced transport.
type Tracker struct {
	acksExpected int
	pendingSince time.Time
	havePending  bool
	latency      *welford.Stats
}

// NewTracker constructs a handshake tracker.
func NewTracker() *Tracker {
	return &Tracker{latency: welford.New()}
}

// AcksExpected returns the current outstanding-acknowledgement count.
func (t *Tracker) AcksExpected() int { return t.acksExpected }

// Observe classifies one packet and updates tracker state. now is the time
// the packet was observed, used to derive ACK latency; pass time.Time{} if
// timing is unavailable (latency stats are then skipped).
func (t *Tracker) Observe(pkt *Packet, now time.Time) Status {
	st := Status{IsReply: pkt.Direction == FromController}
	if !st.IsReply {
		t.acksExpected++
		if !t.havePending {
			t.pendingSince = now
			t.havePending = true
		}
		st.AcksExpected = t.acksExpected
		st.Warning = t.warningFor()
		return st
	}

	if !pkt.IsHandshake {
		st.Kind = KindReplyData
		st.AcksExpected = t.acksExpected
		return st
	}

	st.IsHandshake = true
	b := pkt.Payload[0]
	switch b {
	case ACK:
		st.Kind = KindACK
		if t.acksExpected > 0 {
			t.acksExpected--
		}
		if t.havePending && !now.IsZero() && !t.pendingSince.IsZero() {
			t.latency.Add(now.Sub(t.pendingSince).Seconds())
		}
		t.havePending = false
	case NAK:
		st.Kind = KindNAK
		// acks_expected unchanged: the host will resend.
	case ENQ:
		st.Kind = KindENQ
	case ERR:
		st.Kind = KindERR
	default:
		st.Kind = KindUnexpected
	}
	st.AcksExpected = t.acksExpected
	st.Warning = t.warningFor()
	return st
}

func (t *Tracker) warningFor() string {
	threshold := float64(DefaultAckWarnThreshold)
	if t.latency.Count() >= MinLatencySamples {
		threshold = t.latency.Mean() + 3*t.latency.Stddev()
	}
	if float64(t.acksExpected) > threshold {
		return fmt.Sprintf("acks_expected=%d exceeds threshold %.2f", t.acksExpected, threshold)
	}
	return ""
}

// LatencyMean and LatencyStddev expose the running ACK round-trip
// statistics for the end-of-run summary (C16).
func (t *Tracker) LatencyMean() float64   { return t.latency.Mean() }
func (t *Tracker) LatencyStddev() float64 { return t.latency.Stddev() }
func (t *Tracker) LatencySamples() int64  { return int64(t.latency.Count()) }
