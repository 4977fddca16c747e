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

// Package stats renders the end-of-run summary (component C16) and
// optionally exposes the same counters as Prometheus gauges.
package stats

import (
	"bytes"
	"fmt"

	"github.com/olekukonko/tablewriter"

	"github.com/ruidatools/rpa/protocol"
)

// Summary is the set of counters shown at normal end-of-stream.
type Summary struct {
	Packets      protocol.Stats
	CommandCount int
	ProtocolErrs int
	HandshakeCounts map[string]int
	LatencyMean     float64
	LatencyStddev   float64
	LatencySamples  int64
}

// Render formats the summary as a table, matching the teacher's use of
// tablewriter for fixed-width console reports. The caller writes the
// result through the Emitter so --quiet still suppresses it.
func (s Summary) Render() string {
	buf := &bytes.Buffer{}
	table := tablewriter.NewWriter(buf)
	table.SetHeader([]string{"metric", "value"})
	table.Append([]string{"host packets", fmt.Sprintf("%d", s.Packets.HostPackets)})
	table.Append([]string{"host bytes", fmt.Sprintf("%d", s.Packets.HostBytes)})
	table.Append([]string{"reply packets", fmt.Sprintf("%d", s.Packets.ReplyPackets)})
	table.Append([]string{"reply bytes", fmt.Sprintf("%d", s.Packets.ReplyBytes)})
	table.Append([]string{"checksum errors", fmt.Sprintf("%d", s.Packets.ChecksumErrs)})
	table.Append([]string{"commands decoded", fmt.Sprintf("%d", s.CommandCount)})
	table.Append([]string{"protocol errors", fmt.Sprintf("%d", s.ProtocolErrs)})
	for kind, n := range s.HandshakeCounts {
		table.Append([]string{"handshake " + kind, fmt.Sprintf("%d", n)})
	}
	if s.LatencySamples > 0 {
		table.Append([]string{"ack latency mean (s)", fmt.Sprintf("%.4f", s.LatencyMean)})
		table.Append([]string{"ack latency stddev (s)", fmt.Sprintf("%.4f", s.LatencyStddev)})
	}
	table.Render()
	return buf.String()
}
