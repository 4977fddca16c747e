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

// Package visualize provides the optional move/command observer
// (component C10). Its absence must never affect decode correctness; the
// parser holds it behind the decode.Visualizer interface and is nil-safe
// when one isn't configured.
package visualize

// Move is one observed command or memory reply, in visualization order.
type Move struct {
	CommandID    int
	Label        string
	Opcode       byte
	SubOpcode    byte
	HasSubOpcode bool
	IsMemory     bool
	AddrMSB      byte
	AddrLSB      byte
	Values       []string
}

// Recorder is the default Visualizer implementation: it only accumulates
// observed moves for later inspection (e.g. by --plot-moves), performing
// no rendering itself — an actual plotter is an external collaborator per
// SPEC_FULL's out-of-scope note on "a full interactive movement plotter".
type Recorder struct {
	Moves []Move
}

// NewRecorder constructs an empty move recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// OnCommand records a completed command line, including both lines of a
// memory read (the host request and the controller's reply).
func (r *Recorder) OnCommand(cmdID int, label string, opcode, subOpcode byte, hasSubOpcode bool, values []string) {
	r.Moves = append(r.Moves, Move{
		CommandID: cmdID, Label: label, Opcode: opcode,
		SubOpcode: subOpcode, HasSubOpcode: hasSubOpcode, Values: values,
	})
}

// OnMemory records a completed memory-table read round-trip.
func (r *Recorder) OnMemory(cmdID int, addrMSB, addrLSB byte, values []string) {
	r.Moves = append(r.Moves, Move{
		CommandID: cmdID, IsMemory: true, AddrMSB: addrMSB, AddrLSB: addrLSB, Values: values,
	})
}
