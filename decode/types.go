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

// Package decode implements the Ruida opcode/parameter layer: the nested
// command dispatch table (component C6), the per-parameter sub-decoder
// (C7) and the controller memory-reply dispatcher (C8).
package decode

// Primitive is a wire-level Ruida data type.
type Primitive string

// Primitive types, per spec section 3.
const (
	PrimBool7  Primitive = "bool7"
	PrimInt7   Primitive = "int7"
	PrimUint7  Primitive = "uint7"
	PrimInt14  Primitive = "int14"
	PrimUint14 Primitive = "uint14"
	PrimInt35  Primitive = "int35"
	PrimUint35 Primitive = "uint35"
	PrimCstr   Primitive = "cstring"
	PrimTBD    Primitive = "tbd"
	PrimMT     Primitive = "mt" // a 14-bit controller memory address
)

// DecoderKind names which value transform is applied after the raw
// primitive has been accumulated.
type DecoderKind string

// Decoder kinds, per spec section 3. The first block mirror primitives
// directly; the rest are derived/scaled decoders.
const (
	DecBool7       DecoderKind = "bool7"
	DecInt7        DecoderKind = "int7"
	DecUint7       DecoderKind = "uint7"
	DecInt14       DecoderKind = "int14"
	DecUint14      DecoderKind = "uint14"
	DecInt35       DecoderKind = "int35"
	DecUint35      DecoderKind = "uint35"
	DecCstring     DecoderKind = "cstring"
	DecTBD         DecoderKind = "tbd"
	DecMT          DecoderKind = "mt"
	DecPower       DecoderKind = "power"
	DecSpeed       DecoderKind = "speed"
	DecFrequency   DecoderKind = "frequency"
	DecTime        DecoderKind = "time"
	DecRapidOption DecoderKind = "rapid_option"
	DecOnOff       DecoderKind = "on_off"
)

// ParamSpec is (format_template, decoder_kind, primitive_type) from spec
// section 3.
type ParamSpec struct {
	Format    string
	Decoder   DecoderKind
	Primitive Primitive
}

// Marker is an action marker redirecting parser control flow: REPLY
// switches direction expectation to the controller's reply. The parser
// accepts only MarkerReply in a parameter list and reports MarkerMemory
// there as a protocol-table error; memory addresses are expressed with the
// "mt" primitive instead (see Memory).
type Marker int

// Action markers.
const (
	MarkerReply Marker = iota
	MarkerMemory
)

// ParamKind distinguishes a plain parameter spec from an action marker in
// a command's parameter list.
type ParamKind int

// Parameter list element kinds.
const (
	ParamKindSpec ParamKind = iota
	ParamKindAction
)

// Param is one element of a command's ordered parameter list.
type Param struct {
	Kind   ParamKind
	Spec   ParamSpec
	Action Marker
}

// IsMemoryAddress reports whether p is a plain parameter whose primitive
// type is "mt": such a parameter carries a controller memory address and
// triggers the C8 dispatcher.
func (p Param) IsMemoryAddress() bool {
	return p.Kind == ParamKindSpec && p.Spec.Primitive == PrimMT
}

// NodeKind distinguishes the three possible values of an opcode table
// entry, per spec section 3's tagged-sum-type design note.
type NodeKind int

// Node kinds.
const (
	NodeLabel NodeKind = iota
	NodeSubTable
	NodeParamSpec
)

// Node is one entry of the opcode dictionary: a terminal label, a nested
// sub-table keyed by the next byte, or a parameter-bearing command.
type Node struct {
	Kind   NodeKind
	Label  string
	Sub    Table
	Params []Param // first element implicitly is Label; Params excludes it
}

// Table is an opcode dictionary keyed by command/sub-command byte.
type Table map[byte]Node

// Label constructs a terminal, parameter-less node.
func Label(s string) Node { return Node{Kind: NodeLabel, Label: s} }

// SubTable constructs a nested-dictionary node.
func SubTable(t Table) Node { return Node{Kind: NodeSubTable, Sub: t} }

// Command constructs a parameter-bearing node with the given label and
// ordered parameter list.
func Command(label string, params ...Param) Node {
	return Node{Kind: NodeParamSpec, Label: label, Params: params}
}

// P wraps a ParamSpec as an ordinary (non-action) parameter list element.
func P(format string, decoder DecoderKind, prim Primitive) Param {
	return Param{Kind: ParamKindSpec, Spec: ParamSpec{Format: format, Decoder: decoder, Primitive: prim}}
}

// Reply is the REPLY action marker.
func Reply() Param { return Param{Kind: ParamKindAction, Action: MarkerReply} }

// Memory is a memory-address parameter (primitive "mt"); decoding it
// triggers the C8 memory-reply dispatcher once a value has been read.
func Memory(format string) Param {
	return Param{Kind: ParamKindSpec, Spec: ParamSpec{Format: format, Decoder: DecMT, Primitive: PrimMT}}
}

// MTEntry is a Memory Table mapping target: a human label and the reply
// decoder spec used once the controller's reply data arrives.
type MTEntry struct {
	Label string
	Reply ParamSpec
}

// UnknownAddress is the generic fallback for any memory address not
// present in the Memory Table: it consumes the rest of the reply packet
// as raw hex (spec section 4.6, "a spec referencing an unknown memory
// address").
var UnknownAddress = MTEntry{
	Label: "Unknown Setting",
	Reply: ParamSpec{Format: "%v", Decoder: DecTBD, Primitive: PrimTBD},
}
