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

package decode

import "fmt"

// Emitter is the sink contract for decode output (component C9). It is
// implemented externally (package emit); the parser only depends on this
// interface.
type Emitter interface {
	Write(cmdID int, line string)
	Verbose(format string, args ...any)
	Reader(format string, args ...any)
	Parser(format string, args ...any)
	Error(format string, args ...any)
	Warn(format string, args ...any)
	Critical(format string, args ...any)
	Info(format string, args ...any)
}

// Visualizer is the optional move/command observer (component C10). A
// nil Visualizer is valid; the parser must not call through it then.
type Visualizer interface {
	OnCommand(cmdID int, label string, opcode, subOpcode byte, hasSubOpcode bool, values []string)
	OnMemory(cmdID int, addrMSB, addrLSB byte, values []string)
}

// State is one of the parser's explicit states (spec section 4.6).
type State int

// Parser states.
const (
	StateSync State = iota
	StateExpectCommand
	StateExpectSubCommand
	StateDecodeParameters
	StateExpectReply
	StateMTCommand
	StateMTSubCommand
	StateMTAddressMSB
	StateMTAddressLSB
	StateMTDecodeReply
)

// ProtocolError is a category-4 error (spec section 7): an opcode byte
// where data was expected, an unknown opcode, or an exhausted parameter
// list. The parser always recovers from these by re-entering sync; Strict
// mode additionally surfaces them to the caller.
type ProtocolError struct {
	Msg string
}

func (e *ProtocolError) Error() string { return e.Msg }

// Parser is the nested opcode/parameter state machine (components C6, C7,
// C8). It is driven one byte at a time via Step.
type Parser struct {
	Root   Table
	Memory map[byte]map[byte]MTEntry
	Out    Emitter
	Vis    Visualizer
	Strict bool

	state State
	ct    Table // active table for command/sub-command dispatch

	command      byte
	haveCommand  bool
	subCommand   byte
	haveSub      bool
	paramList    []Param
	whichParam   int
	decoded      string
	label        string
	values       []string
	decoder      ParamDecoder

	mtMSB, mtLSB byte
	mtEntry      MTEntry

	cmdID int

	lastCommand    byte
	lastSubCommand byte
	lastHasSub     bool
}

// NewParser constructs a parser over the given root opcode table and
// memory table, reporting to out (and, optionally, vis).
func NewParser(root Table, memory map[byte]map[byte]MTEntry, out Emitter, vis Visualizer) *Parser {
	p := &Parser{Root: root, Memory: memory, Out: out, Vis: vis}
	p.enterSync()
	return p
}

// CommandID returns the most recently assigned command sequence number (0
// before the first command completes).
func (p *Parser) CommandID() int { return p.cmdID }

// LastCommand returns the opcode (and, if present, sub-opcode) of the
// command line most recently completed, for callers that need to label
// or filter on it (e.g. component C18).
func (p *Parser) LastCommand() (opcode, subOpcode byte, hasSub bool) {
	return p.lastCommand, p.lastSubCommand, p.lastHasSub
}

func (p *Parser) resetForCommand() {
	p.haveCommand = false
	p.haveSub = false
	p.paramList = nil
	p.whichParam = 0
	p.decoded = ""
	p.label = ""
	p.values = nil
	p.ct = p.Root
}

func (p *Parser) enterSync() {
	p.state = StateSync
	p.resetForCommand()
}

func (p *Parser) enterExpectCommand() {
	p.state = StateExpectCommand
	p.resetForCommand()
}

func (p *Parser) finishLine() string {
	line := p.decoded
	p.cmdID++
	p.lastCommand, p.lastSubCommand, p.lastHasSub = p.command, p.subCommand, p.haveSub
	if p.Vis != nil {
		p.Vis.OnCommand(p.cmdID, p.label, p.command, p.subCommand, p.haveSub, p.values)
	}
	p.enterExpectCommand()
	return line
}

// Step feeds one byte to the parser. isReply indicates the byte came from
// a controller reply packet; remaining is the number of bytes left in
// that packet (used for `tbd` decodes that consume a whole reply). It
// returns the completed decode line once a command/reply has been fully
// parsed, or "" while still accumulating.
func (p *Parser) Step(b byte, isReply bool, remaining int) (string, error) {
	switch p.state {
	case StateSync:
		return p.stepSync(b, isReply)
	case StateExpectCommand:
		return p.stepExpectCommand(b, isReply)
	case StateExpectSubCommand:
		return p.stepExpectSubCommand(b, isReply)
	case StateDecodeParameters:
		return p.stepDecodeParameters(b, isReply)
	case StateExpectReply:
		return p.stepExpectReply(b, isReply, remaining)
	case StateMTCommand:
		return p.stepMTCommand(b, isReply)
	case StateMTSubCommand:
		return p.stepMTSubCommand(b, isReply)
	case StateMTAddressMSB:
		return p.stepMTAddressMSB(b, isReply)
	case StateMTAddressLSB:
		return p.stepMTAddressLSB(b, isReply)
	case StateMTDecodeReply:
		return p.stepMTDecodeReply(b, isReply, remaining)
	default:
		return "", &protocolTableError{fmt.Sprintf("unknown parser state %d", p.state)}
	}
}

// protocolTableError is the category-5 "internal protocol-table error":
// always fatal, regardless of strict mode (spec section 7).
type protocolTableError struct{ msg string }

func (e *protocolTableError) Error() string { return "protocol table error: " + e.msg }

// reportAndResync logs a category-4 protocol error and returns to sync.
// In Strict mode it also surfaces the error to the caller.
func (p *Parser) reportAndResync(format string, args ...any) (string, error) {
	p.Out.Critical(format, args...)
	p.enterSync()
	if p.Strict {
		return "", &ProtocolError{Msg: fmt.Sprintf(format, args...)}
	}
	return "", nil
}

func (p *Parser) reportErrorAndResync(format string, args ...any) (string, error) {
	p.Out.Error(format, args...)
	p.enterSync()
	if p.Strict {
		return "", &ProtocolError{Msg: fmt.Sprintf(format, args...)}
	}
	return "", nil
}

// --- StateSync ---

func (p *Parser) stepSync(b byte, isReply bool) (string, error) {
	if isReply {
		// Replies don't participate in sync scanning; stay put.
		return "", nil
	}
	if b&0x80 == 0 {
		// Discard unexpected data byte while scanning for a command.
		return "", nil
	}
	node, ok := p.Root[b]
	if !ok {
		p.Out.Critical("datum=%02X: not a known command (sync)", b)
		return "", nil
	}
	p.command = b
	p.haveCommand = true
	return p.dispatch(node)
}

// --- StateExpectCommand ---

func (p *Parser) stepExpectCommand(b byte, isReply bool) (string, error) {
	if isReply {
		return p.reportErrorAndResync("reply packet when expecting command")
	}
	if b&0x80 == 0 {
		return p.reportErrorAndResync("datum=%02X: non-opcode byte while expecting a command", b)
	}
	node, ok := p.Root[b]
	if !ok {
		return p.reportAndResync("datum=%02X is not a known command", b)
	}
	p.command = b
	p.haveCommand = true
	return p.dispatch(node)
}

// dispatch handles a root/sub table node once its key byte has been
// consumed: emit immediately for a label, descend for a sub-table, or
// begin parameter accumulation for a param spec.
func (p *Parser) dispatch(node Node) (string, error) {
	switch node.Kind {
	case NodeLabel:
		p.decoded = node.Label
		p.label = node.Label
		return p.finishLine(), nil
	case NodeSubTable:
		p.ct = node.Sub
		p.state = StateExpectSubCommand
		return "", nil
	case NodeParamSpec:
		p.decoded = node.Label
		p.label = node.Label
		p.paramList = node.Params
		p.whichParam = 0
		p.state = StateDecodeParameters
		return p.primeNextParam()
	default:
		return "", &protocolTableError{fmt.Sprintf("unsupported node kind %d", node.Kind)}
	}
}

// --- StateExpectSubCommand ---

func (p *Parser) stepExpectSubCommand(b byte, isReply bool) (string, error) {
	if isReply {
		return p.reportErrorAndResync("reply packet when expecting sub-command")
	}
	if b&0x80 != 0 {
		return p.reportErrorAndResync("datum=%02X is a command byte when sub-command expected", b)
	}
	node, ok := p.ct[b]
	if !ok {
		return p.reportAndResync("datum=%02X is not a known sub-command", b)
	}
	p.subCommand = b
	p.haveSub = true
	switch node.Kind {
	case NodeLabel:
		p.decoded = node.Label
		p.label = node.Label
		return p.finishLine(), nil
	case NodeSubTable:
		return "", &protocolTableError{fmt.Sprintf("sub-command 0x%02X: too many nesting levels", b)}
	case NodeParamSpec:
		p.decoded = node.Label
		p.label = node.Label
		p.paramList = node.Params
		p.whichParam = 0
		p.state = StateDecodeParameters
		return p.primeNextParam()
	default:
		return "", &protocolTableError{fmt.Sprintf("unsupported node kind %d", node.Kind)}
	}
}

// --- StateDecodeParameters ---

// primeNextParam primes the byte decoder for paramList[whichParam], or
// switches to expect-reply / memory dispatch per the active marker, or
// finishes the line when the list is exhausted.
func (p *Parser) primeNextParam() (string, error) {
	if p.whichParam >= len(p.paramList) {
		return p.finishLine(), nil
	}
	param := p.paramList[p.whichParam]
	switch param.Kind {
	case ParamKindSpec:
		p.state = StateDecodeParameters
		p.decoder.Prime(param.Spec, -1)
		return "", nil
	case ParamKindAction:
		switch param.Action {
		case MarkerReply:
			p.whichParam++
			if p.whichParam >= len(p.paramList) {
				return p.reportAndResync("no reply parameter spec follows REPLY marker")
			}
			p.state = StateExpectReply
			next := p.paramList[p.whichParam]
			if next.Kind != ParamKindSpec {
				return "", &protocolTableError{"REPLY marker not followed by a parameter spec"}
			}
			p.decoder.Prime(next.Spec, -1)
			return "", nil
		default:
			return "", &protocolTableError{"invalid action marker in parameter list"}
		}
	default:
		return "", &protocolTableError{"unexpected parameter list element kind"}
	}
}

func (p *Parser) stepDecodeParameters(b byte, isReply bool) (string, error) {
	if isReply {
		return p.reportAndResync("reply packet when expecting parameters")
	}
	if b&0x80 != 0 {
		return p.reportErrorAndResync("datum=%02X is a command byte when data expected", b)
	}
	formatted, done, err := p.decoder.Step(b, -1)
	if err != nil {
		return p.reportErrorAndResync("%s", err.Error())
	}
	if !done {
		return "", nil
	}
	p.decoded += " " + formatted
	p.values = append(p.values, formatted)
	if p.paramList[p.whichParam].Spec.Primitive == PrimMT {
		// The host-side command (through the memory address) is a
		// complete, self-contained decode line (spec section 4.8 /
		// scenario 4): emit it now, then start a fresh line for the
		// controller's memory reply.
		msb, lsb := p.decoder.Address()
		p.mtMSB, p.mtLSB = msb, lsb
		line := p.finishLine()
		p.decoded = ""
		p.state = StateMTCommand
		return line, nil
	}
	p.whichParam++
	return p.primeNextParam()
}

// --- StateExpectReply ---

func (p *Parser) stepExpectReply(b byte, isReply bool, remaining int) (string, error) {
	if !isReply {
		return p.reportErrorAndResync("packet from host when expecting reply")
	}
	if b&0x80 != 0 {
		return p.reportErrorAndResync("datum=%02X is a command byte when reply data expected", b)
	}
	formatted, done, err := p.decoder.Step(b, remaining)
	if err != nil {
		return p.reportErrorAndResync("%s", err.Error())
	}
	if !done {
		return "", nil
	}
	p.decoded += " Reply=" + formatted
	p.values = append(p.values, formatted)
	p.whichParam++
	return p.primeNextParam()
}

// --- Memory reply chain (component C8) ---

func (p *Parser) stepMTCommand(b byte, isReply bool) (string, error) {
	if !isReply {
		return p.reportErrorAndResync("packet from host when expecting memory reply command")
	}
	if b&0x80 == 0 {
		return p.reportErrorAndResync("datum=%02X is not a reply command byte", b)
	}
	if b != p.command {
		p.Out.Warn("memory reply command 0x%02X does not echo host command 0x%02X", b, p.command)
	}
	p.state = StateMTSubCommand
	return "", nil
}

func (p *Parser) stepMTSubCommand(b byte, isReply bool) (string, error) {
	if !isReply {
		return p.reportErrorAndResync("packet from host when expecting memory reply sub-command")
	}
	p.state = StateMTAddressMSB
	return "", nil
}

func (p *Parser) stepMTAddressMSB(b byte, isReply bool) (string, error) {
	if !isReply {
		return p.reportErrorAndResync("packet from host when expecting memory reply address")
	}
	if b != p.mtMSB {
		p.Out.Warn("memory reply address %02X.. does not match requested %02X..", b, p.mtMSB)
	}
	p.state = StateMTAddressLSB
	return "", nil
}

func (p *Parser) stepMTAddressLSB(b byte, isReply bool) (string, error) {
	if !isReply {
		return p.reportErrorAndResync("packet from host when expecting memory reply address")
	}
	if b != p.mtLSB {
		p.Out.Warn("memory reply address %02X%02X does not match requested %02X%02X", p.mtMSB, b, p.mtMSB, p.mtLSB)
	}
	entry, ok := p.Memory[p.mtMSB][p.mtLSB]
	if !ok {
		p.Out.Verbose("unknown memory address %02X%02X, using generic decoder", p.mtMSB, p.mtLSB)
		entry = UnknownAddress
	}
	p.mtEntry = entry
	// The reply is an independent decode line naming only the memory
	// entry, per spec section 4.8 / scenario 4 ("Axis Range 1 Reply=...",
	// with no address or sub-command text).
	p.decoded = entry.Label
	p.label = entry.Label
	p.state = StateMTDecodeReply
	p.decoder.Prime(entry.Reply, -1)
	return "", nil
}

func (p *Parser) stepMTDecodeReply(b byte, isReply bool, remaining int) (string, error) {
	if !isReply {
		return p.reportErrorAndResync("packet from host when decoding memory reply data")
	}
	formatted, done, err := p.decoder.Step(b, remaining)
	if err != nil {
		return p.reportErrorAndResync("%s", err.Error())
	}
	if !done {
		return "", nil
	}
	p.decoded += " Reply=" + formatted
	p.values = append(p.values, formatted)
	line := p.finishLine()
	if p.Vis != nil {
		p.Vis.OnMemory(p.cmdID, p.mtMSB, p.mtLSB, []string{formatted})
	}
	return line, nil
}
