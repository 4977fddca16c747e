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

// Package emit implements the decode-line sink (component C9): a console
// and optional file writer producing the sequenced output format of
// SPEC_FULL section 6, colorized on an interactive terminal.
package emit

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"golang.org/x/term"
)

// Channel is one of the fixed output-line channels (spec section 6).
type Channel string

// Channels.
const (
	ChanReader   Channel = "PRT:RDR"
	ChanParser   Channel = "PRT:PRS"
	ChanError    Channel = "PRT:ERR"
	ChanFatal    Channel = "PRT:FTL"
	ChanRaw      Channel = "PRT:raw"
	ChanInfo     Channel = "INT:INF"
	ChanWarn     Channel = "INT:WRN"
	ChanCritical Channel = "INT:CRT"
	ChanIntFatal Channel = "INT:FTL"
	ChanVerbose  Channel = "vrb"
)

// Direction is the arrow shown between the channel and the payload text.
type Direction string

// Directions.
const (
	DirToController   Direction = "-->"
	DirFromController Direction = "<--"
	DirNone           Direction = "---"
)

// Console writes the fixed-format decode line
// "<pkt_n:04d>:<cmd_n:06d>:<msg_n:03d>:<channel>:<dir>:<payload>" to stdout
// and, optionally, to a mirrored output file (spec section 6). It
// satisfies decode.Emitter.
type Console struct {
	out     io.Writer
	file    io.Writer
	quiet   bool
	verbose bool
	raw     bool

	pktN, cmdN, msgN int
	color            bool

	in *bufio.Reader
}

// NewConsole constructs a Console writing to stdout (and, when mirror is
// non-nil, additionally mirroring every line to mirror). Colorization is
// disabled automatically when stdout is not a terminal, matching the
// teacher's terminal-aware CLI tools.
func NewConsole(mirror io.Writer, quiet, verbose, raw bool) *Console {
	return &Console{
		out:     os.Stdout,
		file:    mirror,
		quiet:   quiet,
		verbose: verbose,
		raw:     raw,
		color:   term.IsTerminal(int(os.Stdout.Fd())),
		in:      bufio.NewReader(os.Stdin),
	}
}

func (c *Console) line(pktN, cmdN, msgN int, ch Channel, dir Direction, payload string) string {
	return fmt.Sprintf("%04d:%06d:%03d:%s:%s:%s", pktN, cmdN, msgN, ch, dir, payload)
}

func (c *Console) colorize(ch Channel, s string) string {
	if !c.color {
		return s
	}
	switch ch {
	case ChanError, ChanFatal:
		return color.RedString(s)
	case ChanCritical, ChanIntFatal:
		return color.MagentaString(s)
	case ChanWarn:
		return color.YellowString(s)
	case ChanVerbose:
		return color.New(color.Faint).Sprint(s)
	default:
		return s
	}
}

func (c *Console) emit(ch Channel, dir Direction, payload string) {
	if c.quiet && ch != ChanFatal && ch != ChanIntFatal {
		return
	}
	c.msgN++
	text := c.line(c.pktN, c.cmdN, c.msgN, ch, dir, payload)
	fmt.Fprintln(c.out, c.colorize(ch, text))
	if c.file != nil {
		fmt.Fprintln(c.file, text)
	}
}

// Write emits a parser decode line under channel PRT:PRS, stamped with
// the command sequence number (decode.Parser.CommandID()) that produced
// it; subsequent status lines keep reporting that cmd_n until the next
// completed command updates it.
func (c *Console) Write(cmdID int, line string) {
	c.cmdN = cmdID
	c.emit(ChanParser, DirToController, line)
}

// Verbose emits a low-priority diagnostic, suppressed unless --verbose.
func (c *Console) Verbose(format string, args ...any) {
	if !c.verbose {
		return
	}
	c.emit(ChanVerbose, DirNone, fmt.Sprintf(format, args...))
}

// Reader emits a reader-channel status line.
func (c *Console) Reader(format string, args ...any) {
	c.emit(ChanReader, DirNone, fmt.Sprintf(format, args...))
}

// Parser emits a parser-channel status line (distinct from Write's decode
// payload: used for parser-internal bookkeeping messages).
func (c *Console) Parser(format string, args ...any) {
	c.emit(ChanParser, DirNone, fmt.Sprintf(format, args...))
}

// Error emits a category 2-4 recoverable error line.
func (c *Console) Error(format string, args ...any) {
	c.emit(ChanError, DirNone, fmt.Sprintf(format, args...))
}

// Warn emits a handshake anomaly or similar non-fatal warning.
func (c *Console) Warn(format string, args ...any) {
	c.emit(ChanWarn, DirNone, fmt.Sprintf(format, args...))
}

// Critical emits an unknown-opcode or similar re-synced diagnostic.
func (c *Console) Critical(format string, args ...any) {
	c.emit(ChanCritical, DirNone, fmt.Sprintf(format, args...))
}

// Info emits an informational status line.
func (c *Console) Info(format string, args ...any) {
	c.emit(ChanInfo, DirNone, fmt.Sprintf(format, args...))
}

// Fatal emits a terminal-shutdown line under PRT:FTL.
func (c *Console) Fatal(format string, args ...any) {
	c.emit(ChanFatal, DirNone, fmt.Sprintf(format, args...))
}

// Raw emits a raw hex dump line, gated by --raw.
func (c *Console) Raw(payload string) {
	if !c.raw {
		return
	}
	c.emit(ChanRaw, DirNone, payload)
}

// SetPacketNumber updates the pkt_n field used by subsequent lines.
func (c *Console) SetPacketNumber(n int) { c.pktN = n }

// Pause prompts the operator and blocks for a single line of stdin input,
// used by --step-packets/--step-decode/--step-on-command.
func (c *Console) Pause(prompt string) string {
	fmt.Fprint(c.out, prompt)
	text, _ := c.in.ReadString('\n')
	return text
}
