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

// Package filter implements --filter=<expr> (component C18): a boolean
// expression evaluated per decoded command, gating which lines reach the
// Emitter.
package filter

import (
	"fmt"

	"github.com/Knetic/govaluate"
)

// Command is the subset of a decoded command's attributes a filter
// expression may reference.
type Command struct {
	Opcode    byte
	SubOpcode byte
	Label     string
	IsReply   bool
	IsMemory  bool
}

// Expr is a compiled --filter expression.
type Expr struct {
	e *govaluate.EvaluableExpression
}

// Compile parses expr against the variables opcode, subop, label, is_reply
// and is_memory.
func Compile(expr string) (*Expr, error) {
	e, err := govaluate.NewEvaluableExpression(expr)
	if err != nil {
		return nil, fmt.Errorf("parsing filter expression %q: %w", expr, err)
	}
	return &Expr{e: e}, nil
}

// Match evaluates the expression against cmd, returning whether the
// command passes the filter.
func (x *Expr) Match(cmd Command) (bool, error) {
	params := map[string]any{
		"opcode":    float64(cmd.Opcode),
		"subop":     float64(cmd.SubOpcode),
		"label":     cmd.Label,
		"is_reply":  cmd.IsReply,
		"is_memory": cmd.IsMemory,
	}
	result, err := x.e.Evaluate(params)
	if err != nil {
		return false, fmt.Errorf("evaluating filter expression: %w", err)
	}
	b, ok := result.(bool)
	if !ok {
		return false, fmt.Errorf("filter expression did not evaluate to a boolean (got %T)", result)
	}
	return b, nil
}
