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

// Package config assembles the frozen configuration struct consumed by
// the core (component C12): CLI flags plus an optional YAML defaults
// file. Flags always win over file defaults.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// Defaults is the subset of configuration an operator may preset per
// controller family in a YAML file (--config=<file>). AckWarnThreshold is
// parsed but not applied: ApplyDefaults ignores it and the handshake
// tracker always uses protocol.DefaultAckWarnThreshold.
type Defaults struct {
	Magic            *byte  `yaml:"magic,omitempty"`
	AckWarnThreshold *int   `yaml:"ack_warn_threshold,omitempty"`
	Protocol         string `yaml:"protocol,omitempty"`
	InputEncoding    string `yaml:"input_encoding,omitempty"`
}

// Load reads and parses a YAML defaults file.
func Load(path string) (*Defaults, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}
	var d Defaults
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return &d, nil
}

// Config is the frozen, fully-resolved run configuration (spec section 6
// CLI surface), assembled once at startup from flags and, optionally, a
// Defaults file.
type Config struct {
	InputFile     string
	InputEncoding string
	OnTheFly      bool
	IP            string
	Iface         string
	Protocol      string
	Magic         int // -1 means "auto-discover"
	OutFile       string
	Quiet         bool
	Verbose       bool
	Raw           bool
	Unswizzled    bool
	StopOnError   bool
	StepPackets   bool
	StepDecode    bool
	StepMoves     bool
	StepOnCommand int
	PlotMoves     bool
	Interactive   bool

	PcapFile    string
	ConfigFile  string
	Filter      string
	DumpStruct  bool
	Syslog      bool
	MetricsAddr string
}

// ApplyDefaults fills in zero-valued fields from d. Flags set on the
// command line are never overridden: only fields still unset are eligible
// (Magic when it is -1, the string fields when they are empty).
func (c *Config) ApplyDefaults(d *Defaults) {
	if d == nil {
		return
	}
	if c.Magic == -1 && d.Magic != nil {
		c.Magic = int(*d.Magic)
	}
	if c.Protocol == "" && d.Protocol != "" {
		c.Protocol = d.Protocol
	}
	if c.InputEncoding == "" && d.InputEncoding != "" {
		c.InputEncoding = d.InputEncoding
	}
}

// Validate checks the cross-field constraints spec section 6 implies.
func (c *Config) Validate() error {
	if c.OnTheFly && c.IP == "" {
		return fmt.Errorf("--ip is required with --on-the-fly")
	}
	if !c.OnTheFly && c.InputFile == "" && c.PcapFile == "" {
		return fmt.Errorf("an input file (or --pcap) is required unless --on-the-fly is set")
	}
	if c.InputEncoding != "" && c.InputEncoding != "utf-8" && c.InputEncoding != "utf-16" {
		return fmt.Errorf("--input-encoding must be utf-8 or utf-16, got %q", c.InputEncoding)
	}
	return nil
}
