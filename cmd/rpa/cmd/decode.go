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

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/davecgh/go-spew/spew"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ruidatools/rpa/config"
	"github.com/ruidatools/rpa/decode"
	"github.com/ruidatools/rpa/emit"
	"github.com/ruidatools/rpa/internal/capture"
	"github.com/ruidatools/rpa/internal/filter"
	"github.com/ruidatools/rpa/internal/journal"
	"github.com/ruidatools/rpa/internal/stats"
	"github.com/ruidatools/rpa/protocol"
	"github.com/ruidatools/rpa/visualize"
)

var cfg config.Config

func init() {
	cfg.Magic = -1
	decodeCmd.Flags().StringVar(&cfg.InputEncoding, "input-encoding", "utf-8", "utf-8 or utf-16")
	decodeCmd.Flags().BoolVar(&cfg.OnTheFly, "on-the-fly", false, "spawn a live capture instead of reading a file")
	decodeCmd.Flags().StringVar(&cfg.IP, "ip", "", "controller IP address (required with --on-the-fly)")
	decodeCmd.Flags().StringVar(&cfg.Protocol, "protocol", "ruida", "protocol name")
	decodeCmd.Flags().IntVar(&cfg.Magic, "magic", -1, "pin the deswizzle magic byte; default auto-discover")
	decodeCmd.Flags().StringVarP(&cfg.OutFile, "out", "o", "", "mirror output to this file")
	decodeCmd.Flags().BoolVarP(&cfg.Quiet, "quiet", "q", false, "suppress non-fatal output")
	decodeCmd.Flags().BoolVar(&cfg.Verbose, "verbose", false, "verbose diagnostics")
	decodeCmd.Flags().BoolVar(&cfg.Raw, "raw", false, "enable raw hex lines (the only such lines are the --unswizzled dumps)")
	decodeCmd.Flags().BoolVar(&cfg.Unswizzled, "unswizzled", false, "include a hex dump of each packet's payload as received, host payloads not deswizzled (shown only with --raw)")
	decodeCmd.Flags().BoolVar(&cfg.StopOnError, "stop-on-error", false, "strict mode: abort on transport/protocol errors")
	decodeCmd.Flags().BoolVar(&cfg.StepPackets, "step-packets", false, "pause after each packet")
	decodeCmd.Flags().BoolVar(&cfg.StepDecode, "step-decode", false, "pause after each decoded command")
	decodeCmd.Flags().BoolVar(&cfg.StepMoves, "step-moves", false, "accepted but ignored: decode does not pause on move commands")
	decodeCmd.Flags().IntVar(&cfg.StepOnCommand, "step-on-command", 0, "pause once command_id reaches this value")
	decodeCmd.Flags().BoolVar(&cfg.PlotMoves, "plot-moves", false, "accumulate move commands for visualization")
	decodeCmd.Flags().BoolVar(&cfg.Interactive, "interactive", false, "accepted but ignored: the only prompts are the --step-* pauses")
	decodeCmd.Flags().StringVar(&cfg.PcapFile, "pcap", "", "read a .pcap/.pcapng capture file instead of a text log")
	decodeCmd.Flags().StringVar(&cfg.Iface, "iface", "", "network interface for --on-the-fly")
	decodeCmd.Flags().StringVar(&cfg.ConfigFile, "config", "", "YAML defaults file")
	decodeCmd.Flags().StringVar(&cfg.Filter, "filter", "", "boolean expression filtering decoded command lines")
	decodeCmd.Flags().BoolVar(&cfg.DumpStruct, "dump-struct", false, "pretty-print decoded packet structures")
	decodeCmd.Flags().BoolVar(&cfg.Syslog, "syslog", false, "forward operational logs to the systemd journal")
	decodeCmd.Flags().StringVar(&cfg.MetricsAddr, "metrics-addr", "", "expose Prometheus metrics on host:port (disabled if empty)")
	RootCmd.AddCommand(decodeCmd)
}

var decodeCmd = &cobra.Command{
	Use:   "decode [input_file]",
	Short: "Decode a Ruida protocol capture",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(c *cobra.Command, args []string) error {
		if len(args) == 1 {
			cfg.InputFile = args[0]
		}
		return runDecode(&cfg)
	},
}

func runDecode(cfg *config.Config) error {
	if cfg.ConfigFile != "" {
		defaults, err := config.Load(cfg.ConfigFile)
		if err != nil {
			return err
		}
		cfg.ApplyDefaults(defaults)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	journal.Install(log.StandardLogger(), cfg.Syslog)
	log.WithField("component", "cli").Infof("starting decode: input=%s protocol=%s", cfg.InputFile, cfg.Protocol)

	var filterExpr *filter.Expr
	if cfg.Filter != "" {
		var err error
		filterExpr, err = filter.Compile(cfg.Filter)
		if err != nil {
			return err
		}
	}

	var out *os.File
	if cfg.OutFile != "" {
		var err error
		out, err = os.Create(cfg.OutFile)
		if err != nil {
			return fmt.Errorf("creating output file %s: %w", cfg.OutFile, err)
		}
		defer out.Close()
	}
	out1 := emit.NewConsole(out, cfg.Quiet, cfg.Verbose, cfg.Raw)

	var metrics *stats.Metrics
	if cfg.MetricsAddr != "" {
		metrics = startMetrics(cfg.MetricsAddr)
	}

	src, err := openSource(cfg)
	if err != nil {
		return err
	}
	defer src.Close()

	reader := protocol.NewReader()
	stream := protocol.NewByteStream(src, reader)
	if cfg.Magic >= 0 {
		stream.SetMagic(byte(cfg.Magic))
	} else if err := stream.AutoDiscoverMagic(); err != nil {
		out1.Fatal("magic discovery failed: %v", err)
		return err
	}

	tracker := protocol.NewTracker()
	vis := visualize.NewRecorder()
	parser := decode.NewParser(decode.RootTable, decode.MemoryTable, out1, vis)
	parser.Strict = cfg.StopOnError

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	pktN := 0
	protocolErrs := 0
	var lastPkt *protocol.Packet

	for {
		select {
		case <-ctx.Done():
			out1.Info("interrupted, flushing and exiting")
			return nil
		default:
		}

		b, ok, err := stream.NextByte()
		if err != nil {
			out1.Fatal("reader error: %v", err)
			return err
		}
		if !ok {
			break
		}

		if stream.NewPacket {
			pktN++
			out1.SetPacketNumber(pktN)
			lastPkt = stream.CurrentPacket()
			status := tracker.Observe(lastPkt, time.Now())
			if status.Warning != "" {
				out1.Warn(status.Warning)
			}
			if metrics != nil {
				if lastPkt.Direction == protocol.ToController {
					metrics.HostPackets.Inc()
					if !lastPkt.ChecksumOK {
						metrics.ChecksumErrs.Inc()
					}
				} else {
					metrics.ReplyPackets.Inc()
				}
				metrics.AcksExpected.Set(float64(status.AcksExpected))
			}
			if cfg.DumpStruct {
				out1.Verbose("%s", spew.Sdump(lastPkt))
			}
			if cfg.Unswizzled {
				out1.Raw(fmt.Sprintf("%X", lastPkt.Payload))
			}
			if lastPkt.IsHandshake {
				logHandshake(out1, status)
				if cfg.StepPackets {
					out1.Pause("-- step-packets: press enter --")
				}
				continue
			}
			if !lastPkt.ChecksumOK {
				out1.Error("checksum mismatch on host packet")
				if cfg.StopOnError {
					return fmt.Errorf("checksum mismatch (strict mode)")
				}
			}
			if cfg.StepPackets {
				out1.Pause("-- step-packets: press enter --")
			}
		}

		isReply := lastPkt != nil && lastPkt.Direction == protocol.FromController
		line, err := parser.Step(b, isReply, stream.Remaining())
		if err != nil {
			protocolErrs++
			if cfg.StopOnError {
				return err
			}
			var perr *decode.ProtocolError
			if !errors.As(err, &perr) {
				// Protocol-table errors are fatal even outside strict mode.
				out1.Fatal("%v", err)
				return err
			}
			continue
		}
		if line == "" {
			continue
		}
		if filterExpr != nil {
			opcode, subOpcode, hasSub := parser.LastCommand()
			match, ferr := filterExpr.Match(filter.Command{
				Opcode: opcode, SubOpcode: subOpcode, Label: line,
				IsReply: isReply, IsMemory: hasSub && subOpcode == 0x00 && opcode == 0xDA,
			})
			if ferr != nil {
				out1.Error("filter error: %v", ferr)
			} else if !match {
				continue
			}
		}
		out1.Write(parser.CommandID(), line)
		if metrics != nil {
			metrics.CommandsDecoded.Inc()
		}
		if cfg.StepDecode {
			out1.Pause("-- step-decode: press enter --")
		}
		if cfg.StepOnCommand > 0 && parser.CommandID() == cfg.StepOnCommand {
			out1.Pause(fmt.Sprintf("-- reached command %d: press enter --", cfg.StepOnCommand))
		}
	}

	summary := stats.Summary{
		Packets:      stream.Stats,
		CommandCount: parser.CommandID(),
		ProtocolErrs: protocolErrs,
		HandshakeCounts: map[string]int{
			"acks_expected_final": tracker.AcksExpected(),
		},
		LatencyMean:    tracker.LatencyMean(),
		LatencyStddev:  tracker.LatencyStddev(),
		LatencySamples: tracker.LatencySamples(),
	}
	out1.Info("%s", summary.Render())
	return nil
}

func logHandshake(out *emit.Console, status protocol.Status) {
	switch status.Kind {
	case protocol.KindACK:
		out.Verbose("ACK (acks_expected=%d)", status.AcksExpected)
	case protocol.KindNAK:
		out.Warn("NAK received, host will resend (acks_expected=%d)", status.AcksExpected)
	case protocol.KindENQ:
		out.Verbose("ENQ keepalive")
	case protocol.KindERR:
		out.Warn("ERR received from controller")
	case protocol.KindUnexpected:
		out.Warn("unexpected handshake reply byte")
	}
}

func openSource(cfg *config.Config) (protocol.Source, error) {
	switch {
	case cfg.OnTheFly:
		return capture.NewLiveSource(cfg.Iface, cfg.IP)
	case cfg.PcapFile != "":
		return capture.NewFileSource(cfg.PcapFile)
	default:
		f, err := os.Open(cfg.InputFile)
		if err != nil {
			return nil, fmt.Errorf("opening input file %s: %w", cfg.InputFile, err)
		}
		return protocol.NewFileSource(f), nil
	}
}

func startMetrics(addr string) *stats.Metrics {
	m, reg := stats.NewMetrics()
	go func() {
		if err := stats.Serve(addr, reg); err != nil {
			log.WithField("component", "metrics").Errorf("metrics server exited: %v", err)
		}
	}()
	return m
}
