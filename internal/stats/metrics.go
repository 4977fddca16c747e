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

package stats

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics exposes the same running counters as a Prometheus scrape
// endpoint, gated behind --metrics-addr (SPEC_FULL C16/C12, off by
// default).
type Metrics struct {
	HostPackets     prometheus.Counter
	ReplyPackets    prometheus.Counter
	ChecksumErrs    prometheus.Counter
	CommandsDecoded prometheus.Counter
	ProtocolErrs    prometheus.Counter
	AcksExpected    prometheus.Gauge
}

// NewMetrics registers the gauges/counters on a dedicated registry so a
// run never pollutes the default global one.
func NewMetrics() (*Metrics, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		HostPackets:     factory.NewCounter(prometheus.CounterOpts{Name: "rpa_host_packets_total"}),
		ReplyPackets:    factory.NewCounter(prometheus.CounterOpts{Name: "rpa_reply_packets_total"}),
		ChecksumErrs:    factory.NewCounter(prometheus.CounterOpts{Name: "rpa_checksum_errors_total"}),
		CommandsDecoded: factory.NewCounter(prometheus.CounterOpts{Name: "rpa_commands_decoded_total"}),
		ProtocolErrs:    factory.NewCounter(prometheus.CounterOpts{Name: "rpa_protocol_errors_total"}),
		AcksExpected:    factory.NewGauge(prometheus.GaugeOpts{Name: "rpa_acks_expected"}),
	}, reg
}

// Serve starts the metrics HTTP endpoint on addr; it blocks, so callers
// run it in its own goroutine.
func Serve(addr string, reg *prometheus.Registry) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	return http.ListenAndServe(addr, mux)
}
