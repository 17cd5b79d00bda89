package link

import (
	"github.com/prometheus/client_golang/prometheus"
)

type counterDesc struct {
	desc  *prometheus.Desc
	value func(*Stats) float64
}

// Collector exports the counters of endpoints to Prometheus.
type Collector struct {
	endpoints []*Endpoint
	counters  []counterDesc
	queued    *prometheus.Desc
}

// NewCollector creates a Collector for eps, labelled by endpoint name.
func NewCollector(eps ...*Endpoint) *Collector {
	counter := func(name, help string, value func(*Stats) float64) counterDesc {
		return counterDesc{
			desc:  prometheus.NewDesc("dlcf_"+name, help, []string{"link"}, nil),
			value: value,
		}
	}
	return &Collector{
		endpoints: eps,
		counters: []counterDesc{
			counter("bytes_sent_total", "Bytes accepted by the transport.",
				func(s *Stats) float64 { return float64(s.BytesSent) }),
			counter("bytes_received_total", "Bytes read from the transport.",
				func(s *Stats) float64 { return float64(s.BytesReceived) }),
			counter("frames_sent_total", "Frames terminated with EOF.",
				func(s *Stats) float64 { return float64(s.FramesSent) }),
			counter("frames_received_total", "Frames terminated with EOF on receive.",
				func(s *Stats) float64 { return float64(s.FramesReceived) }),
			counter("frames_delivered_total", "Frames handed to the frame handler.",
				func(s *Stats) float64 { return float64(s.Delivered) }),
			counter("frames_discarded_total", "Broken frames dropped at EOF.",
				func(s *Stats) float64 { return float64(s.FramesDiscarded) }),
			counter("overflows_total", "Frames exceeding the receive buffer.",
				func(s *Stats) float64 { return float64(s.Overflows) }),
			counter("resyncs_total", "Frames restarted by SOF.",
				func(s *Stats) float64 { return float64(s.Resyncs) }),
			counter("bad_escapes_total", "ESC followed by an unknown byte.",
				func(s *Stats) float64 { return float64(s.BadEscapes) }),
			counter("fcs_errors_total", "Frames dropped on FCS mismatch.",
				func(s *Stats) float64 { return float64(s.FCSErrors) }),
			counter("rx_timeouts_total", "Frames reset by the receive watchdog.",
				func(s *Stats) float64 { return float64(s.Timeouts) }),
			counter("transport_errors_total", "Transport read and write failures.",
				func(s *Stats) float64 { return float64(s.TxErrors + s.RxErrors) }),
		},
		queued: prometheus.NewDesc("dlcf_send_queue_length", "Frames waiting to be sent.", []string{"link"}, nil),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	for _, counter := range c.counters {
		ch <- counter.desc
	}
	ch <- c.queued
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	for _, ep := range c.endpoints {
		stats := ep.Stats()
		for _, counter := range c.counters {
			ch <- prometheus.MustNewConstMetric(counter.desc, prometheus.CounterValue, counter.value(&stats), ep.Name())
		}
		ch <- prometheus.MustNewConstMetric(c.queued, prometheus.GaugeValue, float64(stats.Queued), ep.Name())
	}
}
