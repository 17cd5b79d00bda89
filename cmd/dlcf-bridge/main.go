package main

//go-build: CGO_ENABLED=0

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"time"

	"github.com/golang/glog"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/robotalks/dlcf/pkg/env"
	fx "github.com/robotalks/dlcf/pkg/framework"
	"github.com/robotalks/dlcf/pkg/link"
)

var (
	statsInterval = time.Minute
	metricsAddr   string
)

func init() {
	env.SetupFlags()
	flag.DurationVar(&statsInterval, "stats", statsInterval, "Interval of logging link statistics, 0 disables it.")
	flag.StringVar(&metricsAddr, "metrics", metricsAddr, "Listen address of the Prometheus metrics endpoint, empty disables it.")
}

func main() {
	flag.Parse()
	defer glog.Flush()

	conf := env.NewConfig()
	ep := conf.MustNewEndpoint("link")
	bridge, err := conf.NewBridge(ep)
	if err != nil {
		log.Fatalln(err)
	}
	glog.Infof("bridging %s to %s: rx=%q tx=%q codec=%s", conf.LinkURL, conf.BrokerURL,
		bridge.Queue.TopicPrefix+bridge.RxTopic, bridge.Queue.TopicPrefix+bridge.TxTopic, bridge.Codec.Name())

	loop := fx.NewLoop().Add(ep, bridge)
	if statsInterval > 0 {
		loop.AddController(fx.PrLvHousekeeping, statsLogger(ep, statsInterval))
	}

	runner := fx.NewRunner().HandleSignals()
	runner.Go(fx.NamedRun("loop", loop))
	if metricsAddr != "" {
		runner.Go(fx.NamedRun("metrics", metricsServer(metricsAddr, ep)))
	}
	if err := runner.Wait(); err != nil {
		log.Fatalln(err)
	}
}

func statsLogger(ep *link.Endpoint, interval time.Duration) fx.Controller {
	var last time.Time
	return fx.ControlFunc(func(cc fx.ControlContext) error {
		if now := cc.Time(); now.Sub(last) >= interval {
			last = now
			s := ep.Stats()
			glog.Infof("link: sent=%d received=%d delivered=%d discarded=%d fcs-errors=%d timeouts=%d",
				s.FramesSent, s.FramesReceived, s.Delivered, s.FramesDiscarded, s.FCSErrors, s.Timeouts)
		}
		return nil
	})
}

func metricsServer(addr string, eps ...*link.Endpoint) fx.Runnable {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		link.NewCollector(eps...),
	)
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	server := &http.Server{Addr: addr, Handler: mux}
	return fx.RunFunc(func(ctx context.Context) error {
		glog.Infof("serving metrics on %s", addr)
		err := fx.RunWithContextCloser(ctx, server, server.ListenAndServe)
		if errors.Is(err, http.ErrServerClosed) {
			return ctx.Err()
		}
		return err
	})
}
