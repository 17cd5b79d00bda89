// Package env provides the command line and environment configuration
// shared by the commands.
package env

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/robotalks/dlcf/pkg/bridge/mqtt"
	"github.com/robotalks/dlcf/pkg/dlcf"
	"github.com/robotalks/dlcf/pkg/link"
	"github.com/robotalks/dlcf/pkg/transport"
)

// Config provides common options to setup links and bridges.
type Config struct {
	// LinkURL selects the transport, see transport.Open.
	LinkURL string
	// Framing is the control byte table, see dlcf.ParseConfig.
	Framing string
	// BrokerURL is the MQTT broker, e.g. mqtt://host:port/topic-prefix
	// If the URL has no path, the prefix is derived from the machine ID.
	BrokerURL string
	// Codec is the bridge payload encoding, raw or proto.
	Codec string
}

var defaultConfig = Config{
	LinkURL:   "loop:",
	Framing:   dlcf.DefaultConfig().String(),
	BrokerURL: "mqtt://localhost:1883",
	Codec:     "raw",
}

func init() {
	if val := os.Getenv("DLCF_LINK_URL"); val != "" {
		defaultConfig.LinkURL = val
	}
	if val := os.Getenv("DLCF_FRAMING"); val != "" {
		defaultConfig.Framing = val
	}
	if val := os.Getenv("DLCF_MQTT_URL"); val != "" {
		defaultConfig.BrokerURL = val
	}
	if val := os.Getenv("DLCF_CODEC"); val != "" {
		defaultConfig.Codec = val
	}
}

// SetupFlags sets up command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.LinkURL, "link", defaultConfig.LinkURL, "Link transport URL.")
	flag.StringVar(&defaultConfig.Framing, "framing", defaultConfig.Framing, "Control and escape bytes, e.g. 02:22,10:30,03:23[,strict].")
	flag.StringVar(&defaultConfig.BrokerURL, "mqtt", defaultConfig.BrokerURL, "MQTT broker URL.")
	flag.StringVar(&defaultConfig.Codec, "codec", defaultConfig.Codec, "MQTT payload encoding: raw or proto.")
	link.SetupFlags()
}

// Default gets the default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// NewEndpoint opens the transport at url and frames it.
func (c *Config) NewEndpoint(name, url string) (*link.Endpoint, error) {
	framing, err := dlcf.ParseConfig(c.Framing)
	if err != nil {
		return nil, err
	}
	tr, err := transport.Open(url)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", url, err)
	}
	ep, err := link.New(name, framing, tr, link.DefaultOptions())
	if err != nil {
		tr.Close()
		return nil, err
	}
	return ep, nil
}

// MustNewEndpoint opens LinkURL and fails on error.
func (c *Config) MustNewEndpoint(name string) *link.Endpoint {
	ep, err := c.NewEndpoint(name, c.LinkURL)
	if err != nil {
		log.Fatalln(err)
	}
	return ep
}

// NewQueue creates the MQTT queue. A broker URL without topic prefix gets
// dlcf/<machine-id>/.
func (c *Config) NewQueue() (*mqtt.Queue, error) {
	q, err := mqtt.NewQueueFromURL(c.BrokerURL)
	if err != nil {
		return nil, fmt.Errorf("invalid broker URL: %w", err)
	}
	if q.TopicPrefix == "" {
		q.TopicPrefix = "dlcf/" + MachineID() + "/"
	}
	return q, nil
}

// NewBridge creates a bridge between ep and the MQTT broker.
func (c *Config) NewBridge(ep *link.Endpoint) (*mqtt.Bridge, error) {
	codec, err := mqtt.CodecByName(c.Codec)
	if err != nil {
		return nil, err
	}
	q, err := c.NewQueue()
	if err != nil {
		return nil, err
	}
	b := mqtt.NewBridge(q, ep, codec)
	ep.Handler = b
	return b, nil
}
