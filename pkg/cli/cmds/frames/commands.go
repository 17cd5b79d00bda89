package frames

import (
	"fmt"
	"strings"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/dlcf/pkg/cli/sh"
)

var (
	// SendCmd sends the arguments as one text frame.
	SendCmd = ishell.Cmd{
		Name:    "send",
		Aliases: []string{"s"},
		Help:    "TEXT...",
		Func: sh.MustBeOpen(func(c *ishell.Context) {
			if len(c.Args) < 1 {
				c.Err(fmt.Errorf("TEXT required"))
				return
			}
			send(c, []byte(strings.Join(c.Args, " ")))
		}),
	}

	// SendHexCmd sends a binary frame.
	SendHexCmd = ishell.Cmd{
		Name:    "sendhex",
		Aliases: []string{"sx"},
		Help:    "HEX...",
		Func: sh.MustBeOpen(func(c *ishell.Context) {
			payload, err := sh.ParseHex(c.Args...)
			if err != nil {
				c.Err(fmt.Errorf("Invalid HEX: %v", err))
				return
			}
			send(c, payload)
		}),
	}

	// StatsCmd prints the link counters.
	StatsCmd = ishell.Cmd{
		Name: "stats",
		Help: "",
		Func: sh.MustBeOpen(func(c *ishell.Context) {
			s := sh.ShellFrom(c)
			stats := s.Link.Endpoint.Stats()
			if s.OutputJSON {
				s.Print(c, stats)
				return
			}
			c.Printf("bytes    sent=%d received=%d\n", stats.BytesSent, stats.BytesReceived)
			c.Printf("frames   sent=%d received=%d delivered=%d queued=%d\n",
				stats.FramesSent, stats.FramesReceived, stats.Delivered, stats.Queued)
			c.Printf("dropped  discarded=%d overflows=%d fcs=%d timeouts=%d\n",
				stats.FramesDiscarded, stats.Overflows, stats.FCSErrors, stats.Timeouts)
			c.Printf("noise    ignored=%d resyncs=%d bad-escapes=%d\n",
				stats.IgnoredBytes, stats.Resyncs, stats.BadEscapes)
			c.Printf("errors   tx=%d rx=%d\n", stats.TxErrors, stats.RxErrors)
		}),
	}
)

func send(c *ishell.Context, payload []byte) {
	if err := sh.ShellFrom(c).Link.Endpoint.Send(payload); err != nil {
		c.Err(err)
	}
}

func init() {
	sh.AddCmds(
		&SendCmd,
		&SendHexCmd,
		&StatsCmd,
	)
}
