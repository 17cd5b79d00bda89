package sh

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"strings"
	"unicode"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/dlcf/pkg/env"
	fx "github.com/robotalks/dlcf/pkg/framework"
	"github.com/robotalks/dlcf/pkg/link"
)

// Shell provides ishell backed interactive shell.
type Shell struct {
	Interactive bool
	OutputJSON  bool
	AutoOpen    bool

	Shell  *ishell.Shell
	Config *env.Config
	Link   *LinkLoop
}

// LinkLoop is a running loop with an open link.
type LinkLoop struct {
	URL      string
	Cancel   func()
	Loop     *fx.Loop
	Endpoint *link.Endpoint

	doneCh chan struct{}
}

const (
	shellKey     = "$shell"
	closedPrompt = "[none] > "
)

var (
	// flags

	evalOnly   bool
	outputJSON bool

	// commands
	commands = []*ishell.Cmd{
		&OpenCmd,
		&CloseCmd,
		&StatusCmd,
		&ResetCmd,
	}
)

func init() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
	flag.BoolVar(&outputJSON, "json", outputJSON, "Print output in JSON.")
}

// AddCmds is used by other commands providers during init func.
func AddCmds(cmds ...*ishell.Cmd) {
	commands = append(commands, cmds...)
}

// New creates a new shell.
func New(conf *env.Config) *Shell {
	s := &Shell{
		Interactive: !evalOnly,
		OutputJSON:  outputJSON,

		Shell:  ishell.New(),
		Config: conf,
	}
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt(closedPrompt)
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// MustBeOpen wraps command func requires an open link.
func MustBeOpen(fn func(c *ishell.Context)) func(c *ishell.Context) {
	return func(c *ishell.Context) {
		if ShellFrom(c).Link == nil {
			c.Err(fmt.Errorf("no link open"))
			return
		}
		fn(c)
	}
}

// FormatFrame renders a payload as hex followed by its printable form.
func FormatFrame(payload []byte) string {
	var printable strings.Builder
	for _, b := range payload {
		if b < 0x80 && unicode.IsPrint(rune(b)) {
			printable.WriteByte(b)
		} else {
			printable.WriteByte('.')
		}
	}
	return fmt.Sprintf("[%d] % x |%s|", len(payload), payload, printable.String())
}

// ParseHex parses bytes written as hex, separators are ignored:
// "02 10 03", "02:10:03" and "021003" are equivalent.
func ParseHex(args ...string) ([]byte, error) {
	var sb strings.Builder
	for _, arg := range args {
		for _, word := range strings.Fields(arg) {
			word = strings.TrimPrefix(strings.TrimPrefix(word, "0x"), "0X")
			sb.WriteString(word)
		}
	}
	str := strings.Map(func(r rune) rune {
		switch r {
		case ':', '-', ',':
			return -1
		}
		return r
	}, sb.String())
	return hex.DecodeString(str)
}

// Print prints v in JSON when requested, or its string form.
func (s *Shell) Print(c *ishell.Context, v interface{}) {
	if s.OutputJSON {
		out, err := json.Marshal(v)
		if err != nil {
			c.Err(err)
			return
		}
		c.Println(string(out))
		return
	}
	c.Println(v)
}

// WithAutoOpen sets AutoOpen.
func (s *Shell) WithAutoOpen(en bool) *Shell {
	s.AutoOpen = en
	return s
}

// Open opens a link on url and starts its loop, replacing the current link.
func (s *Shell) Open(url string) error {
	ep, err := s.Config.NewEndpoint(url, url)
	if err != nil {
		return err
	}
	ep.Handler = link.HandleFrameFunc(s.printFrame)
	ll := &LinkLoop{
		URL:      url,
		Loop:     fx.NewLoop().Add(ep),
		Endpoint: ep,
		doneCh:   make(chan struct{}),
	}
	var ctx context.Context
	ctx, ll.Cancel = context.WithCancel(context.Background())
	s.Close()
	s.Link = ll
	go func() {
		defer close(ll.doneCh)
		if err := ll.Loop.Run(ctx); err != nil && err != context.Canceled {
			s.Shell.Printf("link %s stopped: %v\n", url, err)
		}
		ep.Close()
	}()
	s.Shell.SetPrompt(fmt.Sprintf("%s > ", url))
	return nil
}

// Close closes the current link.
func (s *Shell) Close() {
	if ll := s.Link; ll != nil {
		ll.Cancel()
		<-ll.doneCh
		s.Link = nil
		s.Shell.SetPrompt(closedPrompt)
	}
}

func (s *Shell) printFrame(ctx context.Context, payload []byte) {
	if s.OutputJSON {
		out, _ := json.Marshal(map[string]string{"rx": hex.EncodeToString(payload)})
		s.Shell.Println(string(out))
		return
	}
	s.Shell.Println("RX " + FormatFrame(payload))
}

// Run runs the shell.
func (s *Shell) Run(args ...string) {
	if s.AutoOpen && s.Config.LinkURL != "" {
		if s.Interactive {
			s.Shell.Printf("Opening %s ...\n", s.Config.LinkURL)
		}
		if err := s.Open(s.Config.LinkURL); err != nil {
			log.Fatalf("open %q failed: %v", s.Config.LinkURL, err)
		}
	}
	defer s.Close()

	if len(args) > 0 {
		if err := s.Shell.Process(args...); err != nil {
			log.Fatalln(err)
		}
		return
	}
	if s.Interactive {
		s.Shell.Run()
		return
	}
	log.Fatalln("command expected")
}

var (
	// OpenCmd opens a link.
	OpenCmd = ishell.Cmd{
		Name:    "open",
		Aliases: []string{"o"},
		Help:    "URL",
		Func: func(c *ishell.Context) {
			if len(c.Args) < 1 {
				c.Err(fmt.Errorf("URL required"))
				return
			}
			if err := ShellFrom(c).Open(c.Args[0]); err != nil {
				c.Err(err)
			}
		},
	}

	// CloseCmd closes the current link.
	CloseCmd = ishell.Cmd{
		Name: "close",
		Help: "",
		Func: func(c *ishell.Context) {
			ShellFrom(c).Close()
		},
	}

	// StatusCmd shows the current link.
	StatusCmd = ishell.Cmd{
		Name: "status",
		Help: "",
		Func: MustBeOpen(func(c *ishell.Context) {
			s := ShellFrom(c)
			ep := s.Link.Endpoint
			status := struct {
				URL    string `json:"url"`
				Queued int    `json:"queued"`
				Idle   bool   `json:"idle"`
				FCS    bool   `json:"fcs"`
			}{
				URL:    s.Link.URL,
				Queued: ep.Stats().Queued,
				Idle:   ep.Idle(),
				FCS:    ep.Options().FCS,
			}
			if s.OutputJSON {
				s.Print(c, status)
				return
			}
			c.Printf("%s queued=%d idle=%v fcs=%v\n", status.URL, status.Queued, status.Idle, status.FCS)
		}),
	}

	// ResetCmd abandons frames in flight.
	ResetCmd = ishell.Cmd{
		Name: "reset",
		Help: "",
		Func: MustBeOpen(func(c *ishell.Context) {
			ShellFrom(c).Link.Endpoint.Reset()
		}),
	}
)

// Main is a helper to provide a single call in main.
func Main() {
	flag.Parse()
	New(env.NewConfig()).WithAutoOpen(true).Run(flag.Args()...)
}
