package dlcf

import (
	"fmt"
	"strconv"
	"strings"
)

// CtlByteID identifies a control byte in Config.
type CtlByteID int

// Control byte identifiers every Config defines.
const (
	CtlSOF CtlByteID = iota
	CtlESC
	CtlEOF

	// NumCtlBytes is the number of mandatory control bytes.
	NumCtlBytes int = iota
)

// String implements fmt.Stringer.
func (id CtlByteID) String() string {
	switch id {
	case CtlSOF:
		return "SOF"
	case CtlESC:
		return "ESC"
	case CtlEOF:
		return "EOF"
	}
	return "CTL" + strconv.Itoa(int(id))
}

// Config is the control byte table of a channel. It is shared read-only by
// both directions and must not be modified once bound to a Channel.
type Config struct {
	// CtlBytes maps CtlByteID to the literal wire value.
	CtlBytes []byte
	// EscBytes maps CtlByteID to the substitute sent after ESC.
	EscBytes []byte
	// NumCtlEscBytes is the number of leading CtlBytes which are escaped
	// when found in a payload.
	NumCtlEscBytes int
	// StrictEscape discards a frame when the byte after ESC is not a known
	// substitute. By default the byte is stored as-is.
	StrictEscape bool
}

// DefaultConfig returns STX/DLE/ETX framing with 0x20 offset substitutes.
func DefaultConfig() *Config {
	return &Config{
		CtlBytes:       []byte{0x02, 0x10, 0x03},
		EscBytes:       []byte{0x22, 0x30, 0x23},
		NumCtlEscBytes: NumCtlBytes,
	}
}

// ParseConfig parses a comma separated list of CTL:ESC hex pairs, in
// CtlByteID order, e.g. "02:22,10:30,03:23". All listed control bytes are
// escaped. A trailing ",strict" enables StrictEscape.
func ParseConfig(s string) (*Config, error) {
	cfg := &Config{}
	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item == "strict" {
			cfg.StrictEscape = true
			continue
		}
		pair := strings.SplitN(item, ":", 2)
		if len(pair) != 2 {
			return nil, fmt.Errorf("%w: %q is not CTL:ESC", ErrInvalidConfig, item)
		}
		ctl, err := parseHexByte(pair[0])
		if err != nil {
			return nil, err
		}
		esc, err := parseHexByte(pair[1])
		if err != nil {
			return nil, err
		}
		cfg.CtlBytes = append(cfg.CtlBytes, ctl)
		cfg.EscBytes = append(cfg.EscBytes, esc)
	}
	cfg.NumCtlEscBytes = len(cfg.CtlBytes)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func parseHexByte(s string) (byte, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(strings.TrimSpace(s), "0x"), "0X")
	v, err := strconv.ParseUint(s, 16, 8)
	if err != nil {
		return 0, fmt.Errorf("%w: bad byte %q", ErrInvalidConfig, s)
	}
	return byte(v), nil
}

// String formats the escaped part of the table in ParseConfig syntax.
func (c *Config) String() string {
	items := make([]string, 0, c.NumCtlEscBytes+1)
	for i := 0; i < c.NumCtlEscBytes && i < len(c.CtlBytes) && i < len(c.EscBytes); i++ {
		items = append(items, fmt.Sprintf("%02x:%02x", c.CtlBytes[i], c.EscBytes[i]))
	}
	if c.StrictEscape {
		items = append(items, "strict")
	}
	return strings.Join(items, ",")
}

// Validate checks the table can be decoded unambiguously.
func (c *Config) Validate() error {
	if len(c.CtlBytes) < NumCtlBytes {
		return fmt.Errorf("%w: SOF, ESC and EOF are required", ErrInvalidConfig)
	}
	if c.NumCtlEscBytes < NumCtlBytes || c.NumCtlEscBytes > len(c.CtlBytes) {
		return fmt.Errorf("%w: %d escaped control bytes out of range [%d, %d]",
			ErrInvalidConfig, c.NumCtlEscBytes, NumCtlBytes, len(c.CtlBytes))
	}
	if len(c.EscBytes) < c.NumCtlEscBytes {
		return fmt.Errorf("%w: %d substitutes for %d escaped control bytes",
			ErrInvalidConfig, len(c.EscBytes), c.NumCtlEscBytes)
	}
	var ctls [256]bool
	for i, b := range c.CtlBytes {
		if ctls[b] {
			return fmt.Errorf("%w: %s=%02x is not unique", ErrInvalidConfig, CtlByteID(i), b)
		}
		ctls[b] = true
	}
	var escs [256]bool
	for i, b := range c.EscBytes[:c.NumCtlEscBytes] {
		if ctls[b] {
			return fmt.Errorf("%w: substitute %02x of %s is a control byte", ErrInvalidConfig, b, CtlByteID(i))
		}
		if escs[b] {
			return fmt.Errorf("%w: substitute %02x of %s is not unique", ErrInvalidConfig, b, CtlByteID(i))
		}
		escs[b] = true
	}
	return nil
}

// Ctl returns the wire value of a control byte.
func (c *Config) Ctl(id CtlByteID) byte {
	return c.CtlBytes[id]
}

// escapeID reports whether b must be escaped and which control byte it is.
func (c *Config) escapeID(b byte) (CtlByteID, bool) {
	for id := 0; id < c.NumCtlEscBytes; id++ {
		if c.CtlBytes[id] == b {
			return CtlByteID(id), true
		}
	}
	return 0, false
}

// unescape maps a substitute back to its control byte.
func (c *Config) unescape(b byte) (byte, bool) {
	for id := 0; id < c.NumCtlEscBytes; id++ {
		if c.EscBytes[id] == b {
			return c.CtlBytes[id], true
		}
	}
	return b, false
}
