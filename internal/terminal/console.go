package terminal

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/chzyer/readline"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const (
	clearScreen = "\x1b[H\x1b[2J"
	red         = "\x1b[31m"
	yellow      = "\x1b[33m"
	green       = "\x1b[32m"
	reset       = "\x1b[0m"
)

// LineReader reads one line of user input at a time, readline.Instance being
// the implementation used outside of tests.
type LineReader interface {
	Readline() (string, error)
	Close() error
}

// Console presents messages on a character terminal, reading input lines
// with readline whenever input is requested.
type Console struct {
	out    io.Writer
	reader LineReader

	mu     sync.Mutex
	inputs chan Message
	ended  bool
}

// NewConsole creates a console writing to out and reading from in.
func NewConsole(out io.Writer, in io.ReadCloser) (*Console, error) {
	instance, err := readline.NewEx(&readline.Config{
		Prompt:                 "> ",
		Stdin:                  in,
		Stdout:                 out,
		DisableAutoSaveHistory: true,
	})

	if err != nil {
		return nil, errors.Wrap(err, "failed to create console line reader")
	}

	return NewConsoleWithReader(out, instance), nil
}

func NewConsoleWithReader(out io.Writer, reader LineReader) *Console {
	return &Console{
		out:    out,
		reader: reader,
		inputs: make(chan Message, 1),
	}
}

func (c *Console) Send(message Message) error {
	var err error

	switch message.Type {
	case Clear:
		_, err = io.WriteString(c.out, clearScreen)
	case Output:
		_, err = io.WriteString(c.out, withNewline(message.Text))
	case Error:
		_, err = fmt.Fprintf(c.out, "%s%s%s\n", red, message.Text, reset)
	case Info:
		_, err = fmt.Fprintf(c.out, "%s%s%s\n", yellow, message.Text, reset)
	case Complete:
		_, err = fmt.Fprintf(c.out, "%sprogram finished%s\n", green, reset)
	case InputRequest:
		go c.readLine()
	case Input:
		// only ever travels from the console to the orchestrator
	default:
		log.Warn().Str("type", string(message.Type)).Msg("unknown terminal message")
	}

	return err
}

func (c *Console) Inputs() <-chan Message { return c.inputs }

func (c *Console) Close() error {
	return c.reader.Close()
}

// readLine answers one input request. Once the reader is exhausted the
// inputs channel is closed and later requests are ignored.
func (c *Console) readLine() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.ended {
		return
	}

	line, err := c.reader.Readline()

	if err != nil {
		if err != io.EOF && err != readline.ErrInterrupt {
			log.Error().Err(err).Msg("failed to read console input")
		}

		c.ended = true
		close(c.inputs)

		return
	}

	c.inputs <- InputMessage(line)
}

func withNewline(text string) string {
	if strings.HasSuffix(text, "\n") {
		return text
	}

	return text + "\n"
}
