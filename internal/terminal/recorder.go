package terminal

import (
	"sync"
)

// Recorder is a presenter that keeps every message it was sent and answers
// input requests from a fixed list of lines, closing its inputs once the
// lines run out. It backs scripted runs and tests.
type Recorder struct {
	mu       sync.Mutex
	messages []Message
	lines    []string
	inputs   chan Message
	ended    bool
}

func NewRecorder(lines ...string) *Recorder {
	return &Recorder{lines: lines, inputs: make(chan Message, 1)}
}

func (r *Recorder) Send(message Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.messages = append(r.messages, message)

	if message.Type != InputRequest || r.ended {
		return nil
	}

	if len(r.lines) == 0 {
		r.ended = true
		close(r.inputs)

		return nil
	}

	r.inputs <- InputMessage(r.lines[0])
	r.lines = r.lines[1:]

	return nil
}

func (r *Recorder) Inputs() <-chan Message { return r.inputs }

// Messages returns a copy of every message sent so far.
func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]Message(nil), r.messages...)
}

// Types returns the type of every message sent so far, in order.
func (r *Recorder) Types() []MessageType {
	messages := r.Messages()
	types := make([]MessageType, 0, len(messages))

	for _, message := range messages {
		types = append(types, message.Type)
	}

	return types
}
