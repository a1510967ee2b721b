// Package terminal carries compile/run outcomes to whatever is showing them to
// the user, and carries lines of input back.
package terminal

type MessageType string

const (
	Clear        MessageType = "terminal-clear"
	Output       MessageType = "terminal-output"
	Error        MessageType = "terminal-error"
	InputRequest MessageType = "terminal-input-request"
	Input        MessageType = "terminal-input"
	Complete     MessageType = "terminal-complete"
	Info         MessageType = "terminal-info"
)

type Message struct {
	Type MessageType `json:"type"`
	// Text is set on output, error and info messages.
	Text string `json:"text,omitempty"`
	// Data is the line the user typed, only set on input messages.
	Data string `json:"data,omitempty"`
	// Time is the run time in seconds and Memory the memory in bytes, both
	// only set on complete messages.
	Time   *float64 `json:"time,omitempty"`
	Memory *int64   `json:"memory,omitempty"`
}

// Presenter is the display the orchestrator renders into. Inputs delivers the
// lines the user typed in answer to an input request, the channel is closed
// once no more input can arrive.
type Presenter interface {
	Send(message Message) error
	Inputs() <-chan Message
}

func ClearMessage() Message { return Message{Type: Clear} }

func OutputMessage(text string) Message { return Message{Type: Output, Text: text} }

func ErrorMessage(text string) Message { return Message{Type: Error, Text: text} }

func InfoMessage(text string) Message { return Message{Type: Info, Text: text} }

func InputRequestMessage() Message { return Message{Type: InputRequest} }

func InputMessage(data string) Message { return Message{Type: Input, Data: data} }
