// Package wire holds the JSON message shapes exchanged with the primary backend
// daemon over its websocket connection.
package wire

type MessageType string

const (
	CompileRun   MessageType = "compile-run"
	Stdout       MessageType = "stdout"
	Stderr       MessageType = "stderr"
	RunComplete  MessageType = "run-complete"
	CompileError MessageType = "compile-error"
	Error        MessageType = "error"
	RunError     MessageType = "run-error"
)

// Request is sent by the client for every compile and run.
type Request struct {
	Type MessageType `json:"type"`
	// ID correlates the streamed and terminal responses with this request. It
	// is optional for compatibility, a daemon that does not echo it is served
	// in request order.
	ID       string `json:"id,omitempty"`
	Code     string `json:"code" validate:"required,max=100000,safecode"`
	Input    string `json:"input"`
	FileName string `json:"fileName" validate:"omitempty,max=255"`
}

// Response is any message sent by the daemon. Which fields are populated
// depends on Type.
type Response struct {
	Type MessageType `json:"type"`
	ID   string      `json:"id,omitempty"`

	// stdout and stderr streaming chunks.
	Data string `json:"data,omitempty"`

	// compile-error, error and run-error.
	Message string `json:"message,omitempty"`

	// run-complete.
	Success     bool     `json:"success"`
	Output      string   `json:"output"`
	ErrorOutput string   `json:"error"`
	ExitCode    *int     `json:"exitCode,omitempty"`
	CompileTime *int64   `json:"compileTime,omitempty"`
	RunTime     *float64 `json:"runTime,omitempty"`
	TotalTime   *float64 `json:"totalTime,omitempty"`
	Memory      *int64   `json:"memory,omitempty"`
}

// IsTerminal reports whether the message ends a request/response exchange.
func (r *Response) IsTerminal() bool {
	switch r.Type {
	case RunComplete, CompileError, Error, RunError:
		return true
	default:
		return false
	}
}
