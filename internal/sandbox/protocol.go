package sandbox

// MessageID names a message exchanged between the sandbox client and its
// worker.
type MessageID string

const (
	// client -> worker
	MessageInit           MessageID = "init"
	MessageCompileLinkRun MessageID = "compileLinkRun"

	// worker -> client
	MessageInitComplete MessageID = "initComplete"
	MessageInitError    MessageID = "initError"
	MessageWrite        MessageID = "write"
	MessageError        MessageID = "error"
	MessageRunAsync     MessageID = "runAsync"
)

type Message struct {
	ID MessageID

	// The source text of a compileLinkRun, the chunk of a write or error, the
	// failure of an initError and the stage a runAsync ended in.
	Data string

	// compileLinkRun only.
	Stdin string

	// runAsync only. RunTime is in milliseconds and MemoryUsage in bytes,
	// both are zero when the run was not measured.
	RunTime     float64
	MemoryUsage int64
	HasError    bool
}

// chunkWriter turns writes into messages of the given id.
type chunkWriter struct {
	id   MessageID
	post func(Message)
}

func (w chunkWriter) Write(p []byte) (int, error) {
	if len(p) > 0 {
		w.post(Message{ID: w.id, Data: string(p)})
	}

	return len(p), nil
}
