package sandbox

import (
	"context"
	"io"
	"time"
)

// Toolchain is the compiler toolchain the worker drives. Every invocation
// echoes its command line to the console as a `> ` banner and writes its own
// output there too, the worker alone decides whether an attempt failed.
type Toolchain interface {
	// Prepare readies the toolchain, console receives every byte written by
	// this and any later invocation.
	Prepare(ctx context.Context, console io.Writer) error

	// Dir is the host directory holding the files the toolchain reads and
	// produces. Artifacts are checked for there.
	Dir() string

	Compile(ctx context.Context, sourceFile, contents, objFile string) error
	Link(ctx context.Context, objFile, wasmOutput string) error
	Run(ctx context.Context, module, stdin string, args ...string) (*Execution, error)

	Close(ctx context.Context) error
}

// Execution describes one program run.
type Execution struct {
	ExitCode int
	Duration time.Duration
}
