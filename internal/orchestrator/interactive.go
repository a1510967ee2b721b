package orchestrator

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	"cpp-scratchpad/internal/result"
	"cpp-scratchpad/internal/terminal"
)

const (
	loopStartedNotice = "Entering loop input mode, the program runs again after every line you enter."
	loopUsageNotice   = "Enter the input and press Enter, type exit to end."
	loopNextNotice    = "Enter the next input, or type exit to end."
	loopEndedNotice   = "Loop input mode ended."

	exitCommand = "exit"
)

// ReadsInput reports whether the program reads standard input.
func ReadsInput(source string) bool {
	return strings.Contains(source, "cin")
}

// Run is the single entry point of a host. A program that reads standard
// input but was given none runs interactively, everything else runs once.
func (o *Orchestrator) Run(ctx context.Context, req *result.CompileRequest, presenter terminal.Presenter) error {
	if req.Stdin == "" && ReadsInput(req.SourceText) {
		return o.RunInteractive(ctx, req.SourceText, req.FileName, presenter)
	}

	if req.Stdin == "" {
		if err := presenter.Send(terminal.ClearMessage()); err != nil {
			return errors.Wrap(err, "failed to clear terminal")
		}
	}

	outcome, err := o.CompileAndRun(ctx, req)

	if err != nil {
		return reportError(presenter, err)
	}

	return terminal.Render(presenter, outcome, false)
}

// RunInteractive compiles the program with no input first and stops at a
// compile failure. Every line entered afterwards runs the program again with
// only that line as its input, until the user types exit or the input ends.
func (o *Orchestrator) RunInteractive(ctx context.Context, source, fileName string, presenter terminal.Presenter) error {
	if err := presenter.Send(terminal.ClearMessage()); err != nil {
		return errors.Wrap(err, "failed to clear terminal")
	}

	outcome, err := o.CompileAndRun(ctx, &result.CompileRequest{SourceText: source, FileName: fileName})

	if err != nil {
		return reportError(presenter, err)
	}

	if _, failed := outcome.Compile.(*result.CompileFailure); failed {
		return terminal.Render(presenter, outcome, true)
	}

	for _, notice := range []string{loopStartedNotice, loopUsageNotice} {
		if err := presenter.Send(terminal.InfoMessage(notice)); err != nil {
			return errors.Wrap(err, "failed to send loop notice")
		}
	}

	for {
		line, ok, err := requestInput(ctx, presenter)

		if err != nil {
			return err
		}

		if !ok || strings.ToLower(strings.TrimSpace(line)) == exitCommand {
			return presenter.Send(terminal.InfoMessage(loopEndedNotice))
		}

		outcome, err := o.CompileAndRun(ctx, &result.CompileRequest{
			SourceText: source,
			Stdin:      line + "\n",
			FileName:   fileName,
		})

		if err != nil {
			return reportError(presenter, err)
		}

		if err := terminal.Render(presenter, outcome, true); err != nil {
			return err
		}

		if _, failed := outcome.Compile.(*result.CompileFailure); failed {
			return nil
		}

		if err := presenter.Send(terminal.InfoMessage(loopNextNotice)); err != nil {
			return errors.Wrap(err, "failed to send loop notice")
		}
	}
}

// requestInput asks the presenter for a line. ok is false once the presenter
// can no longer deliver input.
func requestInput(ctx context.Context, presenter terminal.Presenter) (string, bool, error) {
	if err := presenter.Send(terminal.InputRequestMessage()); err != nil {
		return "", false, errors.Wrap(err, "failed to request input")
	}

	for {
		select {
		case message, open := <-presenter.Inputs():
			if !open {
				return "", false, nil
			}

			if message.Type == terminal.Input {
				return message.Data, true, nil
			}
		case <-ctx.Done():
			return "", false, ctx.Err()
		}
	}
}

func reportError(presenter terminal.Presenter, err error) error {
	_ = presenter.Send(terminal.ClearMessage())
	_ = presenter.Send(terminal.ErrorMessage("error: " + err.Error()))

	return err
}
