// Package repl runs the interactive console: one expression per line, one
// reply per expression.
package repl

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/codefionn/calculate42/internal/history"
	"github.com/codefionn/calculate42/internal/logger"
	"github.com/codefionn/calculate42/internal/service"
)

const maxLineBytes = 1 << 20

// Evaluator is the subset of *service.Calculator the loop needs
type Evaluator interface {
	Evaluate(ctx context.Context, source, text string) service.Outcome
}

// Options tunes the loop
type Options struct {
	// Prompt is written before every read; empty disables it
	Prompt string
}

// REPL reads expressions from in and writes replies to out
type REPL struct {
	calc   Evaluator
	in     io.Reader
	out    io.Writer
	prompt string
	log    *logger.Logger
}

// New creates a REPL
func New(calc Evaluator, in io.Reader, out io.Writer, opts Options) *REPL {
	return &REPL{
		calc:   calc,
		in:     in,
		out:    out,
		prompt: opts.Prompt,
		log:    logger.Global().WithPrefix("repl"),
	}
}

type line struct {
	text string
	err  error
	eof  bool
}

// Run loops until EOF, an exit command or ctx is cancelled. A clean stop
// returns nil.
func (r *REPL) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan line)
	go r.readLines(ctx, lines)

	evaluated := 0
	for {
		if err := r.writePrompt(); err != nil {
			return err
		}

		var l line
		select {
		case <-ctx.Done():
			r.log.Debug("stopped after %d expressions: %v", evaluated, ctx.Err())
			return nil
		case l = <-lines:
		}

		if l.err != nil {
			return fmt.Errorf("failed to read input: %w", l.err)
		}
		if l.eof {
			r.log.Debug("end of input after %d expressions", evaluated)
			return nil
		}

		text := strings.TrimRight(l.text, "\r")
		switch strings.TrimSpace(text) {
		case "":
			continue
		case "exit", "quit":
			return nil
		}

		out := r.calc.Evaluate(ctx, history.SourceREPL, text)
		evaluated++
		if _, err := fmt.Fprintln(r.out, out.Reply()); err != nil {
			return fmt.Errorf("failed to write reply: %w", err)
		}
	}
}

func (r *REPL) writePrompt() error {
	if r.prompt == "" {
		return nil
	}
	if _, err := io.WriteString(r.out, r.prompt); err != nil {
		return fmt.Errorf("failed to write prompt: %w", err)
	}
	return nil
}

func (r *REPL) readLines(ctx context.Context, lines chan<- line) {
	scanner := bufio.NewScanner(r.in)
	scanner.Buffer(make([]byte, 0, 4096), maxLineBytes)

	send := func(l line) bool {
		select {
		case lines <- l:
			return true
		case <-ctx.Done():
			return false
		}
	}

	for scanner.Scan() {
		if !send(line{text: scanner.Text()}) {
			return
		}
	}
	if err := scanner.Err(); err != nil {
		send(line{err: err})
		return
	}
	send(line{eof: true})
}
