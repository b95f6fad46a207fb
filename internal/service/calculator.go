// Package service puts the evaluation pipeline behind the surfaces that
// need it (command line, REPL, HTTP, websocket), adding input limits,
// memoization, history and logging.
package service

import (
	"context"
	"errors"
	"strconv"
	"unicode/utf8"

	"github.com/codefionn/calculate42/internal/cache"
	"github.com/codefionn/calculate42/internal/calc"
	"github.com/codefionn/calculate42/internal/consts"
	"github.com/codefionn/calculate42/internal/history"
	"github.com/codefionn/calculate42/internal/logger"
)

// Recorder persists outcomes; *history.Store implements it
type Recorder interface {
	Record(ctx context.Context, entry history.Entry) (int64, error)
}

// Options configures a Calculator. Cache and History may be nil.
type Options struct {
	Cache          *cache.Cache
	History        Recorder
	MaxInputLength int
	Logger         *logger.Logger
}

// Outcome is the result of one evaluation
type Outcome struct {
	Expression string
	Value      float64
	Err        error
	Cached     bool
}

// OK reports whether the evaluation produced a number
func (o Outcome) OK() bool {
	return o.Err == nil
}

// ErrorType returns the domain error type, or false on success
func (o Outcome) ErrorType() (calc.ErrorType, bool) {
	var calcErr *calc.Error
	if errors.As(o.Err, &calcErr) {
		return calcErr.Type, true
	}
	if o.Err != nil {
		return calc.UnknownError, true
	}
	return 0, false
}

// Reply renders the outcome the way it is shown to users: the number as a
// plain decimal, or the fixed error message.
func (o Outcome) Reply() string {
	if o.Err != nil {
		return o.Err.Error()
	}
	return FormatValue(o.Value)
}

// FormatValue renders v without exponent or trailing zeros
func FormatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Calculator evaluates expressions; it is safe for concurrent use
type Calculator struct {
	cache          *cache.Cache
	history        Recorder
	maxInputLength int
	log            *logger.Logger
}

// New creates a Calculator
func New(opts Options) *Calculator {
	maxLen := opts.MaxInputLength
	if maxLen <= 0 {
		maxLen = consts.DefaultMaxInputLength
	}
	log := opts.Logger
	if log == nil {
		log = logger.Global().WithPrefix("calc")
	}

	return &Calculator{
		cache:          opts.Cache,
		history:        opts.History,
		maxInputLength: maxLen,
		log:            log,
	}
}

// Evaluate runs text through the pipeline. source names the surface the
// text came from and is stored with the history entry.
func (c *Calculator) Evaluate(ctx context.Context, source, text string) Outcome {
	out := Outcome{Expression: text}

	switch {
	case utf8.RuneCountInString(text) > c.maxInputLength:
		out.Err = calc.ErrNotMathExpr
		c.log.Debug("rejected %d-rune input from %s", utf8.RuneCountInString(text), source)
	default:
		if entry, ok := c.cache.Get(text); ok {
			out.Value, out.Err, out.Cached = entry.Value, entry.Err, true
		} else {
			out.Value, out.Err = calc.TryCalculate(text)
			c.cache.Put(text, cache.Entry{Value: out.Value, Err: out.Err})
		}
	}

	if out.Err != nil {
		c.log.Debug("%s: %q failed: %v", source, text, out.Err)
	} else {
		c.log.Debug("%s: %q = %s (cached=%t)", source, text, FormatValue(out.Value), out.Cached)
	}

	c.record(ctx, source, out)
	return out
}

func (c *Calculator) record(ctx context.Context, source string, out Outcome) {
	if c.history == nil {
		return
	}

	entry := history.Entry{
		Expression: out.Expression,
		Result:     out.Value,
		Reply:      out.Reply(),
		Source:     source,
	}
	if errType, failed := out.ErrorType(); failed {
		entry.ErrorType = errType.String()
	}

	if _, err := c.history.Record(ctx, entry); err != nil {
		c.log.Warn("failed to record evaluation: %v", err)
	}
}
