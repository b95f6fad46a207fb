package web

import (
	"math"
	"time"

	"github.com/codefionn/calculate42/internal/service"
)

// Message types
const (
	MessageTypeResult     = "result"
	MessageTypeError      = "error"
	MessageTypeEvaluation = "evaluation" // broadcast to observers
)

// WebMessage is sent over the websocket
type WebMessage struct {
	Type       string    `json:"type"`
	Expression string    `json:"expression,omitempty"`
	Reply      string    `json:"reply,omitempty"`
	Result     *float64  `json:"result,omitempty"` // omitted for NaN and infinities
	Error      string    `json:"error,omitempty"`
	ErrorType  string    `json:"error_type,omitempty"`
	Cached     bool      `json:"cached,omitempty"`
	Source     string    `json:"source,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// CalculateRequest is the body of POST /api/calculate
type CalculateRequest struct {
	Expression string `json:"expression"`
}

// CalculateResponse is the body returned by POST /api/calculate
type CalculateResponse struct {
	Expression string   `json:"expression"`
	Result     *float64 `json:"result,omitempty"`
	Error      string   `json:"error,omitempty"`
	ErrorType  string   `json:"error_type,omitempty"`
	Reply      string   `json:"reply"`
	Cached     bool     `json:"cached"`
}

// finite returns a pointer to v, or nil when JSON cannot carry it
func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func newCalculateResponse(out service.Outcome) CalculateResponse {
	resp := CalculateResponse{
		Expression: out.Expression,
		Reply:      out.Reply(),
		Cached:     out.Cached,
	}
	if errType, failed := out.ErrorType(); failed {
		resp.Error = out.Err.Error()
		resp.ErrorType = errType.String()
	} else {
		resp.Result = finite(out.Value)
	}
	return resp
}

func newOutcomeMessage(msgType, source string, out service.Outcome) *WebMessage {
	resp := newCalculateResponse(out)
	return &WebMessage{
		Type:       msgType,
		Expression: resp.Expression,
		Reply:      resp.Reply,
		Result:     resp.Result,
		Error:      resp.Error,
		ErrorType:  resp.ErrorType,
		Cached:     resp.Cached,
		Source:     source,
		Timestamp:  time.Now().UTC(),
	}
}

// newReplyMessage answers the client that sent the expression
func newReplyMessage(out service.Outcome) *WebMessage {
	msgType := MessageTypeResult
	if !out.OK() {
		msgType = MessageTypeError
	}
	return newOutcomeMessage(msgType, "", out)
}
