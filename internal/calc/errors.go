package calc

// ErrorType enumerates the ways an evaluation can fail
type ErrorType int

const (
	// NotMathExpr means the input holds characters outside the arithmetic set,
	// or the postfix sequence reduced to nothing
	NotMathExpr ErrorType = iota
	// BracketsNotAgreed means parentheses are unbalanced or a close precedes its open
	BracketsNotAgreed
	// OperandNotNumber means a digit run did not parse or was too long
	OperandNotNumber
	// MissedOperation means two operands were left without an operator
	MissedOperation
	// MissedOperand means an operator had fewer than two operands available
	MissedOperand
	// UnknownError covers malformed postfix sequences the checks above cannot produce
	UnknownError
)

var errorMessages = map[ErrorType]string{
	NotMathExpr:       "Input is not a mathematical expression.",
	BracketsNotAgreed: "Brackets in the expression are not agreed.",
	OperandNotNumber:  "One of operands is not a correct number.",
	MissedOperation:   "Missed operation.",
	MissedOperand:     "Missed operand.",
	UnknownError:      "Unknown error.",
}

var errorNames = map[ErrorType]string{
	NotMathExpr:       "not_math_expr",
	BracketsNotAgreed: "brackets_not_agreed",
	OperandNotNumber:  "operand_not_number",
	MissedOperation:   "missed_operation",
	MissedOperand:     "missed_operand",
	UnknownError:      "unknown_error",
}

// Message returns the fixed human readable text of the error type
func (t ErrorType) Message() string {
	if msg, ok := errorMessages[t]; ok {
		return msg
	}
	return errorMessages[UnknownError]
}

// String returns a stable snake_case identifier, used in storage and JSON
func (t ErrorType) String() string {
	if name, ok := errorNames[t]; ok {
		return name
	}
	return errorNames[UnknownError]
}

// ParseErrorType is the inverse of ErrorType.String
func ParseErrorType(s string) (ErrorType, bool) {
	for t, name := range errorNames {
		if name == s {
			return t, true
		}
	}
	return UnknownError, false
}

// Error is returned by every stage of the pipeline
type Error struct {
	Type ErrorType
}

func (e *Error) Error() string {
	return e.Type.Message()
}

// Is matches any *Error of the same type, so callers can use errors.Is with the sentinels below
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Type == e.Type
}

// Sentinel errors, one per ErrorType
var (
	ErrNotMathExpr       = &Error{Type: NotMathExpr}
	ErrBracketsNotAgreed = &Error{Type: BracketsNotAgreed}
	ErrOperandNotNumber  = &Error{Type: OperandNotNumber}
	ErrMissedOperation   = &Error{Type: MissedOperation}
	ErrMissedOperand     = &Error{Type: MissedOperand}
	ErrUnknown           = &Error{Type: UnknownError}
)

// NewError returns the sentinel for t
func NewError(t ErrorType) *Error {
	switch t {
	case NotMathExpr:
		return ErrNotMathExpr
	case BracketsNotAgreed:
		return ErrBracketsNotAgreed
	case OperandNotNumber:
		return ErrOperandNotNumber
	case MissedOperation:
		return ErrMissedOperation
	case MissedOperand:
		return ErrMissedOperand
	default:
		return ErrUnknown
	}
}
