package calc

import (
	"strconv"
	"strings"
)

// Kind identifies what a Token stands for
type Kind int

const (
	// Operand is a numeric literal
	Operand Kind = iota
	// Add is binary addition
	Add
	// Sub is binary subtraction
	Sub
	// Mult is multiplication
	Mult
	// Div is division
	Div
	// Rem is the floating-point remainder, sign of the dividend
	Rem
	// Exp is exponentiation
	Exp
	// Bracket marks an open parenthesis on the converter's operator stack.
	// It never appears in a finished postfix sequence.
	Bracket
)

// String returns the symbol of the kind
func (k Kind) String() string {
	switch k {
	case Operand:
		return "operand"
	case Add:
		return "+"
	case Sub:
		return "-"
	case Mult:
		return "*"
	case Div:
		return "/"
	case Rem:
		return "%"
	case Exp:
		return "^"
	case Bracket:
		return "("
	default:
		return "unknown"
	}
}

// Priority returns the binding strength of an operator kind.
// Bracket and Operand have priority 0 so they are never popped by an operator.
func (k Kind) Priority() int {
	switch k {
	case Add, Sub:
		return 1
	case Mult, Div, Rem:
		return 2
	case Exp:
		return 3
	default:
		return 0
	}
}

// IsOperator reports whether the kind is one of the six arithmetic operators
func (k Kind) IsOperator() bool {
	return k >= Add && k <= Exp
}

// kindForSymbol maps an operator character to its kind
func kindForSymbol(ch rune) (Kind, bool) {
	switch ch {
	case '+':
		return Add, true
	case '-':
		return Sub, true
	case '*':
		return Mult, true
	case '/':
		return Div, true
	case '%':
		return Rem, true
	case '^':
		return Exp, true
	default:
		return 0, false
	}
}

// Token is one element of a postfix sequence
type Token struct {
	Kind  Kind
	Value float64 // only meaningful for Operand
}

// Num returns an operand token
func Num(v float64) Token {
	return Token{Kind: Operand, Value: v}
}

// Op returns an operator token
func Op(k Kind) Token {
	return Token{Kind: k}
}

// String renders the token the way it appears in RPN
func (t Token) String() string {
	if t.Kind == Operand {
		return strconv.FormatFloat(t.Value, 'f', -1, 64)
	}
	return t.Kind.String()
}

// FormatSequence renders a postfix sequence as space separated RPN
func FormatSequence(seq []Token) string {
	parts := make([]string, len(seq))
	for i, tok := range seq {
		parts[i] = tok.String()
	}
	return strings.Join(parts, " ")
}
