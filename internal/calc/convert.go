package calc

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/codefionn/calculate42/internal/consts"
)

// Normalize strips all whitespace and turns ',' into '.'.
// Convert works on this form; two inputs with the same normal form evaluate identically.
func Normalize(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, ch := range text {
		switch {
		case unicode.IsSpace(ch):
			continue
		case ch == ',':
			b.WriteByte('.')
		default:
			b.WriteRune(ch)
		}
	}
	return b.String()
}

// Convert turns text that passed IsMathExpr and AreBracketsAgreed into a
// postfix sequence. Operators of equal priority associate left to right,
// '^' included. Consecutive operators are passed through; the reducer
// decides whether the result makes sense.
func Convert(text string) ([]Token, error) {
	var (
		result  []Token
		temp    []Token
		operand strings.Builder
	)

	flush := func() error {
		if operand.Len() == 0 {
			return nil
		}
		tok, err := parseOperand(operand.String())
		if err != nil {
			return err
		}
		result = append(result, tok)
		operand.Reset()
		return nil
	}

	for _, ch := range Normalize(text) {
		if kind, ok := kindForSymbol(ch); ok {
			if err := flush(); err != nil {
				return nil, err
			}
			for len(temp) > 0 {
				top := temp[len(temp)-1]
				if top.Kind == Bracket || top.Kind.Priority() < kind.Priority() {
					break
				}
				result = append(result, top)
				temp = temp[:len(temp)-1]
			}
			temp = append(temp, Op(kind))
			continue
		}

		switch ch {
		case '(':
			if err := flush(); err != nil {
				return nil, err
			}
			temp = append(temp, Op(Bracket))
		case ')':
			if err := flush(); err != nil {
				return nil, err
			}
			for len(temp) > 0 {
				top := temp[len(temp)-1]
				temp = temp[:len(temp)-1]
				if top.Kind == Bracket {
					break
				}
				result = append(result, top)
			}
		default:
			// digits and '.'; the validator has ruled out anything else
			operand.WriteRune(ch)
		}
	}

	if err := flush(); err != nil {
		return nil, err
	}
	for i := len(temp) - 1; i >= 0; i-- {
		result = append(result, temp[i])
	}

	return result, nil
}

func parseOperand(s string) (Token, error) {
	if utf8.RuneCountInString(s) > consts.MaxOperandLength {
		return Token{}, ErrOperandNotNumber
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Token{}, ErrOperandNotNumber
	}
	return Num(v), nil
}
