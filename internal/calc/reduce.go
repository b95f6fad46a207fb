package calc

import "math"

// Reduce evaluates a postfix sequence by repeated left-to-right sweeps.
//
// A sweep keeps the two most recent unconsumed operands. The first operator
// it meets is applied to them and the result takes their place; every token
// after that is copied unchanged into the next sweep's sequence. Sweeps
// repeat until a single token is left.
func Reduce(seq []Token) (float64, error) {
	for {
		next, err := sweep(seq)
		if err != nil {
			return 0, err
		}

		if len(next) > 1 {
			seq = next
			continue
		}
		if len(next) == 0 {
			return 0, ErrNotMathExpr
		}
		if next[0].Kind != Operand {
			return 0, ErrUnknown
		}
		return next[0].Value, nil
	}
}

func sweep(seq []Token) ([]Token, error) {
	next := make([]Token, 0, len(seq))

	var (
		left, right       float64
		hasLeft, hasRight bool
		consumed          bool
	)

	for _, tok := range seq {
		if consumed {
			next = append(next, tok)
			continue
		}

		if tok.Kind == Operand {
			switch {
			case !hasLeft:
				left, hasLeft = tok.Value, true
			case !hasRight:
				right, hasRight = tok.Value, true
			default:
				next = append(next, Num(left))
				left, right = right, tok.Value
			}
			continue
		}

		if !hasLeft || !hasRight {
			return nil, ErrMissedOperand
		}
		value, err := apply(tok.Kind, left, right)
		if err != nil {
			return nil, err
		}
		next = append(next, Num(value))
		hasLeft, hasRight = false, false
		consumed = true
	}

	switch {
	case hasLeft && hasRight:
		return nil, ErrMissedOperation
	case hasLeft:
		next = append(next, Num(left))
	}

	return next, nil
}

func apply(kind Kind, left, right float64) (float64, error) {
	switch kind {
	case Add:
		return left + right, nil
	case Sub:
		return left - right, nil
	case Mult:
		return left * right, nil
	case Div:
		return left / right, nil
	case Rem:
		return math.Mod(left, right), nil
	case Exp:
		return math.Pow(left, right), nil
	default:
		return 0, ErrUnknown
	}
}
