package calc

import (
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTryCalculate(t *testing.T) {
	tests := []struct {
		expr     string
		expected float64
	}{
		{"2 + 3", 5},
		{"2 3 87", 2387},
		{"2 + 3 * 4", 14},
		{"2 * 3 + 4", 10},
		{"(2 + 3) * 4", 20},
		{"2.5 + 1,5", 4},
		{"8 - 3 - 2", 3},
		{"16 / 4 / 2", 2},
		{"2 ^ 3 ^ 2", 64},
		{"10 + 5 * 2", 20},
		{"8 - 2 * 3", 2},
		{"18 / 3 + 2", 8},
		{"(8 - 2) * (5 - 3)", 12},
		{"(10 + 5) / (3 + 2)", 3},
		{"((((7))))", 7},
		{"17 % 5 * 2", 4},
		{"2 * 3 ^ 2", 18},
		{"1 - (2 - (3 - 4))", -2},
		{"0,1 + 0,2", 0.1 + 0.2},
		{"  42  ", 42},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := TryCalculate(tt.expr)
			require.NoError(t, err)
			assert.InDelta(t, tt.expected, got, 1e-9)
		})
	}
}

func TestTryCalculateErrors(t *testing.T) {
	tests := []struct {
		expr     string
		expected error
	}{
		{"not a math expression", ErrNotMathExpr},
		{"", ErrNotMathExpr},
		{"2 + x", ErrNotMathExpr},
		{"1e3", ErrNotMathExpr},
		{"(2 + 2(", ErrBracketsNotAgreed},
		{")1 + 2(", ErrBracketsNotAgreed},
		{"(1 + 2))", ErrBracketsNotAgreed},
		{"1..2 + 3", ErrOperandNotNumber},
		{"1234567890123456 + 1", ErrOperandNotNumber},
		{"2 + 3 +", ErrMissedOperand},
		{"5++3", ErrMissedOperand},
		{"-5", ErrMissedOperand},
		{"*", ErrMissedOperand},
		{"(2)(3)", ErrMissedOperation},
		{"()", ErrNotMathExpr},
		{"   ", ErrNotMathExpr},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			_, err := TryCalculate(tt.expr)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.expected)

			var calcErr *Error
			require.True(t, errors.As(err, &calcErr))
			assert.Equal(t, tt.expected.Error(), calcErr.Error())
		})
	}
}

func TestTryCalculateCharacterCheckComesFirst(t *testing.T) {
	// brackets are unbalanced too, but the foreign character wins
	_, err := TryCalculate("((a")
	assert.ErrorIs(t, err, ErrNotMathExpr)
}

func TestTryCalculateBracketCheckComesBeforeConversion(t *testing.T) {
	// the operand is malformed as well, but brackets are checked first
	_, err := TryCalculate("(1..2")
	assert.ErrorIs(t, err, ErrBracketsNotAgreed)
}

func TestTryCalculateDivisionByZero(t *testing.T) {
	got, err := TryCalculate("1 / 0")
	require.NoError(t, err)
	assert.True(t, math.IsInf(got, 1))

	got, err = TryCalculate("0 / 0")
	require.NoError(t, err)
	assert.True(t, math.IsNaN(got))
}

func TestTryCalculateIsIdempotent(t *testing.T) {
	inputs := []string{"2 + 3 * 4", "2 + 3 +", "(1", "abc", "7 % 0"}
	for _, input := range inputs {
		first, firstErr := TryCalculate(input)
		for i := 0; i < 3; i++ {
			got, err := TryCalculate(input)
			assert.Equal(t, firstErr, err, input)
			if math.IsNaN(first) {
				assert.True(t, math.IsNaN(got), input)
			} else {
				assert.Equal(t, first, got, input)
			}
		}
	}
}

func TestTryCalculateConcurrent(t *testing.T) {
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := TryCalculate("(2 + 3) * 4 - 6 / 2")
			assert.NoError(t, err)
			assert.Equal(t, 17.0, got)
		}()
	}
	wg.Wait()
}

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		err      *Error
		message  string
		name     string
		errorTyp ErrorType
	}{
		{ErrNotMathExpr, "Input is not a mathematical expression.", "not_math_expr", NotMathExpr},
		{ErrBracketsNotAgreed, "Brackets in the expression are not agreed.", "brackets_not_agreed", BracketsNotAgreed},
		{ErrOperandNotNumber, "One of operands is not a correct number.", "operand_not_number", OperandNotNumber},
		{ErrMissedOperation, "Missed operation.", "missed_operation", MissedOperation},
		{ErrMissedOperand, "Missed operand.", "missed_operand", MissedOperand},
		{ErrUnknown, "Unknown error.", "unknown_error", UnknownError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.message, tt.err.Error())
			assert.Equal(t, tt.name, tt.err.Type.String())
			assert.Same(t, tt.err, NewError(tt.errorTyp))

			parsed, ok := ParseErrorType(tt.name)
			assert.True(t, ok)
			assert.Equal(t, tt.errorTyp, parsed)

			wrapped := &Error{Type: tt.errorTyp}
			assert.ErrorIs(t, wrapped, tt.err)
		})
	}

	_, ok := ParseErrorType("bogus")
	assert.False(t, ok)
	assert.False(t, errors.Is(ErrMissedOperand, ErrMissedOperation))
}
