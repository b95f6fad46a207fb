package calc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsMathExpr(t *testing.T) {
	valid := []string{
		"2.0+2,0", "3*3", "4/4", "5-5", "1**1", "6//6", "7%7", ")8(8", "9^9",
		"2.0 + 2, 2", "3 * 3", "4 /4", "5- 5", "1* *1", "6    //6", "7%   7",
		") 8(    8", "9^ 9", "   ", "\t1\n+\r2",
	}
	for _, message := range valid {
		t.Run("valid "+message, func(t *testing.T) {
			assert.True(t, IsMathExpr(message))
		})
	}

	invalid := []string{
		"2 + 2f", "3 kk* 3", "4 !/4", "5- ?5", "1* nana*1", "word",
		"another word", "", "2 = 2", "1e5", "٣+1", "½",
	}
	for _, message := range invalid {
		t.Run("invalid "+message, func(t *testing.T) {
			assert.False(t, IsMathExpr(message))
		})
	}
}

func TestAreBracketsAgreed(t *testing.T) {
	tests := []struct {
		name     string
		messages []string
		expected bool
	}{
		{
			name:     "balanced",
			messages: []string{"(2 + 2f)", "3 kk* (3)", "((4) !/(4))", "(5)- ?(5)", "1* nana*1", "word", "another word", ""},
			expected: true,
		},
		{
			name:     "more opening",
			messages: []string{"((2 + 2f)", "(3 kk* (3)", "(((4) !/(4))", "((5)- ?(5)", "1* nana*(1", "(word", "another (word", "("},
			expected: false,
		},
		{
			name:     "more closing",
			messages: []string{"(2) + 2f)", "3) kk* (3)", "((4) !/(4)))", "(5))- ?(5)", ")1* nana*1", "word)", "another) word", ")"},
			expected: false,
		},
		{
			name:     "close before open",
			messages: []string{")2 + 2f(", "3 kk* )3(", "((4) !/)4)(", ")5(- ?(5)"},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, message := range tt.messages {
				assert.Equal(t, tt.expected, AreBracketsAgreed(message), "message %q", message)
			}
		})
	}
}
