package calc

import "unicode"

// IsMathExpr reports whether text is non-empty and made only of ASCII digits,
// whitespace, the operators + - * / % ^, parentheses and the decimal
// separators '.' and ','. Operator placement and number shape are not checked.
func IsMathExpr(text string) bool {
	if text == "" {
		return false
	}
	for _, ch := range text {
		if !isMathRune(ch) {
			return false
		}
	}
	return true
}

func isMathRune(ch rune) bool {
	switch {
	case ch >= '0' && ch <= '9':
		return true
	case unicode.IsSpace(ch):
		return true
	}
	switch ch {
	case '+', '-', '*', '/', '%', '^', '(', ')', '.', ',':
		return true
	}
	return false
}

// AreBracketsAgreed reports whether every ')' closes an earlier '(' and the
// totals match. Text without brackets always passes.
func AreBracketsAgreed(text string) bool {
	open, closed := 0, 0
	for _, ch := range text {
		switch ch {
		case '(':
			open++
		case ')':
			closed++
		}
		if closed > open {
			return false
		}
	}
	return open == closed
}
