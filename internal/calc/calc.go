// Package calc evaluates arithmetic expressions typed as free-form text.
//
// Evaluation runs in three stages: a lexical check of the input
// (IsMathExpr, AreBracketsAgreed), conversion to a postfix sequence
// (Convert) and reduction of that sequence to a number (Reduce). Every
// stage is pure, so all functions are safe for concurrent use.
package calc

// TryCalculate validates text, converts it to postfix and reduces it.
// The returned error is always a *Error.
func TryCalculate(text string) (float64, error) {
	if !IsMathExpr(text) {
		return 0, ErrNotMathExpr
	}
	if !AreBracketsAgreed(text) {
		return 0, ErrBracketsNotAgreed
	}

	seq, err := Convert(text)
	if err != nil {
		return 0, err
	}
	return Reduce(seq)
}
