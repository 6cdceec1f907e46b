package captcha

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

var (
	operandRE  = regexp.MustCompile(`[0-9]+`)
	operatorRE = regexp.MustCompile(`[+*xX-]`)
	noise      = strings.NewReplacer(".", "", "_", "", "/", "")
)

// Expression is a parsed captcha question.
type Expression struct {
	Left, Right int64
	Op          rune
}

func (e Expression) String() string {
	return fmt.Sprintf("%d %c %d", e.Left, e.Op, e.Right)
}

// Eval computes the answer. Results are always non-negative. Operands are
// expected to be non-negative, as ParseExpression produces them.
func (e Expression) Eval() (int64, error) {
	var v int64
	switch e.Op {
	case '*', 'x', 'X', '×':
		if e.Left != 0 && e.Right > math.MaxInt64/e.Left {
			return 0, fmt.Errorf("%w: %s overflows", ErrNoParse, e)
		}
		v = e.Left * e.Right
	case '+':
		if e.Left > math.MaxInt64-e.Right {
			return 0, fmt.Errorf("%w: %s overflows", ErrNoParse, e)
		}
		v = e.Left + e.Right
	case '-':
		v = e.Left - e.Right
	default:
		return 0, fmt.Errorf("%w: operator %q", ErrNoParse, e.Op)
	}
	if v < 0 {
		v = -v
	}
	return v, nil
}

// ParseExpression extracts exactly one operator and two operands from text.
// The usual layout is "12+7"; as a fallback a three character text such as
// "-27" is read operator first.
func ParseExpression(text string) (Expression, error) {
	cleaned := noise.Replace(text)

	operands := operandRE.FindAllString(cleaned, -1)
	operators := operatorRE.FindAllString(cleaned, -1)
	if len(operands) == 2 && len(operators) == 1 {
		l, errL := strconv.ParseInt(operands[0], 10, 64)
		r, errR := strconv.ParseInt(operands[1], 10, 64)
		if errL != nil || errR != nil {
			return Expression{}, fmt.Errorf("%w: operand out of range in %q", ErrNoParse, text)
		}
		op, _ := utf8.DecodeRuneInString(operators[0])
		return Expression{Left: l, Right: r, Op: op}, nil
	}

	if utf8.RuneCountInString(cleaned) == 3 {
		rs := []rune(cleaned)
		if isLeadingOperator(rs[0]) && isDigit(rs[1]) && isDigit(rs[2]) {
			return Expression{Left: int64(rs[1] - '0'), Right: int64(rs[2] - '0'), Op: rs[0]}, nil
		}
	}
	return Expression{}, fmt.Errorf("%w: %q (operands=%d operators=%d)", ErrNoParse, text, len(operands), len(operators))
}

// Solve parses and evaluates a corrected captcha text.
func Solve(text string) (int64, error) {
	e, err := ParseExpression(text)
	if err != nil {
		return 0, err
	}
	return e.Eval()
}

func isLeadingOperator(r rune) bool {
	switch r {
	case '+', '-', '*', 'x', '×':
		return true
	}
	return false
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }
