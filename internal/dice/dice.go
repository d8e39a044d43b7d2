// Package dice parses and evaluates the small dice-expression language used
// by effect deltas: a string of the form `[-]?NdM([+-]K)?` terms joined by
// `+`/`-`, e.g. "1d6", "-1d4+2", "2d8-1d4+3". Evaluation uses a caller-seeded
// PRNG so rolls are reproducible given the same seed.
package dice

import (
	"fmt"
	"math/rand"
	"strconv"
	"strings"
)

// Roll is a single evaluated dice term, kept for replay/audit logging.
type Roll struct {
	// Expr is the term as written, e.g. "2d8" or "+3".
	Expr string
	// Sign is +1 or -1.
	Sign int
	// Count is the number of dice (0 for a bare constant term).
	Count int
	// Sides is the die size (0 for a bare constant term).
	Sides int
	// Constant is the flat modifier for a bare constant term.
	Constant int
	// Values holds each individual die result (empty for constant terms).
	Values []int
	// Total is Sign * (sum(Values) + Constant).
	Total int
}

// Result is the outcome of evaluating a full expression.
type Result struct {
	Expr  string
	Rolls []Roll
	Total int
}

// IsDiceExpr reports whether s looks like a dice expression (contains a
// lowercase 'd' anywhere) as opposed to a plain integer delta.
func IsDiceExpr(s string) bool {
	return strings.ContainsRune(s, 'd')
}

// Eval parses and evaluates a dice expression using rng for all random
// draws. It is pure given a deterministic rng (e.g. rand.New(rand.NewSource(seed))).
func Eval(expr string, rng *rand.Rand) (Result, error) {
	terms, err := splitTerms(expr)
	if err != nil {
		return Result{}, err
	}
	res := Result{Expr: expr}
	for _, t := range terms {
		r, err := evalTerm(t, rng)
		if err != nil {
			return Result{}, err
		}
		res.Rolls = append(res.Rolls, r)
		res.Total += r.Total
	}
	return res, nil
}

// splitTerms splits an expression like "-1d4+2-1d6" into signed terms
// ["-1d4", "+2", "-1d6"], preserving the leading sign.
func splitTerms(expr string) ([]string, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, fmt.Errorf("dice: empty expression")
	}
	var terms []string
	start := 0
	for i := 1; i < len(expr); i++ {
		if expr[i] == '+' || expr[i] == '-' {
			terms = append(terms, expr[start:i])
			start = i
		}
	}
	terms = append(terms, expr[start:])
	for i, t := range terms {
		if t[0] != '+' && t[0] != '-' {
			terms[i] = "+" + t
		}
	}
	return terms, nil
}

func evalTerm(term string, rng *rand.Rand) (Roll, error) {
	sign := 1
	body := term
	switch term[0] {
	case '+':
		body = term[1:]
	case '-':
		sign = -1
		body = term[1:]
	}
	body = strings.TrimSpace(body)
	if body == "" {
		return Roll{}, fmt.Errorf("dice: empty term in %q", term)
	}

	idx := strings.IndexByte(body, 'd')
	if idx < 0 {
		n, err := strconv.Atoi(body)
		if err != nil {
			return Roll{}, fmt.Errorf("dice: invalid constant term %q: %w", term, err)
		}
		return Roll{Expr: term, Sign: sign, Constant: n, Total: sign * n}, nil
	}

	countStr, sidesStr := body[:idx], body[idx+1:]
	count := 1
	if countStr != "" {
		n, err := strconv.Atoi(countStr)
		if err != nil {
			return Roll{}, fmt.Errorf("dice: invalid die count in %q: %w", term, err)
		}
		count = n
	}
	if count <= 0 {
		return Roll{}, fmt.Errorf("dice: die count must be positive in %q", term)
	}
	sides, err := strconv.Atoi(sidesStr)
	if err != nil || sides <= 0 {
		return Roll{}, fmt.Errorf("dice: invalid die size in %q", term)
	}

	values := make([]int, count)
	sum := 0
	for i := 0; i < count; i++ {
		v := rng.Intn(sides) + 1
		values[i] = v
		sum += v
	}
	return Roll{
		Expr:   term,
		Sign:   sign,
		Count:  count,
		Sides:  sides,
		Values: values,
		Total:  sign * sum,
	}, nil
}
