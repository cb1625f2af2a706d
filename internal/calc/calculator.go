// Package calc implements the French notarial fee and duty arithmetic. Every function is
// pure: the same input and tables always give the same result, and nothing is rounded
// before display.
package calc

import (
	"errors"

	"notaria-engine/internal/rates"
)

var ErrMissingAmount = errors.New("principal amount is missing or not numeric")

// Calculator resolves deed types, departments and relations against injected tables
// before running the pure computations.
type Calculator struct {
	tables *rates.Tables
}

func New(tables *rates.Tables) *Calculator {
	return &Calculator{tables: tables}
}

func (c *Calculator) Tables() *rates.Tables {
	return c.tables
}
