package model

import (
	"errors"
	"fmt"
)

// Currency is the closed set of currencies the ledger supports.
type Currency string

const (
	PLN Currency = "PLN"
	EUR Currency = "EUR"
)

var ErrInvalidCurrency = errors.New("currencies do not match")

// ParseCurrency converts a string code into a Currency.
func ParseCurrency(code string) (Currency, error) {
	switch Currency(code) {
	case PLN, EUR:
		return Currency(code), nil
	}
	return "", fmt.Errorf("unknown currency %q", code)
}

// Money is an immutable amount of a single currency, counted in minor
// units (grosze, cents). Arithmetic never mutates the receiver.
type Money struct {
	Amount   int64    `json:"amount"`
	Currency Currency `json:"currency"`
}

func NewMoney(amount int64, currency Currency) Money {
	return Money{Amount: amount, Currency: currency}
}

// Add returns a new Money holding the sum of both amounts.
// Mixing currencies is a domain error, never a silent conversion.
func (m Money) Add(other Money) (Money, error) {
	if m.Currency != other.Currency {
		return Money{}, ErrInvalidCurrency
	}
	return Money{Amount: m.Amount + other.Amount, Currency: m.Currency}, nil
}

// Reduce returns a new Money with the other amount subtracted. The result
// may be negative; sufficiency checks belong to the Account aggregate.
func (m Money) Reduce(other Money) (Money, error) {
	if m.Currency != other.Currency {
		return Money{}, ErrInvalidCurrency
	}
	return Money{Amount: m.Amount - other.Amount, Currency: m.Currency}, nil
}

func (m Money) String() string {
	return fmt.Sprintf("%d %s", m.Amount, m.Currency)
}
