package calculator

import (
	"errors"
	"fmt"

	"TickerBot/internal/model"
)

// ErrInvalidInput is returned when an input makes a formula undefined.
var ErrInvalidInput = errors.New("invalid input")

// GrahamValue computes V = EPS × (8.5 + 2g) × (4.4 / Y), rounded to 2 decimals.
// g and Y are in percent.
func GrahamValue(eps, growthPercent, bondYieldPercent float64) (*model.GrahamValue, error) {
	if bondYieldPercent == 0 {
		return nil, fmt.Errorf("%w: bond yield must not be zero", ErrInvalidInput)
	}
	v := eps * (8.5 + 2*growthPercent) * (4.4 / bondYieldPercent)
	return &model.GrahamValue{
		EPS:              eps,
		GrowthPercent:    growthPercent,
		BondYieldPercent: bondYieldPercent,
		Value:            Round2(v),
	}, nil
}
