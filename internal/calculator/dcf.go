package calculator

import (
	"math"

	"TickerBot/internal/model"
)

// EarningsDCF projects EPS for five years at the growth rate, prices each year at the
// fair P/E and discounts it back at the desired return.
func EarningsDCF(in model.ValuationInput) *model.Valuation {
	multiple := in.YieldOrMultiple
	return project(model.ModeEarnings, in, func(perShare float64) float64 {
		return multiple * perShare
	})
}

// FreeCashFlowDCF is EarningsDCF with FCF per share priced at a target FCF yield (percent).
// A zero yield is not guarded; the result carries +Inf.
func FreeCashFlowDCF(in model.ValuationInput) *model.Valuation {
	yield := in.YieldOrMultiple / 100
	return project(model.ModeFreeCashFlow, in, func(perShare float64) float64 {
		return perShare / yield
	})
}

func project(mode model.ValuationMode, in model.ValuationInput, priceOf func(float64) float64) *model.Valuation {
	growth := fraction(in.GrowthRatePercent)
	discount := fraction(in.DesiredReturnPercent)

	perShare := in.PerShare
	values := make([]float64, 0, model.ProjectionYears)
	var price float64
	for year := 1; year <= model.ProjectionYears; year++ {
		perShare *= 1 + growth
		price = priceOf(perShare)
		values = append(values, Round2(price/math.Pow(1+discount, float64(year))))
	}

	return &model.Valuation{
		Mode:             mode,
		Input:            in,
		YearlyValues:     values,
		TerminalPrice:    price,
		AnnualizedReturn: (math.Pow(price/in.CurrentPrice, 1.0/model.ProjectionYears) - 1) * 100,
		EntryPrice:       values[len(values)-1],
	}
}
