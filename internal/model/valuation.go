package model

// ProjectionYears is the fixed DCF horizon.
const ProjectionYears = 5

// ValuationMode selects how the per-share figure turns into a price.
type ValuationMode string

const (
	ModeEarnings     ValuationMode = "earnings"
	ModeFreeCashFlow ValuationMode = "fcf"
)

// ValuationInput holds user supplied fundamentals. Percent fields are in percent (8 = 8%).
type ValuationInput struct {
	CurrentPrice         float64
	PerShare             float64 // EPS or FCF per share
	GrowthRatePercent    float64
	YieldOrMultiple      float64 // P/E for earnings, FCF yield percent for fcf
	DesiredReturnPercent float64
}

// Valuation is the outcome of a 5-year discounted projection.
type Valuation struct {
	Mode  ValuationMode
	Input ValuationInput
	// YearlyValues are the discounted fair values for years 1..5, rounded to 2 decimals.
	YearlyValues []float64
	// TerminalPrice is the undiscounted year-5 price at full precision.
	TerminalPrice float64
	// AnnualizedReturn is the percent return per year from CurrentPrice to TerminalPrice.
	AnnualizedReturn float64
	// EntryPrice is the price today that yields DesiredReturnPercent.
	EntryPrice float64
}

// GrahamValue is the result of the intrinsic value shortcut.
type GrahamValue struct {
	EPS              float64
	GrowthPercent    float64
	BondYieldPercent float64
	Value            float64
}
