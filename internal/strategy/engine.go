// Package strategy turns a ticker's technical snapshot into a weighted score and a one-line read.
package strategy

import "fmt"

// Snapshot is the technical state of one ticker. Zero fields mean "not computable".
type Snapshot struct {
	Price     float64
	SMA200D   float64
	SMA50W    float64
	SMA100W   float64
	DailyRSI  float64
	WeeklyRSI float64
	High52W   float64
	Low52W    float64
	High30D   float64
	Low30D    float64
}

// Factor is one scored input. Raw runs from -2 (stretched) to +2 (washed out).
type Factor struct {
	Name   string
	Raw    float64
	Weight float64
	Note   string
}

func (f Factor) Weighted() float64 { return f.Raw * f.Weight }

// Verdict is the combined read.
type Verdict struct {
	Factors []Factor
	Score   float64
	Label   string
	Warning string
}

var tiers = []struct {
	MinScore float64
	Label    string
}{
	{1.5, "Deep value zone"},
	{1.2, "Strong accumulate"},
	{0.8, "Accumulate"},
	{0.0, "Neutral"},
	{-0.8, "Extended"},
	{-1.5, "Overheated"},
}

const lowestTier = "Avoid chasing"

func label(score float64) string {
	for _, t := range tiers {
		if score >= t.MinScore {
			return t.Label
		}
	}
	return lowestTier
}

// Evaluate scores s.
func Evaluate(s Snapshot) *Verdict {
	sma := scoreSMA200(s)
	weekly := scoreRSI("Weekly RSI", s.WeeklyRSI, weightWeeklyRSI)
	daily := scoreRSI("Daily RSI", s.DailyRSI, weightDailyRSI)
	trend := scoreTrend(s)

	othersAvg := (sma.Raw + weekly.Raw + daily.Raw + trend.Raw) / 4.0
	position := scorePosition(s, othersAvg)

	v := &Verdict{Factors: []Factor{sma, weekly, daily, position, trend}}
	for _, f := range v.Factors {
		v.Score += f.Weighted()
	}
	v.Label = label(v.Score)

	if s.WeeklyRSI > 85 || s.DailyRSI > 85 {
		v.Warning = "⚠️ RSI above 85, consider taking partial profit"
	}
	return v
}

// Summary is the one-line suggestion shown on a stock card.
func (v *Verdict) Summary() string {
	return fmt.Sprintf("%s (score %+.2f)", v.Label, v.Score)
}

// Breakdown lists each available factor as "name: note (raw)".
func (v *Verdict) Breakdown() []string {
	out := make([]string, 0, len(v.Factors))
	for _, f := range v.Factors {
		if f.Note == "n/a" {
			continue
		}
		out = append(out, fmt.Sprintf("%s: %s (%+.1f)", f.Name, f.Note, f.Raw))
	}
	return out
}
