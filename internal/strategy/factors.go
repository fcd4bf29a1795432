package strategy

import (
	"fmt"
	"math"
)

const (
	weightSMA200     = 0.35
	weightWeeklyRSI  = 0.25
	weightDailyRSI   = 0.15
	weightPosition   = 0.10
	weightTrend      = 0.15
	nearExtremeRatio = 0.01
)

func unavailable(name string, weight float64) Factor {
	return Factor{Name: name, Weight: weight, Note: "n/a"}
}

// scoreSMA200 scores how far price sits from the 200-day SMA. Below the average scores positive.
func scoreSMA200(s Snapshot) Factor {
	const name = "SMA200 deviation"
	if s.SMA200D <= 0 || s.Price <= 0 {
		return unavailable(name, weightSMA200)
	}
	deviation := (s.Price - s.SMA200D) / s.SMA200D * 100

	var score float64
	switch {
	case deviation <= -20:
		score = 2.0
	case deviation <= -10:
		score = 1.5
	case deviation <= -5:
		score = 1.0
	case deviation <= 0:
		score = 0.5
	case deviation <= 5:
		score = 0
	case deviation <= 10:
		score = -0.5
	case deviation <= 15:
		score = -1.0
	case deviation <= 20:
		score = -1.5
	default:
		score = -2.0
	}
	return Factor{Name: name, Raw: score, Weight: weightSMA200, Note: fmt.Sprintf("%+.1f%%", deviation)}
}

func rsiBand(rsi float64) float64 {
	switch {
	case rsi <= 25:
		return 2.0
	case rsi <= 30:
		return 1.5
	case rsi <= 40:
		return 1.0
	case rsi <= 45:
		return 0.5
	case rsi <= 55:
		return 0
	case rsi <= 60:
		return -0.5
	case rsi <= 70:
		return -1.0
	case rsi <= 80:
		return -1.5
	default:
		return -2.0
	}
}

func scoreRSI(name string, rsi, weight float64) Factor {
	if rsi <= 0 {
		return unavailable(name, weight)
	}
	return Factor{Name: name, Raw: rsiBand(rsi), Weight: weight, Note: fmt.Sprintf("RSI %.0f", rsi)}
}

// scorePosition scores where price sits in the 52-week range.
// Above 95% it only reaches -2 when the other factors already average below -1.
func scorePosition(s Snapshot, othersAvg float64) Factor {
	const name = "52W position"
	if s.High52W <= s.Low52W || s.Price <= 0 {
		return unavailable(name, weightPosition)
	}
	pos := (s.Price - s.Low52W) / (s.High52W - s.Low52W) * 100

	var score float64
	switch {
	case pos <= 10:
		score = 2.0
	case pos <= 20:
		score = 1.5
	case pos <= 30:
		score = 1.0
	case pos <= 40:
		score = 0.5
	case pos <= 60:
		score = 0
	case pos <= 70:
		score = -0.5
	case pos <= 80:
		score = -1.0
	case pos <= 95:
		score = -1.5
	default:
		if othersAvg < -1 {
			score = -2.0
		} else {
			score = -1.0
		}
	}
	return Factor{Name: name, Raw: score, Weight: weightPosition, Note: fmt.Sprintf("%.0f%%", pos)}
}

// scoreTrend reads weekly SMA alignment and proximity to the 30-day extremes.
// Bullish: price > SMA50W > SMA100W. Bearish: price < SMA50W < SMA100W.
func scoreTrend(s Snapshot) Factor {
	const name = "Trend"
	if s.SMA50W <= 0 || s.SMA100W <= 0 || s.Price <= 0 {
		return unavailable(name, weightTrend)
	}
	bullish := s.Price > s.SMA50W && s.SMA50W > s.SMA100W
	bearish := s.Price < s.SMA50W && s.SMA50W < s.SMA100W
	nearHigh := s.High30D > 0 && math.Abs(s.Price-s.High30D)/s.High30D < nearExtremeRatio
	nearLow := s.Low30D > 0 && math.Abs(s.Price-s.Low30D)/s.Low30D < nearExtremeRatio

	f := Factor{Name: name, Weight: weightTrend}
	switch {
	case bullish && nearHigh:
		f.Raw, f.Note = 1.5, "uptrend, 30D high"
	case bullish:
		f.Raw, f.Note = 1.0, "uptrend"
	case bearish && nearLow:
		f.Raw, f.Note = -1.0, "downtrend, 30D low"
	case bearish:
		f.Raw, f.Note = -0.5, "downtrend"
	default:
		f.Note = "range"
	}
	return f
}
