package strategy

import (
	"strings"
	"testing"
)

func factor(t *testing.T, v *Verdict, name string) Factor {
	t.Helper()
	for _, f := range v.Factors {
		if f.Name == name {
			return f
		}
	}
	t.Fatalf("no factor %q", name)
	return Factor{}
}

func TestEvaluate_NormalMarket(t *testing.T) {
	v := Evaluate(Snapshot{
		Price: 5800, SMA200D: 5700, SMA50W: 5750, SMA100W: 5600,
		WeeklyRSI: 50, DailyRSI: 50,
		High52W: 6000, Low52W: 5000, High30D: 5850, Low30D: 5700,
	})
	if len(v.Factors) != 5 {
		t.Fatalf("expected 5 factors, got %d", len(v.Factors))
	}
	if v.Warning != "" {
		t.Errorf("unexpected warning: %s", v.Warning)
	}
	if len(v.Breakdown()) != 5 {
		t.Errorf("breakdown = %v", v.Breakdown())
	}
}

func TestEvaluate_ExtremeOversold(t *testing.T) {
	v := Evaluate(Snapshot{
		Price: 4500, SMA200D: 5500, SMA50W: 5000, SMA100W: 5200,
		WeeklyRSI: 22, DailyRSI: 20,
		High52W: 6000, Low52W: 4400, High30D: 4800, Low30D: 4500,
	})
	if v.Score < 1.2 {
		t.Errorf("expected high score for oversold market, got %.3f", v.Score)
	}
	if v.Label != "Strong accumulate" {
		t.Errorf("label = %q", v.Label)
	}
	if got := factor(t, v, "Trend"); got.Raw != -1.0 {
		t.Errorf("trend = %+v, want downtrend at 30D low", got)
	}
}

func TestEvaluate_ExtremeOverbought(t *testing.T) {
	v := Evaluate(Snapshot{
		Price: 6500, SMA200D: 5500, SMA50W: 6200, SMA100W: 6000,
		WeeklyRSI: 88, DailyRSI: 90,
		High52W: 6500, Low52W: 5000, High30D: 6500, Low30D: 6200,
	})
	if v.Score > -0.5 {
		t.Errorf("expected negative score for overbought market, got %.3f", v.Score)
	}
	if v.Warning == "" {
		t.Error("expected take-profit warning for RSI > 85")
	}
	if !strings.HasPrefix(v.Summary(), v.Label+" (score -") {
		t.Errorf("summary = %q", v.Summary())
	}
}

func TestLabel_AllBoundaries(t *testing.T) {
	tests := []struct {
		score float64
		label string
	}{
		{2.0, "Deep value zone"},
		{1.5, "Deep value zone"},
		{1.3, "Strong accumulate"},
		{1.2, "Strong accumulate"},
		{1.0, "Accumulate"},
		{0.8, "Accumulate"},
		{0.5, "Neutral"},
		{0.0, "Neutral"},
		{-0.5, "Extended"},
		{-0.8, "Extended"},
		{-1.0, "Overheated"},
		{-1.5, "Overheated"},
		{-1.6, "Avoid chasing"},
		{-2.0, "Avoid chasing"},
	}
	for _, tt := range tests {
		if got := label(tt.score); got != tt.label {
			t.Errorf("score %.1f: expected %q, got %q", tt.score, tt.label, got)
		}
	}
}

func TestPosition_NonlinearTop(t *testing.T) {
	// Above 95% of the range with calm other factors: capped at -1.
	calm := Evaluate(Snapshot{
		Price: 5990, SMA200D: 5800, SMA50W: 5900, SMA100W: 5700,
		WeeklyRSI: 55, DailyRSI: 55,
		High52W: 6000, Low52W: 5000, High30D: 5990, Low30D: 5800,
	})
	if f := factor(t, calm, "52W position"); f.Raw != -1.0 {
		t.Errorf("position should cap at -1 when other factors avg >= -1, got %.1f", f.Raw)
	}

	// Same spot with stretched other factors: -2.
	hot := Evaluate(Snapshot{
		Price: 5990, SMA200D: 4800, SMA50W: 5500, SMA100W: 5700,
		WeeklyRSI: 82, DailyRSI: 82,
		High52W: 6000, Low52W: 5000, High30D: 5990, Low30D: 5800,
	})
	if f := factor(t, hot, "52W position"); f.Raw != -2.0 {
		t.Errorf("position should be -2 when other factors avg < -1, got %.1f (total=%.3f)", f.Raw, hot.Score)
	}
}

func TestTrend_BullBear(t *testing.T) {
	bull := Evaluate(Snapshot{Price: 6000, SMA200D: 5800, SMA50W: 5900, SMA100W: 5700, High30D: 6000, Low30D: 5800})
	if f := factor(t, bull, "Trend"); f.Raw != 1.5 {
		t.Errorf("expected uptrend at 30D high, got %+v", f)
	}

	bear := Evaluate(Snapshot{Price: 5000, SMA200D: 5500, SMA50W: 5200, SMA100W: 5400, High30D: 5200, Low30D: 4700})
	if f := factor(t, bear, "Trend"); f.Raw != -0.5 {
		t.Errorf("expected plain downtrend, got %+v", f)
	}
}

func TestEvaluate_MissingInputsAreNeutral(t *testing.T) {
	v := Evaluate(Snapshot{Price: 10})
	if v.Score != 0 || v.Label != "Neutral" {
		t.Errorf("score %v label %q", v.Score, v.Label)
	}
	if len(v.Breakdown()) != 0 {
		t.Errorf("breakdown should skip unavailable factors: %v", v.Breakdown())
	}
}
