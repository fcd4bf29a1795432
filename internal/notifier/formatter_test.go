package notifier

import (
	"strings"
	"testing"
	"time"

	"TickerBot/internal/calculator"
	"TickerBot/internal/model"
)

func TestFormatValuation(t *testing.T) {
	v := calculator.EarningsDCF(model.ValuationInput{CurrentPrice: 100, PerShare: 5, GrowthRatePercent: 10, YieldOrMultiple: 20, DesiredReturnPercent: 8})
	msg := FormatValuation("nvda", v)
	for _, want := range []string{"Earnings-Based", "NVDA", "101.85", "$ 109.61", "10.00%", "PE Ratio", "Year | Fair Value"} {
		if !strings.Contains(msg, want) {
			t.Errorf("missing %q in:\n%s", want, msg)
		}
	}

	fcf := calculator.FreeCashFlowDCF(model.ValuationInput{CurrentPrice: 100, PerShare: 5, GrowthRatePercent: 10, YieldOrMultiple: 5, DesiredReturnPercent: 8})
	if msg := FormatValuation("nvda", fcf); !strings.Contains(msg, "FCF Yield") || !strings.Contains(msg, "5.00%") {
		t.Errorf("fcf message:\n%s", msg)
	}
}

func TestFormatStock_EscapesAndFillsGaps(t *testing.T) {
	msg := FormatStock(&model.StockInfo{
		Ticker:        "AT&T",
		LongName:      "<script>",
		Price:         "17.2",
		SupportLevels: []string{"16", "15"},
		SMADay:        []string{"17.0"},
	})
	if strings.Contains(msg, "<script>") || !strings.Contains(msg, "&lt;script&gt;") || !strings.Contains(msg, "AT&amp;T") {
		t.Errorf("not escaped:\n%s", msg)
	}
	for _, want := range []string{"Level 1: 16", "50D   : 17.0", "No data"} {
		if !strings.Contains(msg, want) {
			t.Errorf("missing %q in:\n%s", want, msg)
		}
	}
}

func TestFormatGraham(t *testing.T) {
	g, _ := calculator.GrahamValue(10, 7.61, 5.25)
	msg := FormatGraham("aapl", &model.Quote{Symbol: "AAPL", Price: 150, DisplayName: "Apple"}, g)
	if !strings.Contains(msg, "198.80") || !strings.Contains(msg, "Apple") || !strings.Contains(msg, "Margin of safety") {
		t.Errorf("message:\n%s", msg)
	}
	if msg := FormatGraham("aapl", nil, g); strings.Contains(msg, "Margin") {
		t.Errorf("margin without price:\n%s", msg)
	}
}

func TestFormatPortfolio(t *testing.T) {
	rows := []model.PortfolioRow{
		{Ticker: "NVDA", Price: "181.5", Support: [4]string{"170", "", "150", ""}, Note: "core"},
		{Ticker: "AMD", Price: "n/a"},
		{Ticker: "TSM"},
	}
	msg := FormatPortfolio(rows, 2)
	for _, want := range []string{"Price : 181.50", "S2    : -", "Price : n/a", "and 1 more"} {
		if !strings.Contains(msg, want) {
			t.Errorf("missing %q in:\n%s", want, msg)
		}
	}
	if strings.Contains(msg, "TSM") {
		t.Error("row limit ignored")
	}
}

func TestFormatDigest(t *testing.T) {
	at := time.Date(2025, 3, 4, 9, 0, 0, 0, time.UTC)
	msg := FormatDigest(at, []*model.Quote{{Symbol: "NVDA", Price: 181.5, Currency: "USD"}}, []string{"XXXX"})
	if !strings.Contains(msg, "2025-03-04") || !strings.Contains(msg, "181.50") || !strings.Contains(msg, "Unavailable: XXXX") {
		t.Errorf("digest:\n%s", msg)
	}
}

func TestChartCaption(t *testing.T) {
	req := model.ChartRequest{Ticker: "NVDA", Interval: model.IntervalWeekly}
	if c := ChartCaption(req, &model.ChartImage{Complete: true}); c != "<b>NVDA</b> Chart (W)" {
		t.Errorf("caption = %q", c)
	}
	if c := ChartCaption(req, &model.ChartImage{}); !strings.Contains(c, "still have been loading") {
		t.Errorf("caption = %q", c)
	}
}
