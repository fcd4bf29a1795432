package calculator

import (
	"errors"
	"fmt"
	"math"

	"TickerBot/internal/model"
)

// TradingDaysPerYear is the lookback used for the 52-week range.
const TradingDaysPerYear = 252

// ErrShortHistory means the series is too short for the requested window.
var ErrShortHistory = errors.New("not enough history")

func checkWindow(n, need, period int) error {
	if period <= 0 {
		return fmt.Errorf("period must be positive, got %d", period)
	}
	if n < need {
		return fmt.Errorf("%w: %d points for period %d", ErrShortHistory, n, period)
	}
	return nil
}

// Closes extracts closing prices from bars, oldest first.
func Closes(bars []model.OHLCV) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Close
	}
	return out
}

// SMA is the mean of the last period closes.
func SMA(closes []float64, period int) (float64, error) {
	if err := checkWindow(len(closes), period, period); err != nil {
		return 0, err
	}
	var sum float64
	for _, c := range closes[len(closes)-period:] {
		sum += c
	}
	return sum / float64(period), nil
}

// wilder keeps Wilder's running averages of gains and losses.
type wilder struct {
	period         float64
	gain, loss     float64
	seeded, warmup int
}

func (w *wilder) add(change float64) {
	up, down := math.Max(change, 0), math.Max(-change, 0)
	if w.seeded < w.warmup {
		w.gain += up / w.period
		w.loss += down / w.period
		w.seeded++
		return
	}
	w.gain = (w.gain*(w.period-1) + up) / w.period
	w.loss = (w.loss*(w.period-1) + down) / w.period
}

func (w *wilder) value() float64 {
	if w.loss == 0 {
		return 100
	}
	return 100 - 100/(1+w.gain/w.loss)
}

// RSI is the Wilder-smoothed relative strength index. It needs period+1 closes.
func RSI(closes []float64, period int) (float64, error) {
	if err := checkWindow(len(closes), period+1, period); err != nil {
		return 0, err
	}
	w := &wilder{period: float64(period), warmup: period}
	for i := 1; i < len(closes); i++ {
		w.add(closes[i] - closes[i-1])
	}
	return w.value(), nil
}

// HighLow returns the highest high and lowest low over the most recent lookback bars.
// A shorter series uses every bar it has.
func HighLow(bars []model.OHLCV, lookback int) (high, low float64, err error) {
	if err := checkWindow(len(bars), 1, lookback); err != nil {
		return 0, 0, err
	}
	high, low = math.Inf(-1), math.Inf(1)
	for _, b := range bars[max(len(bars)-lookback, 0):] {
		high = math.Max(high, b.High)
		low = math.Min(low, b.Low)
	}
	return high, low, nil
}
