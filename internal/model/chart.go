package model

import "fmt"

// ChartInterval is the candle period of a rendered chart.
type ChartInterval string

const (
	IntervalDaily   ChartInterval = "D"
	IntervalWeekly  ChartInterval = "W"
	IntervalMonthly ChartInterval = "M"
)

// Valid reports whether the interval is one the widget understands.
func (i ChartInterval) Valid() bool {
	switch i {
	case IntervalDaily, IntervalWeekly, IntervalMonthly:
		return true
	}
	return false
}

// ChartRequest identifies the chart to render.
type ChartRequest struct {
	Ticker   string
	Interval ChartInterval
}

// ChartImage is a captured PNG.
type ChartImage struct {
	Data     []byte
	Attempts int
	// Complete is false when no capture reached the size threshold and the last one was kept.
	Complete bool
}

// Size returns the image length in bytes.
func (c *ChartImage) Size() int { return len(c.Data) }

// FileName returns the attachment name used when sending the image.
func (r ChartRequest) FileName() string {
	return fmt.Sprintf("%s-%s-chart.png", r.Ticker, r.Interval)
}
