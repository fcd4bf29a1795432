package notifier

import (
	"fmt"
	"html"
	"math"
	"strconv"
	"strings"
	"time"

	"TickerBot/internal/calculator"
	"TickerBot/internal/model"
)

// Apology is the only text users see when a command fails internally.
const Apology = "⚠️ Sorry, that request could not be completed right now. Please try again later."

const noData = "No data"

var supportMarks = []string{"🟩", "🟨", "🟧", "🟥"}

// HelpEntry is one command line of the help text.
type HelpEntry struct {
	Usage       string
	Description string
}

func esc(s string) string { return html.EscapeString(s) }

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

func money(v float64) string { return calculator.Format2(v) }

// pre wraps lines in a monospace block.
func pre(lines []string) string {
	return "<pre>" + esc(strings.Join(lines, "\n")) + "</pre>"
}

// FormatQuote formats a single quote line.
func FormatQuote(q *model.Quote) string {
	name := q.DisplayName
	if name == "" {
		name = q.Symbol
	}
	return fmt.Sprintf("<b>%s</b> | %s\n%s %s", esc(q.Symbol), esc(name), money(q.Price), esc(q.Currency))
}

// FormatStock formats the stock card.
func FormatStock(info *model.StockInfo) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<b>%s</b> | %s\n", esc(info.Ticker), esc(orDash(info.LongName)))
	fmt.Fprintf(&b, "💵 <b>%s %s</b>\n", esc(orDash(info.Price)), esc(info.Currency))
	if info.Suggestion != "" {
		fmt.Fprintf(&b, "💡 %s\n", esc(info.Suggestion))
	}

	b.WriteString("\n▶ <i>Support Levels</i>\n")
	if len(info.SupportLevels) == 0 {
		b.WriteString(pre([]string{noData}))
	} else {
		lines := make([]string, len(info.SupportLevels))
		for i, v := range info.SupportLevels {
			lines[i] = fmt.Sprintf("%s Level %d: %s", supportMarks[i%len(supportMarks)], i+1, v)
		}
		b.WriteString(pre(lines))
	}

	b.WriteString("\n▶ <i>SMA (Daily)</i>\n")
	b.WriteString(pre(labelled(info.SMADay, []string{"50D", "100D", "200D"})))
	b.WriteString("\n▶ <i>SMA (Weekly)</i>\n")
	b.WriteString(pre(labelled(info.SMAWeek, []string{"50W", "100W"})))

	if info.RSI != "" {
		b.WriteString("\n▶ <i>RSI (14D)</i>\n")
		b.WriteString(pre([]string{info.RSI}))
	}

	b.WriteString("\n▶ <i>Notes</i>\n")
	if len(info.Notes) == 0 {
		b.WriteString(pre([]string{noData}))
	} else {
		b.WriteString(pre(info.Notes))
	}
	if info.Source == model.SourceYahoo {
		b.WriteString("\n<i>Computed from market data; no curated card for this ticker.</i>")
	}
	return b.String()
}

func labelled(values, labels []string) []string {
	if len(values) == 0 {
		return []string{noData}
	}
	lines := make([]string, 0, len(values))
	for i, v := range values {
		label := fmt.Sprintf("#%d", i+1)
		if i < len(labels) {
			label = labels[i]
		}
		lines = append(lines, fmt.Sprintf("%-6s: %s", label, v))
	}
	return lines
}

// FormatValuation formats a DCF result with its inputs and the yearly fair value table.
func FormatValuation(ticker string, v *model.Valuation) string {
	title, perShare, multiple := "🌱 <b>Earnings-Based Valuation</b>", "EPS", "PE Ratio"
	multipleValue := money(v.Input.YieldOrMultiple)
	if v.Mode == model.ModeFreeCashFlow {
		title, perShare, multiple = "🌱 <b>Free-Cash-Flow Valuation</b>", "FCF / Share", "FCF Yield"
		multipleValue += "%"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s | %s\n\n", title, esc(strings.ToUpper(ticker)))
	fmt.Fprintf(&b, "▶ Return from current price: <b>%s%%</b>\n", money(v.AnnualizedReturn))
	fmt.Fprintf(&b, "▶ Entry price for %s%% return: <b>$ %s</b>\n\n", money(v.Input.DesiredReturnPercent), money(v.EntryPrice))

	b.WriteString("▶ <i>Input Parameters</i>\n")
	b.WriteString(pre([]string{
		fmt.Sprintf("▪ %-16s: %s", "Current Price", money(v.Input.CurrentPrice)),
		fmt.Sprintf("▪ %-16s: %s", perShare, money(v.Input.PerShare)),
		fmt.Sprintf("▪ %-16s: %s", multiple, multipleValue),
		fmt.Sprintf("▪ %-16s: %s%%", "Growth Rate", money(v.Input.GrowthRatePercent)),
		fmt.Sprintf("▪ %-16s: %s%%", "Desired Return", money(v.Input.DesiredReturnPercent)),
	}))

	b.WriteString("\n▶ <i>Projected Fair Value</i>\n")
	rows := []string{"Year | Fair Value", "-----|-----------"}
	for i, fv := range v.YearlyValues {
		rows = append(rows, fmt.Sprintf("%-4d | $ %s", i+1, money(fv)))
	}
	b.WriteString(pre(rows))
	return b.String()
}

// FormatGraham formats the Graham value; q may be nil when the quote lookup failed.
func FormatGraham(ticker string, q *model.Quote, g *model.GrahamValue) string {
	var b strings.Builder
	name, price := "", "-"
	if q != nil {
		name = q.DisplayName
		price = money(q.Price)
	}
	fmt.Fprintf(&b, "<b>%s</b> | %s\n", esc(strings.ToUpper(ticker)), esc(orDash(name)))
	fmt.Fprintf(&b, "🟨 <b>%s</b>\n", money(g.Value))
	if q != nil && q.Price > 0 && g.Value > 0 {
		margin := (g.Value - q.Price) / g.Value * 100
		fmt.Fprintf(&b, "Margin of safety: %s%%\n", money(margin))
	}
	b.WriteString("\n▶ <i>Input Parameters</i>\n")
	b.WriteString(pre([]string{
		fmt.Sprintf("▪ %-16s: %s", "Stock Price", price),
		fmt.Sprintf("▪ %-16s: %s", "EPS", money(g.EPS)),
		fmt.Sprintf("▪ %-16s: %s%%", "EPS Growth Rate", money(g.GrowthPercent)),
		fmt.Sprintf("▪ %-16s: %s%%", "Bond Yield", money(g.BondYieldPercent)),
	}))
	b.WriteString("\n<i>🌱 Benjamin Graham Intrinsic Value</i>")
	return b.String()
}

// ChartCaption captions a chart photo.
func ChartCaption(req model.ChartRequest, img *model.ChartImage) string {
	caption := fmt.Sprintf("<b>%s</b> Chart (%s)", esc(req.Ticker), esc(string(req.Interval)))
	if img != nil && !img.Complete {
		caption += "\n<i>The chart may still have been loading.</i>"
	}
	return caption
}

// FormatPortfolio formats the portfolio as one monospace block per holding.
func FormatPortfolio(rows []model.PortfolioRow, maxRows int) string {
	if len(rows) == 0 {
		return "🤩 <b>PERSONAL PORTFOLIO</b>\n" + pre([]string{noData})
	}
	const sep = "========================="
	shown := rows
	if maxRows > 0 && len(rows) > maxRows {
		shown = rows[:maxRows]
	}

	lines := []string{sep}
	for _, r := range shown {
		lines = append(lines,
			fmt.Sprintf(" ▸ %-5s : %s", "Stock", orDash(r.Ticker)),
			fmt.Sprintf(" ▸ %-5s : %s", "Price", formatCell(r.Price)),
		)
		for i, s := range r.Support {
			lines = append(lines, fmt.Sprintf(" ▸ %-5s : %s", fmt.Sprintf("S%d", i+1), orDash(s)))
		}
		lines = append(lines, fmt.Sprintf(" ▸ %-5s : %s", "Note", orDash(r.Note)), sep)
	}
	if len(shown) < len(rows) {
		lines = append(lines, fmt.Sprintf("... and %d more", len(rows)-len(shown)))
	}
	return "🤩 <b>PERSONAL PORTFOLIO</b>\n" + pre(lines)
}

// formatCell renders numeric cells with two decimals and leaves text as is.
func formatCell(s string) string {
	if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil && !math.IsInf(f, 0) && !math.IsNaN(f) {
		return money(f)
	}
	return orDash(s)
}

// FormatDigest formats the scheduled watchlist digest.
func FormatDigest(at time.Time, quotes []*model.Quote, failed []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📊 <b>Watchlist</b> | %s\n", at.Format("2006-01-02"))
	lines := make([]string, 0, len(quotes))
	for _, q := range quotes {
		lines = append(lines, fmt.Sprintf("%-8s %12s %s", q.Symbol, money(q.Price), q.Currency))
	}
	if len(lines) > 0 {
		b.WriteString(pre(lines))
	}
	if len(failed) > 0 {
		fmt.Fprintf(&b, "\nUnavailable: %s", esc(strings.Join(failed, ", ")))
	}
	return b.String()
}

// FormatHelp lists the commands.
func FormatHelp(entries []HelpEntry) string {
	var b strings.Builder
	b.WriteString("🤖 <b>Commands</b>\n")
	for _, e := range entries {
		fmt.Fprintf(&b, "\n<code>%s</code>\n%s\n", esc(e.Usage), esc(e.Description))
	}
	return b.String()
}

// FormatUsage tells the user what was wrong with their input.
func FormatUsage(usage, reason string) string {
	return fmt.Sprintf("❌ %s\nUsage: <code>%s</code>", esc(reason), esc(usage))
}
