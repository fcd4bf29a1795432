package bot

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"TickerBot/internal/model"
)

// UsageError is a problem with user input. Its text is shown to the user.
type UsageError struct {
	Reason string
}

func (e *UsageError) Error() string { return e.Reason }

func usagef(format string, args ...any) error {
	return &UsageError{Reason: fmt.Sprintf(format, args...)}
}

var tickerPattern = regexp.MustCompile(`^[A-Za-z0-9.^=-]{1,15}$`)

// Args are the bound, still unparsed, option values of one invocation.
type Args struct {
	values map[string]string
}

func optionKey(name string) string {
	return strings.ReplaceAll(strings.ToLower(name), "-", "_")
}

// bindArgs assigns positional tokens in option order and key=value tokens by name.
func bindArgs(cmd *Command, raw []string) (Args, error) {
	known := make(map[string]bool, len(cmd.Options))
	for _, o := range cmd.Options {
		known[optionKey(o.Name)] = true
	}

	values := make(map[string]string)
	next := 0
	for _, tok := range raw {
		if k, v, ok := strings.Cut(tok, "="); ok && k != "" {
			key := optionKey(k)
			if !known[key] {
				return Args{}, usagef("unknown option %q", k)
			}
			values[key] = v
			continue
		}
		for next < len(cmd.Options) && values[optionKey(cmd.Options[next].Name)] != "" {
			next++
		}
		if next >= len(cmd.Options) {
			return Args{}, usagef("too many arguments")
		}
		values[optionKey(cmd.Options[next].Name)] = tok
		next++
	}

	for _, o := range cmd.Options {
		if o.Required && strings.TrimSpace(values[optionKey(o.Name)]) == "" {
			return Args{}, usagef("missing %s", o.Name)
		}
	}
	return Args{values: values}, nil
}

// Has reports whether name was supplied.
func (a Args) Has(name string) bool {
	return strings.TrimSpace(a.values[optionKey(name)]) != ""
}

// String returns the raw value of name, or "".
func (a Args) String(name string) string {
	return strings.TrimSpace(a.values[optionKey(name)])
}

// Float parses name as a finite number. "8%" and "$120" are accepted.
func (a Args) Float(name string) (float64, error) {
	raw := strings.TrimSuffix(strings.TrimPrefix(a.String(name), "$"), "%")
	raw = strings.ReplaceAll(raw, ",", "")
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, usagef("%s must be a number, got %q", name, a.String(name))
	}
	return v, nil
}

// Positive parses name and requires it to be > 0.
func (a Args) Positive(name string) (float64, error) {
	v, err := a.Float(name)
	if err != nil {
		return 0, err
	}
	if v <= 0 {
		return 0, usagef("%s must be greater than zero", name)
	}
	return v, nil
}

// Ticker validates name as a ticker symbol and uppercases it.
func (a Args) Ticker(name string) (string, error) {
	t := a.String(name)
	if !tickerPattern.MatchString(t) {
		return "", usagef("%q is not a valid ticker", t)
	}
	return strings.ToUpper(t), nil
}

// Interval parses name as D, W or M, falling back to def when absent.
func (a Args) Interval(name string, def model.ChartInterval) (model.ChartInterval, error) {
	if !a.Has(name) {
		return def, nil
	}
	iv := model.ChartInterval(strings.ToUpper(a.String(name)))
	if !iv.Valid() {
		return "", usagef("interval must be D, W or M")
	}
	return iv, nil
}
