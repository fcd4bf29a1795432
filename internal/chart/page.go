package chart

import (
	"bytes"
	"html/template"
	"net/url"

	"TickerBot/internal/model"
)

// WidgetFrameID is the element id of the widget iframe; sessions wait on and capture it.
const WidgetFrameID = "tv-widget"

var pageTmpl = template.Must(template.New("widget").Parse(`<!DOCTYPE html>
<html>
  <body style="margin:0;padding:0;overflow:hidden;">
    <iframe id="{{.ID}}" src="{{.Src}}" width="{{.Width}}" height="{{.Height}}" frameborder="0"></iframe>
  </body>
</html>
`))

// WidgetURL returns the embed URL for req.
func WidgetURL(opts Options, req model.ChartRequest) string {
	q := url.Values{
		"symbol":           {req.Ticker},
		"interval":         {string(req.Interval)},
		"theme":            {opts.Theme},
		"style":            {"8"},
		"locale":           {"en"},
		"hide_volume":      {"true"},
		"hide_top_toolbar": {"true"},
	}
	return opts.WidgetURL + "?" + q.Encode()
}

// WidgetPage returns the minimal document that embeds the widget for req.
func WidgetPage(opts Options, req model.ChartRequest) (string, error) {
	var buf bytes.Buffer
	err := pageTmpl.Execute(&buf, struct {
		ID     string
		Src    string
		Width  int
		Height int
	}{WidgetFrameID, WidgetURL(opts, req), opts.Width, opts.Height})
	return buf.String(), err
}
