package render

import (
	"html/template"
	"io"

	"BenchBoard/internal/model"
)

// Choice is one checkbox on the page.
type Choice struct {
	Label   string
	Checked bool
}

// PageData feeds the dashboard template.
type PageData struct {
	Title     string
	Start     string
	End       string
	Symbols   string
	Choices   []Choice
	Chart     template.HTML
	Warnings  []model.Warning
	Error     string
	PricesURL string
}

var pageTmpl = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
</head>
<body>
<h1>{{.Title}}</h1>
<form method="get" action="/">
  <fieldset>
    <legend>Select assets to display:</legend>
    <input type="hidden" name="show" value="">
    <input type="hidden" name="prev_symbols" value="{{.Symbols}}">
    {{range .Choices}}<label><input type="checkbox" name="show" value="{{.Label}}"{{if .Checked}} checked{{end}}> {{.Label}}</label>
    {{end}}
  </fieldset>
  <label>Extra symbols <input type="text" name="symbols" value="{{.Symbols}}" placeholder="AAPL,ETH-USD"></label>
  <label>Start <input type="date" name="start" value="{{.Start}}"></label>
  <label>End <input type="date" name="end" value="{{.End}}"></label>
  <button type="submit">Update</button>
</form>
{{if .Error}}<p style="color:#b00"><strong>Error:</strong> {{.Error}}</p>{{end}}
{{range .Warnings}}<p style="color:#a60">{{.Message}}</p>
{{end}}
{{.Chart}}
{{if .PricesURL}}<p><a href="{{.PricesURL}}">Show raw price data</a></p>{{end}}
</body>
</html>
`))

// Page writes the dashboard page.
func Page(w io.Writer, data PageData) error {
	return pageTmpl.Execute(w, data)
}
