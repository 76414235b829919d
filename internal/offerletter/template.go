package offerletter

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"
)

// LetterContext is the data merged into an offer letter.
type LetterContext struct {
	OfferID       string
	CompanyID     string
	CompanyName   string
	CandidateName string
	JobTitle      string
	BaseSalary    int64
	Currency      string
	StartDate     time.Time
	Notes         string
}

var letterTemplate = template.Must(template.New("offer").Funcs(template.FuncMap{
	"money":    formatMoney,
	"date":     func(t time.Time) string { return t.Format("January 2, 2006") },
	"fallback": orDefault,
}).Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Offer of employment</title>
<style>
  @page { size: A4; margin: 24mm 20mm; }
  body { font-family: Georgia, serif; font-size: 12pt; color: #111; }
  h1 { font-size: 18pt; margin-bottom: 4mm; }
  .terms td { padding: 2mm 6mm 2mm 0; vertical-align: top; }
  .notes { margin-top: 8mm; white-space: pre-wrap; }
  .sign { margin-top: 20mm; }
</style>
</head>
<body>
<h1>{{fallback .CompanyName "Offer of employment"}}</h1>
<p>Dear {{fallback .CandidateName "Candidate"}},</p>
<p>We are pleased to offer you the position of <strong>{{fallback .JobTitle "the advertised role"}}</strong>.</p>
<table class="terms">
  <tr><td>Base salary</td><td>{{money .BaseSalary .Currency}} per year</td></tr>
  <tr><td>Start date</td><td>{{date .StartDate}}</td></tr>
  <tr><td>Reference</td><td>{{.OfferID}}</td></tr>
</table>
{{if .Notes}}<div class="notes">{{.Notes}}</div>{{end}}
<p class="sign">Please review this offer and respond through the candidate portal.</p>
</body>
</html>
`))

// RenderHTML renders the offer letter markup for lc.
func RenderHTML(lc LetterContext) ([]byte, error) {
	var buf bytes.Buffer
	if err := letterTemplate.Execute(&buf, lc); err != nil {
		return nil, fmt.Errorf("render offer letter: %w", err)
	}
	return buf.Bytes(), nil
}

// formatMoney renders amount with thousands separators, e.g. "USD 120,000".
func formatMoney(amount int64, currency string) string {
	neg := amount < 0
	if neg {
		amount = -amount
	}
	digits := fmt.Sprintf("%d", amount)
	var b strings.Builder
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(d)
	}
	out := b.String()
	if neg {
		out = "-" + out
	}
	return strings.TrimSpace(strings.ToUpper(currency) + " " + out)
}

func orDefault(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}
