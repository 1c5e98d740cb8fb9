package funcs

import (
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

var TemplateFuncs = map[string]any{
	"title":        title,
	"formatAmount": formatAmount,
	"formatTime":   formatTime,
}

func title(s string) string {
	return cases.Title(language.English).String(s)
}

// formatAmount renders money with thousands separators and two decimals, e.g. 1,250.50.
func formatAmount(amount decimal.Decimal) string {
	return printer.Sprintf("%.2f", amount.Round(2).InexactFloat64())
}

func formatTime(format string, t time.Time) string {
	return t.Format(format)
}
