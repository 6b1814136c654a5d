package writer

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// FormatRupees renders a total for display with thousands grouping,
// e.g. "₹ 123,456.70".
func FormatRupees(v float64) string {
	return printer.Sprintf("₹ %.2f", v)
}
