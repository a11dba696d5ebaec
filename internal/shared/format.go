package shared

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.AmericanEnglish)

// FormatNumber renders n with thousands separators, e.g. 15000 -> "15,000".
func FormatNumber(n int) string {
	return printer.Sprintf("%d", n)
}

// FormatMiles renders a mileage label, e.g. 48250 -> "48,250 mi".
func FormatMiles(n int) string {
	return printer.Sprintf("%d mi", n)
}
