package output

import (
	"os"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Locale formats numbers for summaries using the user's conventions.
type Locale struct {
	tag     language.Tag
	printer *message.Printer
}

// DetectLocale resolves the locale from LC_ALL, LC_NUMERIC or LANG,
// falling back to en-US.
func DetectLocale() Locale {
	for _, env := range []string{"LC_ALL", "LC_NUMERIC", "LANG"} {
		if v := os.Getenv(env); v != "" {
			return NewLocale(v)
		}
	}
	return NewLocale("")
}

// NewLocale accepts a POSIX locale ("de_DE.UTF-8") or a BCP 47 tag ("de-DE").
func NewLocale(raw string) Locale {
	if i := strings.IndexByte(raw, '.'); i != -1 {
		raw = raw[:i]
	}
	raw = strings.ReplaceAll(raw, "_", "-")

	tag, _ := language.Parse(raw)
	if tag == language.Und || raw == "C" || raw == "POSIX" {
		tag = language.AmericanEnglish
	}
	return Locale{tag: tag, printer: message.NewPrinter(tag)}
}

// Tag returns the resolved language tag.
func (l Locale) Tag() language.Tag {
	return l.tag
}

// FormatNumber groups digits and keeps at most two fractional digits.
func (l Locale) FormatNumber(v float64) string {
	if v == float64(int64(v)) {
		return l.printer.Sprint(number.Decimal(int64(v)))
	}
	return l.printer.Sprint(number.Decimal(v, number.MaxFractionDigits(2)))
}

// FormatHours renders a duration as decimal hours, e.g. "1,234.5 h".
func (l Locale) FormatHours(d time.Duration) string {
	return l.printer.Sprint(number.Decimal(d.Hours(), number.MaxFractionDigits(2))) + " h"
}
