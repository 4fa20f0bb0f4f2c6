package http

import (
	"fmt"
	"net/http"
	"strings"

	"spendtrack/internal/core"
)

// moneyFormatter renders amounts as symbol-prefixed values with two
// decimals and thousands separators, e.g. "₹1,234.50". Unrounded unit
// values such as the average are rounded to the cent here.
func moneyFormatter(symbol string) func(any) string {
	return func(v any) string {
		if m, ok := v.(core.Money); ok {
			return formatMoney(m, symbol)
		}
		return formatMoney(core.CoerceAmount(v), symbol)
	}
}

func formatMoney(m core.Money, symbol string) string {
	neg := m.Cents < 0
	if neg {
		m.Cents = -m.Cents
	}
	s := m.String()
	whole, frac, _ := strings.Cut(s, ".")
	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	b.WriteString(symbol)
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	b.WriteByte('.')
	b.WriteString(frac)
	return b.String()
}

// formatChange renders a month-over-month change with one decimal and an
// explicit plus sign for increases.
func formatChange(pct float64) string {
	if pct > 0 {
		return fmt.Sprintf("+%.1f%%", pct)
	}
	return fmt.Sprintf("%.1f%%", pct)
}

// sanitizeInput trims s and strips control characters other than tab and
// newlines.
func sanitizeInput(s string) string {
	return stripControl(strings.TrimSpace(s))
}

// stripControl drops control characters other than tab and newlines and
// leaves everything else, surrounding spaces included.
func stripControl(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

func wantsJSON(r *http.Request) bool {
	return strings.HasPrefix(r.URL.Path, "/api/") ||
		strings.Contains(r.Header.Get("Accept"), "application/json")
}
