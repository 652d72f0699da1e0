package currency

import (
	"fmt"
	"math"
	"strings"
)

// Format renders an amount as "CNY 4,000" style display text. Currencies not
// in the separator table fall back to comma grouping.
func Format(amount float64, code string) string {
	rounded := math.Round(amount)

	negative := rounded < 0
	if negative {
		rounded = -rounded
	}

	intStr := fmt.Sprintf("%.0f", rounded)
	formatted := addThousandsSeparator(intStr, separatorFor(code))

	result := strings.ToUpper(code) + " " + formatted
	if negative {
		result = "-" + result
	}

	return result
}

func separatorFor(code string) string {
	switch strings.ToUpper(code) {
	case "EUR", "IDR":
		return "."
	default:
		return ","
	}
}

func addThousandsSeparator(s string, sep string) string {
	n := len(s)
	if n <= 3 {
		return s
	}

	numSeps := (n - 1) / 3
	result := make([]byte, n+numSeps)

	j := len(result) - 1
	for i := n - 1; i >= 0; i-- {
		result[j] = s[i]
		j--

		pos := n - i
		if pos%3 == 0 && i > 0 {
			result[j] = sep[0]
			j--
		}
	}

	return string(result)
}
