package util

import (
	"fmt"
	"math"
)

// FormatCurrency renders an amount in pounds and pence, e.g. 12.5
// becomes £12.50 and 3.05 becomes £3.05.
func FormatCurrency(amount float64) string {
	pounds := int64(math.Floor(amount))
	pence := int64(math.Round((amount - math.Floor(amount)) * 100))
	if pence >= 100 {
		pounds++
		pence -= 100
	}
	return fmt.Sprintf("£%d.%02d", pounds, pence)
}
