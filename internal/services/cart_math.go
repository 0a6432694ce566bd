package services

import (
	"fmt"
	"math"

	"etalase/internal/models"
)

// TaxRate is the fixed surcharge applied to every subtotal.
const TaxRate = 0.10

// ComputeTotals derives subtotal, tax and total from cart. Amounts are rounded
// to cents so that the rendered values add up.
func ComputeTotals(cart models.Cart) models.Totals {
	var subtotal float64
	for _, item := range cart {
		subtotal += item.LineTotal()
	}
	subtotal = Round2(subtotal)
	tax := Round2(subtotal * TaxRate)
	return models.Totals{
		Subtotal: subtotal,
		Tax:      tax,
		Total:    Round2(subtotal + tax),
	}
}

// Round2 rounds v to two decimal places, halves away from zero.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// FormatMoney renders v as a dollar amount with exactly two decimals.
func FormatMoney(v float64) string {
	return fmt.Sprintf("$%.2f", v)
}
