// Package pricing implements quote line and total calculations. Purchase prices are in euro,
// sales prices in dollar: dollar = euro * exchange rate, sales = dollar / margin rate.
package pricing

import (
	"math"
	"strconv"
	"strings"

	"github.com/charlesng35/hvacquote/internal/models"
)

// DefaultVATRate is the VAT applied on HT totals.
const DefaultVATRate = 0.16

// DollarPrice converts a euro purchase price.
func DollarPrice(euro, exchangeRate float64) float64 {
	return euro * exchangeRate
}

// SalesPrice applies the margin rate to a purchase price.
func SalesPrice(purchase, marginRate float64) float64 {
	return purchase / marginRate
}

// SupplyItemTotal fills the dollar prices of a supply line. Missing rates default to 1 and
// a missing quantity to 0.
func SupplyItemTotal(item models.SupplyItem, exchangeRate, marginRate float64) models.SupplyItem {
	price := orDefault(item.PriceEuro, 0)
	rate := orDefault(exchangeRate, 1)
	margin := orDefault(marginRate, 1)
	quantity := orDefault(item.Quantity, 0)

	item.PriceDollar = DollarPrice(price, rate)
	item.UnitPriceDollar = SalesPrice(item.PriceDollar, margin)
	item.TotalPriceDollar = item.UnitPriceDollar * quantity
	return item
}

// LaborItemTotal fills the dollar prices of a labor line:
// total = unit * technicians * hours * weekend multiplier.
func LaborItemTotal(item models.LaborItem, exchangeRate, marginRate float64) models.LaborItem {
	price := orDefault(item.PriceEuro, 0)
	rate := orDefault(exchangeRate, 1)
	margin := orDefault(marginRate, 1)
	technicians := orDefault(item.NbTechnicians, 0)
	hours := orDefault(item.NbHours, 0)
	multiplier := orDefault(item.WeekendMultiplier, 1)

	item.PriceDollar = DollarPrice(price, rate)
	item.UnitPriceDollar = SalesPrice(item.PriceDollar, margin)
	item.TotalPriceDollar = item.UnitPriceDollar * technicians * hours * multiplier
	return item
}

// TotalSupplies sums the line totals of supply items.
func TotalSupplies(items []models.SupplyItem) float64 {
	var total float64
	for _, item := range items {
		total += orDefault(item.TotalPriceDollar, 0)
	}
	return total
}

// TotalLabor sums the line totals of labor items.
func TotalLabor(items []models.LaborItem) float64 {
	var total float64
	for _, item := range items {
		total += orDefault(item.TotalPriceDollar, 0)
	}
	return total
}

// VAT returns the tax due on amount at DefaultVATRate.
func VAT(amount float64) float64 {
	return amount * DefaultVATRate
}

// TotalTTC adds VAT to an HT total.
func TotalTTC(totalHT float64) float64 {
	ht := orDefault(totalHT, 0)
	return ht + VAT(ht)
}

// TotalWithDiscount applies a percentage discount to an HT total.
func TotalWithDiscount(totalHT, discountPct float64) float64 {
	ht := orDefault(totalHT, 0)
	pct := orDefault(discountPct, 0)
	return ht - ht*(pct/100)
}

// TotalTTCWithDiscount applies the discount then VAT.
func TotalTTCWithDiscount(totalHT, discountPct float64) float64 {
	discounted := TotalWithDiscount(totalHT, discountPct)
	return discounted + VAT(discounted)
}

// RoundToTwo rounds to two decimals for display.
func RoundToTwo(v float64) float64 {
	return roundHalfUp((v+epsilon)*100) / 100
}

const epsilon = 2.220446049250313e-16

// FormatNumberWithSpaces renders v with a fixed number of decimals and a plain space as
// thousands separator, e.g. 1234567.891 -> "1 234 567.89". Non-finite values render "0.00".
func FormatNumberWithSpaces(v float64, decimals int) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "0.00"
	}
	if decimals < 0 {
		decimals = 0
	}

	scale := math.Pow(10, float64(decimals))
	formatted := strconv.FormatFloat(roundHalfUp(v*scale)/scale, 'f', decimals, 64)

	sign := ""
	if strings.HasPrefix(formatted, "-") {
		sign, formatted = "-", formatted[1:]
	}
	integer, fraction, hasFraction := strings.Cut(formatted, ".")

	var b strings.Builder
	b.WriteString(sign)
	for i, digit := range integer {
		if i > 0 && (len(integer)-i)%3 == 0 {
			b.WriteByte(' ')
		}
		b.WriteRune(digit)
	}
	if hasFraction {
		b.WriteByte('.')
		b.WriteString(fraction)
	}
	return b.String()
}

// roundHalfUp rounds to the nearest integer with ties going towards positive infinity,
// so -2.5 becomes -2. Negative zero is folded into zero.
func roundHalfUp(v float64) float64 {
	r := math.Round(v)
	if v < 0 && v-r == 0.5 {
		r++
	}
	if r == 0 {
		return 0
	}
	return r
}

// orDefault treats zero and non-finite inputs as missing.
func orDefault(v, fallback float64) float64 {
	if v == 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return fallback
	}
	return v
}
