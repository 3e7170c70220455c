package pricing

import "github.com/charlesng35/hvacquote/internal/models"

// Rates are the exchange and margin rates applied to one kind of line.
type Rates struct {
	ExchangeRate float64 `mapstructure:"exchange_rate" json:"exchangeRate"`
	MarginRate   float64 `mapstructure:"margin_rate" json:"marginRate"`
}

// Defaults are the rates used when a quote carries none.
type Defaults struct {
	Supply Rates `mapstructure:"supply" json:"supply"`
	Labor  Rates `mapstructure:"labor" json:"labor"`
}

// DefaultRates returns the standard supply and labor rates.
func DefaultRates() Defaults {
	return Defaults{
		Supply: Rates{ExchangeRate: 1.15, MarginRate: 0.75},
		Labor:  Rates{ExchangeRate: 1.2, MarginRate: 0.8},
	}
}

// Calculator recomputes quote totals.
type Calculator struct {
	defaults Defaults
}

// NewCalculator builds a Calculator. Unset default rates fall back to DefaultRates.
func NewCalculator(defaults Defaults) *Calculator {
	std := DefaultRates()
	defaults.Supply.ExchangeRate = orDefault(defaults.Supply.ExchangeRate, std.Supply.ExchangeRate)
	defaults.Supply.MarginRate = orDefault(defaults.Supply.MarginRate, std.Supply.MarginRate)
	defaults.Labor.ExchangeRate = orDefault(defaults.Labor.ExchangeRate, std.Labor.ExchangeRate)
	defaults.Labor.MarginRate = orDefault(defaults.Labor.MarginRate, std.Labor.MarginRate)
	return &Calculator{defaults: defaults}
}

// Defaults returns the effective default rates.
func (c *Calculator) Defaults() Defaults {
	return c.defaults
}

// Quote recalculates every line and the HT, TVA and TTC totals. The quote's own rates win
// over the defaults; the rates used are written back onto the quote.
func (c *Calculator) Quote(q models.Quote) models.Quote {
	q.SupplyExchangeRate = orDefault(q.SupplyExchangeRate, c.defaults.Supply.ExchangeRate)
	q.SupplyMarginRate = orDefault(q.SupplyMarginRate, c.defaults.Supply.MarginRate)
	q.LaborExchangeRate = orDefault(q.LaborExchangeRate, c.defaults.Labor.ExchangeRate)
	q.LaborMarginRate = orDefault(q.LaborMarginRate, c.defaults.Labor.MarginRate)

	supplies := make([]models.SupplyItem, len(q.SupplyItems))
	for i, item := range q.SupplyItems {
		supplies[i] = SupplyItemTotal(item, q.SupplyExchangeRate, q.SupplyMarginRate)
	}
	labor := make([]models.LaborItem, len(q.LaborItems))
	for i, item := range q.LaborItems {
		labor[i] = LaborItemTotal(item, q.LaborExchangeRate, q.LaborMarginRate)
	}
	q.SupplyItems = supplies
	q.LaborItems = labor

	q.TotalSuppliesHT = TotalSupplies(supplies)
	q.TotalLaborHT = TotalLabor(labor)
	q.TotalHT = TotalWithDiscount(q.TotalSuppliesHT+q.TotalLaborHT, q.Remise)
	q.TVA = VAT(q.TotalHT)
	q.TotalTTC = q.TotalHT + q.TVA
	return q
}
