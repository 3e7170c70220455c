package models

// SupplyItem is a priced material line. The same shape is used for the supplies catalogue
// and for the supply lines of a quote.
type SupplyItem struct {
	Record

	Description      string  `json:"description"`
	PriceEuro        float64 `json:"priceEuro" validate:"amount"`
	Quantity         float64 `json:"quantity" validate:"amount"`
	PriceDollar      float64 `json:"priceDollar"`
	UnitPriceDollar  float64 `json:"unitPriceDollar"`
	TotalPriceDollar float64 `json:"totalPriceDollar"`
}

// LaborItem is a priced labor line of a quote.
type LaborItem struct {
	ID                string  `json:"id"`
	Description       string  `json:"description"`
	NbTechnicians     float64 `json:"nbTechnicians" validate:"amount"`
	NbHours           float64 `json:"nbHours" validate:"amount"`
	WeekendMultiplier float64 `json:"weekendMultiplier" validate:"amount"`
	PriceEuro         float64 `json:"priceEuro" validate:"amount"`
	PriceDollar       float64 `json:"priceDollar"`
	UnitPriceDollar   float64 `json:"unitPriceDollar"`
	TotalPriceDollar  float64 `json:"totalPriceDollar"`
}

// Split is a piece of equipment (usually an air-conditioning split unit) covered by a quote.
type Split struct {
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
	Code        string `json:"code,omitempty"`
}

// Label returns the first non-empty identifying field of the split.
func (s Split) Label() string {
	switch {
	case s.Name != "":
		return s.Name
	case s.Description != "":
		return s.Description
	default:
		return s.Code
	}
}

// Quote is a versioned price offer. Revisions of the same offer share ParentID.
type Quote struct {
	Record

	ParentID   string `json:"parentId,omitempty"`
	Version    int    `json:"version,omitempty"`
	ClientID   string `json:"clientId,omitempty"`
	ClientName string `json:"clientName"`
	SiteID     string `json:"siteId,omitempty"`
	SiteName   string `json:"siteName"`
	Object     string `json:"object"`
	Date       string `json:"date"`
	Confirmed  bool   `json:"confirmed"`

	Splits []Split `json:"splits,omitempty"`

	SupplyDescription  string       `json:"supplyDescription,omitempty"`
	SupplyExchangeRate float64      `json:"supplyExchangeRate,omitempty" validate:"amount"`
	SupplyMarginRate   float64      `json:"supplyMarginRate,omitempty" validate:"amount"`
	SupplyItems        []SupplyItem `json:"supplyItems,omitempty"`
	TotalSuppliesHT    float64      `json:"totalSuppliesHT"`

	LaborDescription  string      `json:"laborDescription,omitempty"`
	LaborExchangeRate float64     `json:"laborExchangeRate,omitempty" validate:"amount"`
	LaborMarginRate   float64     `json:"laborMarginRate,omitempty" validate:"amount"`
	LaborItems        []LaborItem `json:"laborItems,omitempty"`
	TotalLaborHT      float64     `json:"totalLaborHT"`

	// Remise is a discount percentage applied to the HT total.
	Remise   float64 `json:"remise,omitempty" validate:"amount"`
	TotalHT  float64 `json:"totalHT"`
	TVA      float64 `json:"tva"`
	TotalTTC float64 `json:"totalTTC"`
}

// GroupKey identifies the revision group of the quote.
func (q Quote) GroupKey() string {
	if q.ParentID != "" {
		return q.ParentID
	}
	return q.ID
}
