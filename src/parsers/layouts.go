package parsers

import "github.com/username/riconcilia/src/models"

// Cash deposits from the accounting system (AS400). One row per deposit, no store column.
var CashLayout = FeedLayout{
	Name:          "contanti",
	DateAliases:   []string{"registrazione//data", "registrazione data", "data registrazione", "data"},
	AmountAliases: []string{"importo"},
	DayFirst:      true,
}

// BankCardLayout reads the card acquirer (Numia) settlement export of a single site.
var BankCardLayout = FeedLayout{
	Name:               "carte_bancarie",
	HeaderKeywords:     []string{"data", "importo"},
	RequireAllKeywords: true,
	DateAliases:        []string{"data e ora", "data transazione", "data"},
	AmountAliases:      []string{"importo"},
	AmountContains:     "importo",
	DayFirst:           true,
}

// FuelCardLayout reads the fuel-card network (iP Portal) transactions for all sites.
var FuelCardLayout = FeedLayout{
	Name:               "carte_petrolifere",
	HeaderKeywords:     []string{"punto vendita", "circuito"},
	IdentifierAliases:  []string{"punto vendita", "pv", "codice site"},
	IdentifierRequired: true,
	DateAliases:        []string{"data operazione"},
	AmountAliases:      []string{"importo"},
	SignAliases:        []string{"segno"},
	DayFirst:           true,
}

// VoucherLayout reads the voucher clearing (iP Portal buoni) registrations for all sites.
var VoucherLayout = FeedLayout{
	Name:               "buoni_ip",
	HeaderKeywords:     []string{"punto vendita", "importo"},
	IdentifierAliases:  []string{"punto vendita", "pv", "codice site te"},
	IdentifierRequired: true,
	DateAliases:        []string{"data registrazione documento", "data registrazione", "data documento"},
	AmountAliases:      []string{"importo"},
	SignAliases:        []string{"segno"},
	DayFirst:           true,
}

// MobilePayLayout reads the Satispay export. The store column is optional.
var MobilePayLayout = FeedLayout{
	Name:                 "satispay",
	IdentifierAliases:    []string{"codice negozio", "negozio", "punto vendita"},
	KeepUnidentifiedRows: true,
	DateAliases:          []string{"data transazione", "data"},
	AmountAliases:        []string{"importo totale"},
}

// LayoutFor returns the feed layout of a category.
func LayoutFor(c models.Category) (FeedLayout, bool) {
	switch c {
	case models.CategoryCash:
		return CashLayout, true
	case models.CategoryBankCard:
		return BankCardLayout, true
	case models.CategoryFuelCard:
		return FuelCardLayout, true
	case models.CategoryVoucher:
		return VoucherLayout, true
	case models.CategoryMobilePay:
		return MobilePayLayout, true
	}
	return FeedLayout{}, false
}
