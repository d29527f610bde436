// src/models/canonical.go
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CanonicalRow is the unified representation of one settlement feed row.
// Each feed layout maps its own column names onto these fields.
type CanonicalRow struct {
	Identifier    int64           `json:"identifier"`     // point-of-sale code extracted from the feed
	HasIdentifier bool            `json:"has_identifier"` // false for single-site feeds and for store cells without a code
	Date          time.Time       `json:"date"`           // date-only, UTC midnight
	Amount        decimal.Decimal `json:"amount"`         // signed after sign-column correction
	SourceRow     int             `json:"source_row"`     // 1-based row number in the source block, for logs
}

// ActualRecord is a settled amount for one installation and day.
// Count is the number of feed rows summed into Amount.
type ActualRecord struct {
	Identifier    int64           `json:"identifier"`
	HasIdentifier bool            `json:"has_identifier"`
	Date          time.Time       `json:"date"`
	Amount        decimal.Decimal `json:"amount"`
	Count         int             `json:"count"`
}

// POSExportRow is one point-of-sale export line with its category totals already derived.
type POSExportRow struct {
	POSCode      int64           `json:"pos_code"`
	Date         time.Time       `json:"date"`
	Cash         decimal.Decimal `json:"cash"`
	BankCard     decimal.Decimal `json:"bank_card"`
	FuelCard     decimal.Decimal `json:"fuel_card"`
	Voucher      decimal.Decimal `json:"voucher"`
	MobilePay    decimal.Decimal `json:"mobile_pay"`
	TotalTakings decimal.Decimal `json:"total_takings"`
	SourceRow    int             `json:"source_row"`
}

// TheoreticalDay holds the expected takings of one installation for one day, per category.
type TheoreticalDay struct {
	POSCode      int64           `json:"pos_code"`
	Date         time.Time       `json:"date"`
	Cash         decimal.Decimal `json:"cash"`
	BankCard     decimal.Decimal `json:"bank_card"`
	FuelCard     decimal.Decimal `json:"fuel_card"`
	Voucher      decimal.Decimal `json:"voucher"`
	MobilePay    decimal.Decimal `json:"mobile_pay"`
	TotalTakings decimal.Decimal `json:"total_takings"`
}

// Amount returns the theoretical total for a category.
func (d TheoreticalDay) Amount(c Category) decimal.Decimal {
	switch c {
	case CategoryCash:
		return d.Cash
	case CategoryBankCard:
		return d.BankCard
	case CategoryFuelCard:
		return d.FuelCard
	case CategoryVoucher:
		return d.Voucher
	case CategoryMobilePay:
		return d.MobilePay
	}
	return decimal.Zero
}

// DateOnly truncates t to midnight UTC, keeping its calendar date.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
