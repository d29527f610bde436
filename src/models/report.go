package models

import "time"

// Category is a payment category reconciled independently of the others.
type Category string

const (
	CategoryCash      Category = "contanti"
	CategoryBankCard  Category = "carte_bancarie"
	CategoryFuelCard  Category = "carte_petrolifere"
	CategoryVoucher   Category = "buoni_ip"
	CategoryMobilePay Category = "satispay"
)

// Categories lists every category in matching order.
var Categories = []Category{CategoryCash, CategoryBankCard, CategoryFuelCard, CategoryVoucher, CategoryMobilePay}

// Status is the severity classification of a report row.
type Status string

const (
	StatusBalanced     Status = "QUADRATO"
	StatusMinorAnomaly Status = "ANOMALIA_LIEVE"
	StatusMajorAnomaly Status = "ANOMALIA_GRAVE"
	StatusNotFound     Status = "NON_TROVATO"
)

// DateLayout is the persisted format of every calendar date.
const DateLayout = "2006-01-02"

// Installation is a physical site from the installation registry.
type Installation struct {
	ID             int64  `json:"id"`
	POSCode        string `json:"pos_code"`
	Name           string `json:"name"`
	ManagementType string `json:"management_type"`
	Active         bool   `json:"active"`
}

// ReportRow is one reconciliation result for (installation, date, category).
type ReportRow struct {
	ID             int64     `json:"id,omitempty"`
	InstallationID int64     `json:"installation_id"`
	ReferenceDate  time.Time `json:"reference_date"`
	Category       Category  `json:"category"`
	Theoretical    float64   `json:"theoretical"`
	Actual         float64   `json:"actual"`
	Difference     float64   `json:"difference"` // theoretical - actual
	Status         Status    `json:"status"`
	Note           string    `json:"note"`
	ProcessedAt    time.Time `json:"processed_at,omitempty"`
}

// ImportAudit is the denormalized copy of one point-of-sale export row.
type ImportAudit struct {
	ID             int64     `json:"id,omitempty"`
	InstallationID int64     `json:"installation_id"`
	POSCode        string    `json:"pos_code"`
	AccountingDate time.Time `json:"accounting_date"`
	TotalTakings   float64   `json:"total_takings"`
	BankCard       float64   `json:"bank_card"`
	FuelCard       float64   `json:"fuel_card"`
	Voucher        float64   `json:"voucher"`
	MobilePay      float64   `json:"mobile_pay"`
	Cash           float64   `json:"cash"`
	ImportedAt     time.Time `json:"imported_at,omitempty"`
}
