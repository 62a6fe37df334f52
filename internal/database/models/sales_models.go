package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentStatusUnpaid        PaymentStatus = "Unpaid"
	PaymentStatusPartiallyPaid PaymentStatus = "Partially Paid"
	PaymentStatusPaid          PaymentStatus = "Paid"
)

type CustomerPayment struct {
	ID                 int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	OutboundDeliveryID int64           `gorm:"not null;index" json:"outbound_delivery_id"`
	ClientID           int32           `gorm:"not null" json:"client_id"`
	ClientName         string          `gorm:"size:255" json:"client_name"`
	PaymentTerms       int32           `gorm:"not null;default:0" json:"payment_terms"`
	PaymentStartDate   time.Time       `gorm:"autoCreateTime" json:"payment_start_date"`
	PaymentDueDate     *time.Time      `json:"payment_due_date"`
	PaymentMethod      string          `gorm:"size:50" json:"payment_method"`
	PaymentStatus      PaymentStatus   `gorm:"type:varchar(20);not null;default:'Unpaid'" json:"payment_status"`
	AmountPaid         decimal.Decimal `gorm:"type:numeric(10,2);default:0" json:"amount_paid"`
	AmountBalance      decimal.Decimal `gorm:"type:numeric(10,2);default:0" json:"amount_balance"`
	CreatedByUserID    *int64          `json:"created_by_user_id"`
	CreatedAt          *time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          *time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

type SalesInvoice struct {
	InvoiceID          string          `gorm:"primaryKey;size:20" json:"invoice_id"`
	InvoiceDatetime    *time.Time      `gorm:"autoCreateTime" json:"invoice_datetime"`
	Discount           decimal.Decimal `gorm:"type:numeric(10,2);default:0" json:"discount"`
	TotalPrice         decimal.Decimal `gorm:"type:numeric(10,2);not null;default:0" json:"total_price"`
	ClientID           int32           `gorm:"not null" json:"client_id"`
	ClientName         string          `gorm:"size:255" json:"client_name"`
	PaymentID          *int64          `json:"payment_id"`
	OutboundDeliveryID *int64          `json:"outbound_delivery_id"`
	CreatedByUserID    *int64          `json:"created_by_user_id"`
	TotalGrossRevenue  decimal.Decimal `gorm:"type:numeric(15,2);default:0" json:"total_gross_revenue"`
	TotalGrossIncome   decimal.Decimal `gorm:"type:numeric(15,2);default:0" json:"total_gross_income"`
	CreatedAt          *time.Time      `gorm:"autoCreateTime" json:"created_at"`

	Items []SalesInvoiceItem `gorm:"foreignKey:InvoiceID" json:"items,omitempty"`
}

type SalesInvoiceItem struct {
	ID            int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	InvoiceID     string          `gorm:"size:20;not null;index" json:"invoice_id"`
	ProductID     int32           `gorm:"not null" json:"product_id"`
	ProductName   string          `gorm:"size:100" json:"product_name"`
	QtyDelivered  int32           `gorm:"not null;default:0" json:"qty_delivered"`
	SellPrice     decimal.Decimal `gorm:"type:numeric(15,2);default:0" json:"sell_price"`
	PurchasePrice decimal.Decimal `gorm:"type:numeric(15,2);default:0" json:"purchase_price"`
	GrossRevenue  decimal.Decimal `gorm:"type:numeric(15,2);default:0" json:"gross_revenue"`
	GrossIncome   decimal.Decimal `gorm:"type:numeric(15,2);default:0" json:"gross_income"`
}

// ComputeLineTotals fills the revenue and income columns from quantity and prices.
// Revenue is qty x sell price; income subtracts the purchase cost.
func (it *SalesInvoiceItem) ComputeLineTotals() {
	qty := decimal.NewFromInt32(it.QtyDelivered)
	it.GrossRevenue = qty.Mul(it.SellPrice)
	it.GrossIncome = qty.Mul(it.SellPrice.Sub(it.PurchasePrice))
}
