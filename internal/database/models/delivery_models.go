package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type DeliveryStatus string

const (
	DeliveryStatusPending             DeliveryStatus = "Pending"
	DeliveryStatusDispatched          DeliveryStatus = "Dispatched"
	DeliveryStatusDelivered           DeliveryStatus = "Delivered"
	DeliveryStatusDeliveredWithIssues DeliveryStatus = "Delivered with Issues"
	DeliveryStatusReceived            DeliveryStatus = "Received"
	DeliveryStatusReturned            DeliveryStatus = "Returned"
	DeliveryStatusCancelled           DeliveryStatus = "Cancelled"
)

type InboundDelivery struct {
	ID              int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	PurchaseOrderID int64           `gorm:"not null;uniqueIndex" json:"purchase_order_id"`
	SupplierID      int32           `gorm:"not null" json:"supplier_id"`
	SupplierName    string          `gorm:"size:50" json:"supplier_name"`
	Status          DeliveryStatus  `gorm:"type:varchar(30);not null;default:'Pending'" json:"status"`
	TotalOrderedQty int32           `gorm:"not null;default:0" json:"total_ordered_qty"`
	TotalRcvdQty    int32           `gorm:"default:0" json:"total_rcvd_qty"`
	TotalPrice      decimal.Decimal `gorm:"type:numeric(10,2);default:0" json:"total_price"`
	DateDelivered   *time.Time      `json:"date_delivered"`
	ReceivedBy      *string         `gorm:"size:60" json:"received_by"`
	ApprovedBy      string          `gorm:"size:60;not null;default:'Staff'" json:"approved_by"`
	CreatedAt       *time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       *time.Time      `gorm:"autoUpdateTime" json:"updated_at"`

	PurchaseOrder *PurchaseOrder          `gorm:"foreignKey:PurchaseOrderID" json:"purchase_order,omitempty"`
	Details       []InboundDeliveryDetail `gorm:"foreignKey:InboundDeliveryID" json:"details,omitempty"`
}

type InboundDeliveryDetail struct {
	ID                int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	InboundDeliveryID int64           `gorm:"not null;index" json:"inbound_delivery_id"`
	ProductID         int32           `gorm:"not null" json:"product_id"`
	ProductName       string          `gorm:"size:60;not null" json:"product_name"`
	LinePrice         decimal.Decimal `gorm:"type:numeric(10,2);default:0" json:"line_price"`
	OrderedQty        int32           `gorm:"not null;default:0" json:"ordered_qty"`
	AcceptedQty       int32           `gorm:"default:0" json:"accepted_qty"`
	DefectQty         int32           `gorm:"default:0" json:"defect_qty"`
	ExpiryDate        *time.Time      `gorm:"type:date" json:"expiry_date"`
}

type OutboundDelivery struct {
	ID              int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	SalesOrderID    int64           `gorm:"not null;uniqueIndex" json:"sales_order_id"`
	ClientID        *int32          `json:"client_id"`
	CustomerName    string          `gorm:"size:60;not null" json:"customer_name"`
	ShippedDate     *time.Time      `json:"shipped_date"`
	ReceivedDate    *time.Time      `json:"received_date"`
	TotalPrice      decimal.Decimal `gorm:"type:numeric(10,2);default:0" json:"total_price"`
	Discount        decimal.Decimal `gorm:"type:numeric(10,2);default:0" json:"discount"`
	PaymentTerms    int32           `gorm:"default:0" json:"payment_terms"`
	PaymentOption   *string         `gorm:"size:30" json:"payment_option"`
	Status          DeliveryStatus  `gorm:"type:varchar(30);not null;default:'Pending'" json:"status"`
	TotalOrderedQty int32           `gorm:"not null;default:0" json:"total_ordered_qty"`
	DeliveredQty    int32           `gorm:"not null;default:0" json:"delivered_qty"`
	DeliveryOption  string          `gorm:"size:30;not null;default:'Standard Delivery'" json:"delivery_option"`
	City            *string         `gorm:"size:30" json:"city"`
	Province        *string         `gorm:"size:30" json:"province"`
	AcceptedByName  string          `gorm:"size:60;not null;default:'Staff'" json:"accepted_by_name"`
	AcceptedByID    *int64          `json:"accepted_by_id"`
	CreatedAt       *time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       *time.Time      `gorm:"autoUpdateTime" json:"updated_at"`

	SalesOrder *SalesOrder              `gorm:"foreignKey:SalesOrderID" json:"sales_order,omitempty"`
	Details    []OutboundDeliveryDetail `gorm:"foreignKey:OutboundDeliveryID" json:"details,omitempty"`
}

type OutboundDeliveryDetail struct {
	ID                 int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	OutboundDeliveryID int64           `gorm:"not null;index" json:"outbound_delivery_id"`
	ProductID          int32           `gorm:"not null" json:"product_id"`
	ProductName        string          `gorm:"size:100;not null" json:"product_name"`
	QtyOrdered         int32           `gorm:"not null;default:0" json:"qty_ordered"`
	QtyAccepted        int32           `gorm:"not null;default:0" json:"qty_accepted"`
	QtyDefect          int32           `gorm:"not null;default:0" json:"qty_defect"`
	LineDiscount       decimal.Decimal `gorm:"type:numeric(10,2);default:0" json:"line_discount"`
	SellPrice          decimal.Decimal `gorm:"type:numeric(10,2);not null;default:0" json:"sell_price"`
	LineTotal          decimal.Decimal `gorm:"type:numeric(10,2);default:0" json:"line_total"`
}
