package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "Pending"
	OrderStatusAccepted  OrderStatus = "Accepted"
	OrderStatusShipped   OrderStatus = "Shipped"
	OrderStatusDelivered OrderStatus = "Delivered"
	OrderStatusCancelled OrderStatus = "Cancelled"
	OrderStatusCompleted OrderStatus = "Completed"
	OrderStatusReturned  OrderStatus = "Returned"
)

type PurchaseOrder struct {
	ID              int64       `gorm:"primaryKey;autoIncrement" json:"id"`
	Status          OrderStatus `gorm:"type:varchar(15);not null;default:'Pending'" json:"status"`
	TotalQty        int32       `gorm:"not null;default:0" json:"total_qty"`
	SupplierID      int32       `gorm:"not null" json:"supplier_id"`
	SupplierName    string      `gorm:"size:60;not null" json:"supplier_name"`
	SupplierNumber  string      `gorm:"size:60" json:"supplier_number"`
	ContactPerson   string      `gorm:"size:60" json:"contact_person"`
	ContactNumber   string      `gorm:"size:60" json:"contact_number"`
	CreatedByUserID *int64      `json:"created_by_user_id"`
	CreatedAt       *time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       *time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	Supplier *Supplier             `gorm:"foreignKey:SupplierID" json:"supplier,omitempty"`
	Details  []PurchaseOrderDetail `gorm:"foreignKey:PurchaseOrderID" json:"details,omitempty"`
}

type PurchaseOrderDetail struct {
	ID              int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	PurchaseOrderID int64  `gorm:"not null;index" json:"purchase_order_id"`
	ProductID       int32  `gorm:"not null" json:"product_id"`
	ProductName     string `gorm:"size:60;not null" json:"product_name"`
	LineQty         int32  `gorm:"not null;default:0" json:"line_qty"`
}

type SalesOrder struct {
	ID              int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	Status          OrderStatus     `gorm:"type:varchar(15);not null;default:'Pending'" json:"status"`
	ClientID        int32           `gorm:"not null" json:"client_id"`
	ClientName      string          `gorm:"size:60" json:"client_name"`
	ClientProvince  string          `gorm:"size:30" json:"client_province"`
	ClientCity      string          `gorm:"size:30" json:"client_city"`
	ClientPhone     string          `gorm:"size:13" json:"client_phone"`
	DeliveryOption  string          `gorm:"size:30;not null;default:'Standard Delivery'" json:"delivery_option"`
	PaymentOption   string          `gorm:"size:30;not null;default:'Cash On Delivery (COD)'" json:"payment_option"`
	PaymentTerms    int32           `gorm:"default:0" json:"payment_terms"`
	TotalQty        int32           `gorm:"not null;default:0" json:"total_qty"`
	TotalPrice      decimal.Decimal `gorm:"type:numeric(10,2);not null;default:0" json:"total_price"`
	TotalDiscount   decimal.Decimal `gorm:"type:numeric(10,2);not null;default:0" json:"total_discount"`
	CreatedByUserID *int64          `json:"created_by_user_id"`
	CreatedAt       *time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       *time.Time      `gorm:"autoUpdateTime" json:"updated_at"`

	Client  *Customer          `gorm:"foreignKey:ClientID" json:"client,omitempty"`
	Details []SalesOrderDetail `gorm:"foreignKey:SalesOrderID" json:"details,omitempty"`
}

type SalesOrderDetail struct {
	ID           int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	SalesOrderID int64           `gorm:"not null;index" json:"sales_order_id"`
	ProductID    int32           `gorm:"not null" json:"product_id"`
	ProductName  string          `gorm:"size:50;not null" json:"product_name"`
	LinePrice    decimal.Decimal `gorm:"type:numeric(10,2);not null;default:0" json:"line_price"`
	LineQty      int32           `gorm:"not null" json:"line_qty"`
	LineDiscount decimal.Decimal `gorm:"type:numeric(10,2);not null;default:0" json:"line_discount"`
	LineTotal    decimal.Decimal `gorm:"type:numeric(10,2);not null;default:0" json:"line_total"`
}
