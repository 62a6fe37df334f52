package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DeliveryKind is the discriminant for issue delivery references. An issue points
// at either an inbound or an outbound delivery; the kind plus DeliveryID resolve
// the row through an explicit lookup instead of a reflective generic relation.
type DeliveryKind string

const (
	DeliveryKindInbound  DeliveryKind = "inbound"
	DeliveryKindOutbound DeliveryKind = "outbound"
)

type IssueStatus string

const (
	IssueStatusPending  IssueStatus = "Pending"
	IssueStatusResolved IssueStatus = "Resolved"
)

type IssueType string

const (
	IssueTypeDamaged   IssueType = "Damaged"
	IssueTypeMissing   IssueType = "Missing"
	IssueTypeWrongItem IssueType = "Wrong Item"
)

type IssueResolution string

const (
	ResolutionOffset      IssueResolution = "Offset"
	ResolutionReplacement IssueResolution = "Replacement"
)

type DeliveryIssue struct {
	IssueNo      int64            `gorm:"primaryKey;autoIncrement" json:"issue_no"`
	DeliveryKind DeliveryKind     `gorm:"type:varchar(10);not null" json:"delivery_kind"`
	DeliveryID   int64            `gorm:"not null;index" json:"delivery_id"`
	OrderType    string           `gorm:"type:varchar(15);not null;default:'Uncategorized'" json:"order_type"`
	Status       IssueStatus      `gorm:"type:varchar(15);not null;default:'Pending'" json:"status"`
	IssueType    IssueType        `gorm:"type:varchar(15);not null" json:"issue_type"`
	Resolution   *IssueResolution `gorm:"type:varchar(15)" json:"resolution"`
	SupplierID   *int32           `json:"supplier_id"`
	SupplierName *string          `gorm:"size:60" json:"supplier_name"`
	CustomerID   *int32           `json:"customer_id"`
	CustomerName *string          `gorm:"size:60" json:"customer_name"`
	Remarks      *string          `gorm:"type:text" json:"remarks"`
	IsResolved   bool             `gorm:"default:false" json:"is_resolved"`
	CreatedAt    *time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    *time.Time       `gorm:"autoUpdateTime" json:"updated_at"`

	ItemIssues []DeliveryItemIssue `gorm:"foreignKey:IssueNo" json:"item_issues,omitempty"`
}

type DeliveryItemIssue struct {
	ID          int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	IssueNo     int64           `gorm:"not null;index" json:"issue_no"`
	ProductID   int32           `gorm:"not null" json:"product_id"`
	ProductName string          `gorm:"size:100;not null" json:"product_name"`
	QtyDefect   int32           `gorm:"not null;default:0" json:"qty_defect"`
	Price       decimal.Decimal `gorm:"type:numeric(10,2);default:0" json:"price"`
}

// ReplacementHold tracks replacement quantity promised for a resolved issue until
// the replacement stock physically moves.
type ReplacementHold struct {
	ID          int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	IssueNo     int64      `gorm:"not null;index" json:"issue_no"`
	ProductID   int32      `gorm:"not null" json:"product_id"`
	ProductName string     `gorm:"size:100" json:"product_name"`
	QtyHeld     int32      `gorm:"not null" json:"qty_held"`
	Released    bool       `gorm:"default:false" json:"released"`
	CreatedAt   *time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   *time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
