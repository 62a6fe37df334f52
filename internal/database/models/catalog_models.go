package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Supplier struct {
	ID            int32      `gorm:"primaryKey;autoIncrement" json:"id"`
	CompanyName   string     `gorm:"size:255;not null" json:"company_name"`
	CompanyNumber string     `gorm:"size:15;not null" json:"company_number"`
	ContactPerson string     `gorm:"size:255;not null" json:"contact_person"`
	ContactNumber string     `gorm:"size:15;not null" json:"contact_number"`
	CreatedAt     *time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     *time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type Customer struct {
	ID          int32      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string     `gorm:"size:255;not null" json:"name"`
	Address     string     `gorm:"size:255;not null" json:"address"`
	Province    string     `gorm:"size:255;not null" json:"province"`
	PhoneNumber *string    `gorm:"size:15" json:"phone_number"`
	CreatedAt   *time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   *time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type ProductCategory struct {
	ID          int32  `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string `gorm:"size:255;not null" json:"name"`
	Subcategory string `gorm:"size:255;not null" json:"subcategory"`

	Products []ProductDetails `gorm:"foreignKey:CategoryID" json:"products,omitempty"`
}

type ProductDetails struct {
	ID          int32           `gorm:"primaryKey;autoIncrement" json:"id"`
	Description string          `gorm:"size:255" json:"description"`
	Price       decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"price"`
	Supplier    string          `gorm:"size:255" json:"supplier"`
	Unit        *string         `gorm:"size:255" json:"unit"`
	Packaging   string          `gorm:"size:255" json:"packaging"`
	CategoryID  int32           `gorm:"not null" json:"category_id"`

	Category *ProductCategory `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
}

type Product struct {
	ID             int32      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name           string     `gorm:"size:255;not null;index" json:"name"`
	DetailsID      *int32     `json:"details_id"`
	ReorderLevel   int32      `gorm:"default:0" json:"reorder_level"`
	ReorderQty     int32      `gorm:"default:0" json:"reorder_qty"`
	QuantityOnHand int32      `gorm:"default:0" json:"quantity_on_hand"`
	Image          *string    `gorm:"size:255" json:"image"`
	CreatedAt      *time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      *time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	Details *ProductDetails `gorm:"foreignKey:DetailsID" json:"details,omitempty"`
}
