package models

import (
	"time"

	"gorm.io/gorm"
)

// Inventory is one stock batch per received lot. InventoryID and BatchID are
// generated sequentially at creation time (see internal/stock).
type Inventory struct {
	InventoryID       string     `gorm:"primaryKey;size:20" json:"inventory_id"`
	ProductID         int32      `gorm:"not null;index" json:"product_id"`
	ProductName       string     `gorm:"size:120" json:"product_name"`
	InboundDeliveryID int64      `gorm:"not null;index" json:"inbound_delivery_id"`
	BatchID           string     `gorm:"size:50;uniqueIndex;not null" json:"batch_id"`
	ExpiryDate        *time.Time `gorm:"type:date" json:"expiry_date"`
	QuantityOnHand    int32      `gorm:"not null" json:"quantity_on_hand"`
	CreatedAt         *time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         *time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	Product *Product `gorm:"foreignKey:ProductID" json:"product,omitempty"`
}

func (Inventory) TableName() string {
	return "product_inventory"
}

// AfterSave and AfterDelete keep the denormalized product quantity-on-hand equal
// to the sum of its batches, mirroring every batch write inside the same
// transaction.
func (inv *Inventory) AfterSave(tx *gorm.DB) error {
	return recomputeProductQOH(tx, inv.ProductID)
}

func (inv *Inventory) AfterDelete(tx *gorm.DB) error {
	return recomputeProductQOH(tx, inv.ProductID)
}

func recomputeProductQOH(tx *gorm.DB, productID int32) error {
	var total int64
	if err := tx.Model(&Inventory{}).
		Where("product_id = ?", productID).
		Select("COALESCE(SUM(quantity_on_hand), 0)").
		Scan(&total).Error; err != nil {
		return err
	}
	return tx.Model(&Product{}).
		Where("id = ?", productID).
		Update("quantity_on_hand", total).Error
}
