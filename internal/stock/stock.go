package stock

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"

	"provet-system/internal/database/models"
)

var (
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrNoBatches         = errors.New("no inventory batches for product")
)

// NextInventoryID returns the next sequential inventory id (INV00001, INV00002, ...).
// Callers must run it inside the transaction that inserts the row; the scan is a
// read-then-write and only the surrounding transaction serializes concurrent inserts.
func NextInventoryID(tx *gorm.DB) (string, error) {
	var last models.Inventory
	err := tx.Order("inventory_id DESC").First(&last).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "INV00001", nil
	}
	if err != nil {
		return "", err
	}

	n, err := strconv.Atoi(strings.TrimPrefix(last.InventoryID, "INV"))
	if err != nil {
		return "", fmt.Errorf("malformed inventory id %q: %w", last.InventoryID, err)
	}
	return fmt.Sprintf("INV%05d", n+1), nil
}

// NextBatchID returns the next batch code scoped to the given month (MM-YY-001,
// MM-YY-002, ...). A new month restarts the suffix at 001.
func NextBatchID(tx *gorm.DB, now time.Time) (string, error) {
	prefix := now.Format("01-06")

	var last models.Inventory
	err := tx.Where("batch_id LIKE ?", prefix+"-%").Order("batch_id DESC").First(&last).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return prefix + "-001", nil
	}
	if err != nil {
		return "", err
	}

	parts := strings.Split(last.BatchID, "-")
	n, err := strconv.Atoi(parts[len(parts)-1])
	if err != nil {
		return "", fmt.Errorf("malformed batch id %q: %w", last.BatchID, err)
	}
	return fmt.Sprintf("%s-%03d", prefix, n+1), nil
}

// AddBatch creates one inventory batch with generated ids. The product QOH is
// recomputed by the Inventory save hook inside the same transaction.
func AddBatch(tx *gorm.DB, productID int32, productName string, inboundDeliveryID int64, expiry *time.Time, qty int32) (*models.Inventory, error) {
	invID, err := NextInventoryID(tx)
	if err != nil {
		return nil, err
	}
	batchID, err := NextBatchID(tx, time.Now())
	if err != nil {
		return nil, err
	}

	batch := &models.Inventory{
		InventoryID:       invID,
		ProductID:         productID,
		ProductName:       productName,
		InboundDeliveryID: inboundDeliveryID,
		BatchID:           batchID,
		ExpiryDate:        expiry,
		QuantityOnHand:    qty,
	}
	if err := tx.Create(batch).Error; err != nil {
		return nil, err
	}
	return batch, nil
}

// Deduction records how much was taken from one batch.
type Deduction struct {
	InventoryID string
	BatchID     string
	Qty         int32
}

// DeductFEFO removes qty units of a product from inventory, draining the
// earliest-expiring batches first. If the total available is less than qty it
// returns ErrInsufficientStock without writing anything; callers run it inside a
// transaction so the whole dispatch rolls back on failure.
func DeductFEFO(tx *gorm.DB, productID int32, qty int32) ([]Deduction, error) {
	if qty <= 0 {
		return nil, nil
	}

	var batches []models.Inventory
	if err := tx.Where("product_id = ? AND quantity_on_hand > 0", productID).
		Order("expiry_date ASC NULLS LAST").
		Order("inventory_id ASC").
		Find(&batches).Error; err != nil {
		return nil, err
	}
	if len(batches) == 0 {
		return nil, ErrNoBatches
	}

	var available int32
	for _, b := range batches {
		available += b.QuantityOnHand
	}
	if available < qty {
		return nil, fmt.Errorf("%w: product %d needs %d, has %d", ErrInsufficientStock, productID, qty, available)
	}

	remaining := qty
	deductions := make([]Deduction, 0, len(batches))
	for i := range batches {
		if remaining == 0 {
			break
		}
		take := batches[i].QuantityOnHand
		if take > remaining {
			take = remaining
		}
		batches[i].QuantityOnHand -= take
		if err := tx.Save(&batches[i]).Error; err != nil {
			return nil, err
		}
		deductions = append(deductions, Deduction{
			InventoryID: batches[i].InventoryID,
			BatchID:     batches[i].BatchID,
			Qty:         take,
		})
		remaining -= take
	}
	return deductions, nil
}

// Restock adds qty back to the batches of an inbound delivery, latest expiry
// first, used when a replacement resolution returns goods to the supplier side.
// If the delivery has no remaining batches a fresh one is created.
func Restock(tx *gorm.DB, inboundDeliveryID int64, productID int32, productName string, qty int32) error {
	if qty <= 0 {
		return nil
	}

	var batch models.Inventory
	err := tx.Where("inbound_delivery_id = ? AND product_id = ?", inboundDeliveryID, productID).
		Order("expiry_date DESC NULLS FIRST").
		First(&batch).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		_, err = AddBatch(tx, productID, productName, inboundDeliveryID, nil, qty)
		return err
	}
	if err != nil {
		return err
	}

	batch.QuantityOnHand += qty
	return tx.Save(&batch).Error
}
