package stock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"provet-system/internal/database/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:" + t.Name() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Product{}, &models.Inventory{}))
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})
	return db
}

func createProduct(t *testing.T, db *gorm.DB, name string) *models.Product {
	t.Helper()
	p := &models.Product{Name: name}
	require.NoError(t, db.Create(p).Error)
	return p
}

func daysFromNow(d int) *time.Time {
	ts := time.Now().AddDate(0, 0, d)
	return &ts
}

func TestNextInventoryIDSequence(t *testing.T) {
	db := newTestDB(t)
	p := createProduct(t, db, "Amoxicillin 500mg")

	id, err := NextInventoryID(db)
	require.NoError(t, err)
	assert.Equal(t, "INV00001", id)

	_, err = AddBatch(db, p.ID, p.Name, 1, nil, 10)
	require.NoError(t, err)

	id, err = NextInventoryID(db)
	require.NoError(t, err)
	assert.Equal(t, "INV00002", id)
}

func TestNextBatchIDScopedToMonth(t *testing.T) {
	db := newTestDB(t)
	now := time.Now()
	prefix := now.Format("01-06")

	id, err := NextBatchID(db, now)
	require.NoError(t, err)
	assert.Equal(t, prefix+"-001", id)

	p := createProduct(t, db, "Ivermectin")
	_, err = AddBatch(db, p.ID, p.Name, 1, nil, 5)
	require.NoError(t, err)

	id, err = NextBatchID(db, now)
	require.NoError(t, err)
	assert.Equal(t, prefix+"-002", id)

	// a different month restarts the suffix
	nextMonth := now.AddDate(0, 1, 0)
	id, err = NextBatchID(db, nextMonth)
	require.NoError(t, err)
	assert.Equal(t, nextMonth.Format("01-06")+"-001", id)
}

func TestAddBatchUpdatesProductQOH(t *testing.T) {
	db := newTestDB(t)
	p := createProduct(t, db, "Doxycycline")

	_, err := AddBatch(db, p.ID, p.Name, 1, daysFromNow(90), 12)
	require.NoError(t, err)
	_, err = AddBatch(db, p.ID, p.Name, 1, daysFromNow(30), 8)
	require.NoError(t, err)

	var got models.Product
	require.NoError(t, db.First(&got, p.ID).Error)
	assert.Equal(t, int32(20), got.QuantityOnHand)
}

func TestDeductFEFODrainsEarliestExpiryFirst(t *testing.T) {
	db := newTestDB(t)
	p := createProduct(t, db, "Enrofloxacin")

	// batch A expires sooner but was added later than batch B
	batchB, err := AddBatch(db, p.ID, p.Name, 1, daysFromNow(180), 10)
	require.NoError(t, err)
	batchA, err := AddBatch(db, p.ID, p.Name, 2, daysFromNow(10), 4)
	require.NoError(t, err)

	deductions, err := DeductFEFO(db, p.ID, 10)
	require.NoError(t, err)
	require.Len(t, deductions, 2)
	assert.Equal(t, batchA.InventoryID, deductions[0].InventoryID)
	assert.Equal(t, int32(4), deductions[0].Qty)
	assert.Equal(t, batchB.InventoryID, deductions[1].InventoryID)
	assert.Equal(t, int32(6), deductions[1].Qty)

	var a, b models.Inventory
	require.NoError(t, db.First(&a, "inventory_id = ?", batchA.InventoryID).Error)
	require.NoError(t, db.First(&b, "inventory_id = ?", batchB.InventoryID).Error)
	assert.Equal(t, int32(0), a.QuantityOnHand)
	assert.Equal(t, int32(4), b.QuantityOnHand)

	var got models.Product
	require.NoError(t, db.First(&got, p.ID).Error)
	assert.Equal(t, int32(4), got.QuantityOnHand)
}

func TestDeductFEFOInsufficientStockWritesNothing(t *testing.T) {
	db := newTestDB(t)
	p := createProduct(t, db, "Ketamine")

	_, err := AddBatch(db, p.ID, p.Name, 1, daysFromNow(60), 3)
	require.NoError(t, err)

	_, err = DeductFEFO(db, p.ID, 5)
	require.ErrorIs(t, err, ErrInsufficientStock)

	var got models.Product
	require.NoError(t, db.First(&got, p.ID).Error)
	assert.Equal(t, int32(3), got.QuantityOnHand)
}

func TestDeductFEFONoBatches(t *testing.T) {
	db := newTestDB(t)
	p := createProduct(t, db, "Tolfenamic acid")

	_, err := DeductFEFO(db, p.ID, 1)
	require.ErrorIs(t, err, ErrNoBatches)
}

func TestDeductFEFOZeroQtyIsNoop(t *testing.T) {
	db := newTestDB(t)
	p := createProduct(t, db, "Praziquantel")

	deductions, err := DeductFEFO(db, p.ID, 0)
	require.NoError(t, err)
	assert.Empty(t, deductions)
}

func TestRestockTopsUpExistingBatch(t *testing.T) {
	db := newTestDB(t)
	p := createProduct(t, db, "Meloxicam")

	batch, err := AddBatch(db, p.ID, p.Name, 7, daysFromNow(120), 10)
	require.NoError(t, err)

	require.NoError(t, Restock(db, 7, p.ID, p.Name, 5))

	var got models.Inventory
	require.NoError(t, db.First(&got, "inventory_id = ?", batch.InventoryID).Error)
	assert.Equal(t, int32(15), got.QuantityOnHand)
}

func TestRestockCreatesBatchWhenNoneLeft(t *testing.T) {
	db := newTestDB(t)
	p := createProduct(t, db, "Oxytetracycline")

	require.NoError(t, Restock(db, 9, p.ID, p.Name, 6))

	var batches []models.Inventory
	require.NoError(t, db.Where("inbound_delivery_id = ?", 9).Find(&batches).Error)
	require.Len(t, batches, 1)
	assert.Equal(t, int32(6), batches[0].QuantityOnHand)

	var got models.Product
	require.NoError(t, db.First(&got, p.ID).Error)
	assert.Equal(t, int32(6), got.QuantityOnHand)
}
