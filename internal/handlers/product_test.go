package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"provet-system/internal/database/models"
	"provet-system/internal/stock"
)

func newCatalogRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	db := newTestDB(t)
	h := NewProductHandler(db, nil, testConfig(t))
	inv := NewInventoryHandler(db)

	r := gin.New()
	r.Use(asUser(1, "staff", models.AccTypeStaff))
	r.GET("/items/lowStock", h.LowStock)
	r.GET("/items/count", h.Count)
	r.GET("/items/:id", h.Get)
	r.POST("/items", h.Create)
	r.GET("/inventory/expiring", inv.ExpiringSoon)
	return r, db
}

func TestLowStockListsProductsAtOrBelowReorderLevel(t *testing.T) {
	r, db := newCatalogRouter(t)

	low := seedProduct(t, db, "Amoxicillin 500mg", 10)
	ok := seedProduct(t, db, "Ivermectin", 5)
	edge := seedProduct(t, db, "Doxycycline", 8)

	// low has 3 on hand, ok has 20, edge sits exactly at its level
	_, err := stock.AddBatch(db, low.ID, low.Name, 1, nil, 3)
	require.NoError(t, err)
	_, err = stock.AddBatch(db, ok.ID, ok.Name, 1, nil, 20)
	require.NoError(t, err)
	_, err = stock.AddBatch(db, edge.ID, edge.Name, 1, nil, 8)
	require.NoError(t, err)

	w := doJSON(t, r, http.MethodGet, "/items/lowStock", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var products []models.Product
	decodeData(t, w, &products)

	ids := make(map[int32]bool, len(products))
	for _, p := range products {
		ids[p.ID] = true
	}
	assert.True(t, ids[low.ID])
	assert.True(t, ids[edge.ID], "a product exactly at its reorder level is low stock")
	assert.False(t, ids[ok.ID])
}

func TestCreateProduct(t *testing.T) {
	r, db := newCatalogRouter(t)

	w := doJSON(t, r, http.MethodPost, "/items", gin.H{
		"name":          "Enrofloxacin",
		"reorder_level": 12,
		"reorder_qty":   48,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var product models.Product
	decodeData(t, w, &product)
	assert.Equal(t, "Enrofloxacin", product.Name)
	assert.Equal(t, int32(12), product.ReorderLevel)

	var count int64
	require.NoError(t, db.Model(&models.Product{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestExpiringSoonWindow(t *testing.T) {
	r, db := newCatalogRouter(t)
	p := seedProduct(t, db, "Meloxicam", 0)

	soon := time.Now().AddDate(0, 0, 10)
	far := time.Now().AddDate(0, 8, 0)
	_, err := stock.AddBatch(db, p.ID, p.Name, 1, &soon, 5)
	require.NoError(t, err)
	_, err = stock.AddBatch(db, p.ID, p.Name, 1, &far, 5)
	require.NoError(t, err)
	_, err = stock.AddBatch(db, p.ID, p.Name, 1, nil, 5)
	require.NoError(t, err)

	w := doJSON(t, r, http.MethodGet, "/inventory/expiring", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var batches []models.Inventory
	decodeData(t, w, &batches)
	require.Len(t, batches, 1, "only the batch inside the 30 day window qualifies")

	// widening the window picks up the later batch but never undated ones
	w = doJSON(t, r, http.MethodGet, "/inventory/expiring?days=365", nil)
	require.Equal(t, http.StatusOK, w.Code)
	decodeData(t, w, &batches)
	assert.Len(t, batches, 2)
}
