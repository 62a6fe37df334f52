package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"provet-system/internal/database/models"
	"provet-system/internal/stock"
)

type InventoryHandler struct {
	db *gorm.DB
}

func NewInventoryHandler(db *gorm.DB) *InventoryHandler {
	return &InventoryHandler{db: db}
}

func (h *InventoryHandler) List(c *gin.Context) {
	query := h.db.Model(&models.Inventory{}).Order("expiry_date ASC NULLS LAST, inventory_id ASC")
	if productID := parseIntQuery(c, "product_id"); productID != nil {
		query = query.Where("product_id = ?", *productID)
	}
	if search := parseStringQuery(c, "search"); search != nil {
		query = query.Where("product_name ILIKE ? OR batch_id ILIKE ?", "%"+*search+"%", "%"+*search+"%")
	}
	if inStock := parseBoolQuery(c, "in_stock"); inStock != nil && *inStock {
		query = query.Where("quantity_on_hand > 0")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		fail(c, http.StatusInternalServerError, "database error")
		return
	}

	p := buildPagination(c)
	var batches []models.Inventory
	if err := query.Offset(p.offset()).Limit(p.PageSize).Find(&batches).Error; err != nil {
		fail(c, http.StatusInternalServerError, "database error")
		return
	}
	paginated(c, batches, total, p)
}

func (h *InventoryHandler) Get(c *gin.Context) {
	id := c.Param("id")
	var batch models.Inventory
	if err := h.db.Preload("Product").First(&batch, "inventory_id = ?", id).Error; err != nil {
		fail(c, http.StatusNotFound, "Inventory batch not found")
		return
	}
	success(c, batch)
}

type addBatchRequest struct {
	ProductID         int32      `json:"product_id" binding:"required"`
	InboundDeliveryID int64      `json:"inbound_delivery_id"`
	ExpiryDate        *time.Time `json:"expiry_date"`
	Quantity          int32      `json:"quantity" binding:"required,gt=0"`
}

// AddBatch creates a stock batch by hand, outside the inbound delivery flow.
// Used for opening balances and stock corrections.
func (h *InventoryHandler) AddBatch(c *gin.Context) {
	var req addBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	var batch *models.Inventory
	err := h.db.Transaction(func(tx *gorm.DB) error {
		var product models.Product
		if err := tx.First(&product, req.ProductID).Error; err != nil {
			return err
		}
		b, err := stock.AddBatch(tx, product.ID, product.Name, req.InboundDeliveryID, req.ExpiryDate, req.Quantity)
		if err != nil {
			return err
		}
		batch = b
		return nil
	})
	if err == gorm.ErrRecordNotFound {
		fail(c, http.StatusBadRequest, "Unknown product")
		return
	}
	if err != nil {
		fail(c, http.StatusInternalServerError, "Failed to add inventory batch")
		return
	}

	appendLog(h.db, c, models.LogTypeTransaction,
		fmt.Sprintf("Added inventory batch %s (%d units of %s)", batch.BatchID, batch.QuantityOnHand, batch.ProductName))
	created(c, batch)
}

type adjustBatchRequest struct {
	QuantityOnHand int32 `json:"quantity_on_hand" binding:"gte=0"`
}

func (h *InventoryHandler) AdjustBatch(c *gin.Context) {
	id := c.Param("id")

	var req adjustBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	var batch models.Inventory
	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&batch, "inventory_id = ?", id).Error; err != nil {
			return err
		}
		batch.QuantityOnHand = req.QuantityOnHand
		return tx.Save(&batch).Error
	})
	if err == gorm.ErrRecordNotFound {
		fail(c, http.StatusNotFound, "Inventory batch not found")
		return
	}
	if err != nil {
		fail(c, http.StatusInternalServerError, "Failed to adjust inventory batch")
		return
	}

	appendLog(h.db, c, models.LogTypeTransaction,
		fmt.Sprintf("Adjusted batch %s to %d units", batch.BatchID, batch.QuantityOnHand))
	success(c, batch)
}

func (h *InventoryHandler) DeleteBatch(c *gin.Context) {
	id := c.Param("id")

	err := h.db.Transaction(func(tx *gorm.DB) error {
		var batch models.Inventory
		if err := tx.First(&batch, "inventory_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&batch).Error
	})
	if err == gorm.ErrRecordNotFound {
		fail(c, http.StatusNotFound, "Inventory batch not found")
		return
	}
	if err != nil {
		fail(c, http.StatusInternalServerError, "Failed to delete inventory batch")
		return
	}
	c.JSON(http.StatusNoContent, nil)
}

// ExpiringSoon lists batches with stock whose expiry falls within the window,
// nearest expiry first. Default window is 30 days.
func (h *InventoryHandler) ExpiringSoon(c *gin.Context) {
	days := int32(30)
	if d := parseIntQuery(c, "days"); d != nil && *d > 0 {
		days = *d
	}
	cutoff := time.Now().AddDate(0, 0, int(days))

	var batches []models.Inventory
	if err := h.db.Where("quantity_on_hand > 0 AND expiry_date IS NOT NULL AND expiry_date <= ?", cutoff).
		Order("expiry_date ASC").Find(&batches).Error; err != nil {
		fail(c, http.StatusInternalServerError, "database error")
		return
	}
	success(c, batches)
}

// StockValue sums quantity x catalog price over all batches with stock.
func (h *InventoryHandler) StockValue(c *gin.Context) {
	var batches []models.Inventory
	if err := h.db.Preload("Product").Preload("Product.Details").
		Where("quantity_on_hand > 0").Find(&batches).Error; err != nil {
		fail(c, http.StatusInternalServerError, "database error")
		return
	}

	totalValue := decimal.Zero
	var totalUnits int32
	for _, b := range batches {
		totalUnits += b.QuantityOnHand
		if b.Product != nil && b.Product.Details != nil {
			totalValue = totalValue.Add(b.Product.Details.Price.Mul(decimal.NewFromInt32(b.QuantityOnHand)))
		}
	}
	success(c, gin.H{
		"total_units": totalUnits,
		"total_value": totalValue,
		"batches":     len(batches),
	})
}

func (h *InventoryHandler) Count(c *gin.Context) {
	var total int64
	if err := h.db.Model(&models.Inventory{}).Where("quantity_on_hand > 0").Count(&total).Error; err != nil {
		fail(c, http.StatusInternalServerError, "database error")
		return
	}
	success(c, gin.H{"total": total})
}
