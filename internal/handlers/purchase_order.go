package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"provet-system/internal/database/models"
	"provet-system/internal/middleware"
)

type PurchaseOrderHandler struct {
	db *gorm.DB
}

func NewPurchaseOrderHandler(db *gorm.DB) *PurchaseOrderHandler {
	return &PurchaseOrderHandler{db: db}
}

type purchaseOrderLineRequest struct {
	ProductID   *int32 `json:"product_id"`
	ProductName string `json:"product_name" binding:"required"`
	LineQty     int32  `json:"line_qty" binding:"required,gt=0"`
}

type purchaseOrderRequest struct {
	SupplierID     *int32                     `json:"supplier_id"`
	SupplierName   string                     `json:"supplier_name" binding:"required"`
	SupplierNumber string                     `json:"supplier_number"`
	ContactPerson  string                     `json:"contact_person"`
	ContactNumber  string                     `json:"contact_number"`
	Lines          []purchaseOrderLineRequest `json:"lines" binding:"required,min=1,dive"`
}

func (h *PurchaseOrderHandler) Create(c *gin.Context) {
	var req purchaseOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	userID := middleware.UserID(c)

	var order models.PurchaseOrder
	err := h.db.Transaction(func(tx *gorm.DB) error {
		supplier, err := findOrCreateSupplier(tx, req.SupplierName, req.SupplierNumber, req.ContactPerson, req.ContactNumber)
		if err != nil {
			return err
		}

		order = models.PurchaseOrder{
			Status:          models.OrderStatusPending,
			SupplierID:      supplier.ID,
			SupplierName:    supplier.CompanyName,
			SupplierNumber:  supplier.CompanyNumber,
			ContactPerson:   supplier.ContactPerson,
			ContactNumber:   supplier.ContactNumber,
			CreatedByUserID: &userID,
		}
		if err := tx.Create(&order).Error; err != nil {
			return err
		}

		var totalQty int32
		for _, line := range req.Lines {
			product, err := findOrCreateProduct(tx, line.ProductID, line.ProductName)
			if err != nil {
				return err
			}
			detail := models.PurchaseOrderDetail{
				PurchaseOrderID: order.ID,
				ProductID:       product.ID,
				ProductName:     product.Name,
				LineQty:         line.LineQty,
			}
			if err := tx.Create(&detail).Error; err != nil {
				return err
			}
			totalQty += line.LineQty
		}

		order.TotalQty = totalQty
		return tx.Model(&order).Update("total_qty", totalQty).Error
	})
	if err != nil {
		fail(c, http.StatusInternalServerError, "Failed to create purchase order")
		return
	}

	appendLog(h.db, c, models.LogTypeTransaction,
		fmt.Sprintf("Created purchase order #%d for %s", order.ID, order.SupplierName))
	created(c, order)
}

func (h *PurchaseOrderHandler) List(c *gin.Context) {
	query := h.db.Model(&models.PurchaseOrder{}).Order("created_at DESC")
	if status := parseStringQuery(c, "status"); status != nil {
		query = query.Where("status = ?", *status)
	}
	if search := parseStringQuery(c, "search"); search != nil {
		query = query.Where("supplier_name ILIKE ?", "%"+*search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		fail(c, http.StatusInternalServerError, "database error")
		return
	}

	p := buildPagination(c)
	var orders []models.PurchaseOrder
	if err := query.Offset(p.offset()).Limit(p.PageSize).Find(&orders).Error; err != nil {
		fail(c, http.StatusInternalServerError, "database error")
		return
	}
	paginated(c, orders, total, p)
}

func (h *PurchaseOrderHandler) Get(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid order ID")
		return
	}

	var order models.PurchaseOrder
	if err := h.db.Preload("Details").Preload("Supplier").First(&order, id).Error; err != nil {
		fail(c, http.StatusNotFound, "Purchase order not found")
		return
	}
	success(c, order)
}

func (h *PurchaseOrderHandler) GetDetails(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid order ID")
		return
	}

	var details []models.PurchaseOrderDetail
	if err := h.db.Where("purchase_order_id = ?", id).Find(&details).Error; err != nil {
		fail(c, http.StatusInternalServerError, "database error")
		return
	}
	success(c, details)
}

// Accept moves a pending purchase order to Accepted and opens exactly one
// inbound delivery for it. Repeat accepts get 409.
func (h *PurchaseOrderHandler) Accept(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid order ID")
		return
	}

	var delivery models.InboundDelivery
	txErr := h.db.Transaction(func(tx *gorm.DB) error {
		var order models.PurchaseOrder
		if err := tx.Preload("Details").First(&order, id).Error; err != nil {
			return err
		}
		if order.Status != models.OrderStatusPending {
			return errAlreadyAccepted
		}

		if err := tx.Model(&order).Update("status", models.OrderStatusAccepted).Error; err != nil {
			return err
		}

		delivery = models.InboundDelivery{
			PurchaseOrderID: order.ID,
			SupplierID:      order.SupplierID,
			SupplierName:    order.SupplierName,
			Status:          models.DeliveryStatusPending,
			TotalOrderedQty: order.TotalQty,
			ApprovedBy:      middleware.Username(c),
		}
		if err := tx.Create(&delivery).Error; err != nil {
			return err
		}

		for _, line := range order.Details {
			detail := models.InboundDeliveryDetail{
				InboundDeliveryID: delivery.ID,
				ProductID:         line.ProductID,
				ProductName:       line.ProductName,
				OrderedQty:        line.LineQty,
			}
			if err := tx.Create(&detail).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if txErr == errAlreadyAccepted {
		fail(c, http.StatusConflict, "Purchase order has already been accepted")
		return
	}
	if txErr == gorm.ErrRecordNotFound {
		fail(c, http.StatusNotFound, "Purchase order not found")
		return
	}
	if txErr != nil {
		fail(c, http.StatusInternalServerError, "Failed to accept purchase order")
		return
	}

	appendLog(h.db, c, models.LogTypeTransaction,
		fmt.Sprintf("Accepted purchase order #%d, inbound delivery #%d opened", id, delivery.ID))
	success(c, gin.H{"order_id": id, "inbound_delivery": delivery})
}

// Update replaces the lines of a purchase order that has not been accepted yet.
func (h *PurchaseOrderHandler) Update(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid order ID")
		return
	}

	var req struct {
		Lines []purchaseOrderLineRequest `json:"lines" binding:"required,min=1,dive"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	var order models.PurchaseOrder
	txErr := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&order, id).Error; err != nil {
			return err
		}
		if order.Status != models.OrderStatusPending {
			return errAlreadyAccepted
		}

		if err := tx.Where("purchase_order_id = ?", order.ID).Delete(&models.PurchaseOrderDetail{}).Error; err != nil {
			return err
		}

		var totalQty int32
		for _, line := range req.Lines {
			product, err := findOrCreateProduct(tx, line.ProductID, line.ProductName)
			if err != nil {
				return err
			}
			detail := models.PurchaseOrderDetail{
				PurchaseOrderID: order.ID,
				ProductID:       product.ID,
				ProductName:     product.Name,
				LineQty:         line.LineQty,
			}
			if err := tx.Create(&detail).Error; err != nil {
				return err
			}
			totalQty += line.LineQty
		}

		order.TotalQty = totalQty
		return tx.Model(&order).Update("total_qty", totalQty).Error
	})
	if txErr == errAlreadyAccepted {
		fail(c, http.StatusConflict, "Accepted purchase orders can no longer be edited")
		return
	}
	if txErr == gorm.ErrRecordNotFound {
		fail(c, http.StatusNotFound, "Purchase order not found")
		return
	}
	if txErr != nil {
		fail(c, http.StatusInternalServerError, "Failed to update purchase order")
		return
	}
	success(c, order)
}

func (h *PurchaseOrderHandler) UpdateStatus(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid order ID")
		return
	}

	var req struct {
		Status models.OrderStatus `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Status == models.OrderStatusAccepted {
		fail(c, http.StatusBadRequest, "Use the accept endpoint to accept an order")
		return
	}

	var order models.PurchaseOrder
	if err := h.db.First(&order, id).Error; err != nil {
		fail(c, http.StatusNotFound, "Purchase order not found")
		return
	}

	if err := h.db.Model(&order).Update("status", req.Status).Error; err != nil {
		fail(c, http.StatusInternalServerError, "Failed to update purchase order")
		return
	}
	order.Status = req.Status
	success(c, order)
}

func (h *PurchaseOrderHandler) PendingCount(c *gin.Context) {
	var total int64
	if err := h.db.Model(&models.PurchaseOrder{}).
		Where("status = ?", models.OrderStatusPending).Count(&total).Error; err != nil {
		fail(c, http.StatusInternalServerError, "database error")
		return
	}
	success(c, gin.H{"total": total})
}

func (h *PurchaseOrderHandler) Delete(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid order ID")
		return
	}

	var order models.PurchaseOrder
	if err := h.db.First(&order, id).Error; err != nil {
		fail(c, http.StatusNotFound, "Purchase order not found")
		return
	}
	if order.Status != models.OrderStatusPending {
		fail(c, http.StatusConflict, "Only pending purchase orders can be deleted")
		return
	}

	err = h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("purchase_order_id = ?", id).Delete(&models.PurchaseOrderDetail{}).Error; err != nil {
			return err
		}
		return tx.Delete(&order).Error
	})
	if err != nil {
		fail(c, http.StatusInternalServerError, "Failed to delete purchase order")
		return
	}
	c.JSON(http.StatusNoContent, nil)
}
