package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"provet-system/internal/database/models"
	"provet-system/internal/middleware"
	"provet-system/internal/stock"
)

type OutboundDeliveryHandler struct {
	db *gorm.DB
}

func NewOutboundDeliveryHandler(db *gorm.DB) *OutboundDeliveryHandler {
	return &OutboundDeliveryHandler{db: db}
}

func (h *OutboundDeliveryHandler) List(c *gin.Context) {
	query := h.db.Model(&models.OutboundDelivery{}).Order("created_at DESC")
	if status := parseStringQuery(c, "status"); status != nil {
		query = query.Where("status = ?", *status)
	}
	if search := parseStringQuery(c, "search"); search != nil {
		query = query.Where("customer_name ILIKE ?", "%"+*search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		fail(c, http.StatusInternalServerError, "database error")
		return
	}

	p := buildPagination(c)
	var deliveries []models.OutboundDelivery
	if err := query.Offset(p.offset()).Limit(p.PageSize).Find(&deliveries).Error; err != nil {
		fail(c, http.StatusInternalServerError, "database error")
		return
	}
	paginated(c, deliveries, total, p)
}

func (h *OutboundDeliveryHandler) Get(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid delivery ID")
		return
	}

	var delivery models.OutboundDelivery
	if err := h.db.Preload("Details").Preload("SalesOrder").First(&delivery, id).Error; err != nil {
		fail(c, http.StatusNotFound, "Outbound delivery not found")
		return
	}
	success(c, delivery)
}

func (h *OutboundDeliveryHandler) GetDetails(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid delivery ID")
		return
	}

	var details []models.OutboundDeliveryDetail
	if err := h.db.Where("outbound_delivery_id = ?", id).Find(&details).Error; err != nil {
		fail(c, http.StatusInternalServerError, "database error")
		return
	}
	success(c, details)
}

// Dispatch deducts stock for every line using first-expired-first-out batch
// order, all in one transaction. If any line cannot be covered nothing is
// deducted and the delivery stays Pending.
func (h *OutboundDeliveryHandler) Dispatch(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid delivery ID")
		return
	}

	var delivery models.OutboundDelivery
	txErr := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Details").First(&delivery, id).Error; err != nil {
			return err
		}
		if delivery.Status != models.DeliveryStatusPending {
			return errAlreadyFinal
		}

		for _, line := range delivery.Details {
			if _, err := stock.DeductFEFO(tx, line.ProductID, line.QtyOrdered); err != nil {
				return fmt.Errorf("product %s: %w", line.ProductName, err)
			}
		}

		now := time.Now()
		delivery.Status = models.DeliveryStatusDispatched
		delivery.ShippedDate = &now
		if err := tx.Model(&models.OutboundDelivery{}).Where("id = ?", delivery.ID).Updates(map[string]interface{}{
			"status":       models.DeliveryStatusDispatched,
			"shipped_date": now,
		}).Error; err != nil {
			return err
		}

		return tx.Model(&models.SalesOrder{}).Where("id = ?", delivery.SalesOrderID).
			Update("status", models.OrderStatusShipped).Error
	})
	if txErr == errAlreadyFinal {
		fail(c, http.StatusConflict, "Delivery has already been dispatched")
		return
	}
	if txErr == gorm.ErrRecordNotFound {
		fail(c, http.StatusNotFound, "Outbound delivery not found")
		return
	}
	if errors.Is(txErr, stock.ErrInsufficientStock) {
		fail(c, http.StatusConflict, txErr.Error())
		return
	}
	if txErr != nil {
		fail(c, http.StatusInternalServerError, "Failed to dispatch delivery")
		return
	}

	appendLog(h.db, c, models.LogTypeTransaction,
		fmt.Sprintf("Dispatched outbound delivery #%d", delivery.ID))
	success(c, delivery)
}

type outboundReceiptLine struct {
	DetailID    int64 `json:"detail_id" binding:"required"`
	QtyAccepted int32 `json:"qty_accepted" binding:"gte=0"`
}

type outboundReceiptRequest struct {
	Lines []outboundReceiptLine `json:"lines"`
}

// nextInvoiceID issues the next sequential invoice number. Callers must hold
// the surrounding transaction so two receipts cannot mint the same number.
func nextInvoiceID(tx *gorm.DB) (string, error) {
	var last models.SalesInvoice
	err := tx.Order("invoice_id DESC").First(&last).Error
	if err == gorm.ErrRecordNotFound {
		return "INV001", nil
	}
	if err != nil {
		return "", err
	}
	var seq int
	if _, err := fmt.Sscanf(last.InvoiceID, "INV%d", &seq); err != nil {
		return "", fmt.Errorf("malformed invoice id %q", last.InvoiceID)
	}
	return fmt.Sprintf("INV%03d", seq+1), nil
}

// MarkDelivered closes out a dispatched delivery: per-line accepted counts
// are recorded, then the customer payment and the sales invoice are created
// together. Lines not mentioned in the request count as fully accepted.
func (h *OutboundDeliveryHandler) MarkDelivered(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid delivery ID")
		return
	}

	var req outboundReceiptRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		fail(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	accepted := make(map[int64]int32, len(req.Lines))
	for _, line := range req.Lines {
		accepted[line.DetailID] = line.QtyAccepted
	}

	userID := middleware.UserID(c)
	var delivery models.OutboundDelivery
	var invoice models.SalesInvoice
	txErr := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Details").First(&delivery, id).Error; err != nil {
			return err
		}
		if delivery.Status != models.DeliveryStatusDispatched {
			return errAlreadyFinal
		}

		var deliveredQty int32
		hasIssues := false
		for i := range delivery.Details {
			detail := &delivery.Details[i]
			qty, ok := accepted[detail.ID]
			if !ok {
				qty = detail.QtyOrdered
			}
			if qty > detail.QtyOrdered {
				return fmt.Errorf("accepted quantity %d exceeds ordered %d on line %d",
					qty, detail.QtyOrdered, detail.ID)
			}
			detail.QtyAccepted = qty
			detail.QtyDefect = detail.QtyOrdered - qty
			if err := tx.Save(detail).Error; err != nil {
				return err
			}
			if detail.QtyDefect > 0 {
				hasIssues = true
			}
			deliveredQty += qty
		}

		now := time.Now()
		due := now.AddDate(0, 0, int(delivery.PaymentTerms))
		status := models.DeliveryStatusDelivered
		if hasIssues {
			status = models.DeliveryStatusDeliveredWithIssues
		}

		delivery.Status = status
		delivery.ReceivedDate = &now
		delivery.DeliveredQty = deliveredQty
		if err := tx.Model(&models.OutboundDelivery{}).Where("id = ?", delivery.ID).Updates(map[string]interface{}{
			"status":        status,
			"received_date": now,
			"delivered_qty": deliveredQty,
		}).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.SalesOrder{}).Where("id = ?", delivery.SalesOrderID).
			Update("status", models.OrderStatusDelivered).Error; err != nil {
			return err
		}

		var clientID int32
		if delivery.ClientID != nil {
			clientID = *delivery.ClientID
		}
		payment := models.CustomerPayment{
			OutboundDeliveryID: delivery.ID,
			ClientID:           clientID,
			ClientName:         delivery.CustomerName,
			PaymentTerms:       delivery.PaymentTerms,
			PaymentStartDate:   now,
			PaymentDueDate:     &due,
			PaymentStatus:      models.PaymentStatusUnpaid,
			AmountBalance:      delivery.TotalPrice,
			CreatedByUserID:    &userID,
		}
		if delivery.PaymentOption != nil {
			payment.PaymentMethod = *delivery.PaymentOption
		}
		if err := tx.Create(&payment).Error; err != nil {
			return err
		}

		invoiceID, err := nextInvoiceID(tx)
		if err != nil {
			return err
		}
		invoice = models.SalesInvoice{
			InvoiceID:          invoiceID,
			Discount:           delivery.Discount,
			TotalPrice:         delivery.TotalPrice,
			ClientID:           clientID,
			ClientName:         delivery.CustomerName,
			PaymentID:          &payment.ID,
			OutboundDeliveryID: &delivery.ID,
			CreatedByUserID:    &userID,
		}
		if err := tx.Create(&invoice).Error; err != nil {
			return err
		}

		totalRevenue := decimal.Zero
		totalIncome := decimal.Zero
		for _, detail := range delivery.Details {
			purchasePrice := decimal.Zero
			var product models.Product
			if err := tx.Preload("Details").First(&product, detail.ProductID).Error; err == nil && product.Details != nil {
				purchasePrice = product.Details.Price
			}
			item := models.SalesInvoiceItem{
				InvoiceID:     invoice.InvoiceID,
				ProductID:     detail.ProductID,
				ProductName:   detail.ProductName,
				QtyDelivered:  detail.QtyAccepted,
				SellPrice:     detail.SellPrice,
				PurchasePrice: purchasePrice,
			}
			item.ComputeLineTotals()
			if err := tx.Create(&item).Error; err != nil {
				return err
			}
			invoice.Items = append(invoice.Items, item)
			totalRevenue = totalRevenue.Add(item.GrossRevenue)
			totalIncome = totalIncome.Add(item.GrossIncome)
		}

		invoice.TotalGrossRevenue = totalRevenue
		invoice.TotalGrossIncome = totalIncome
		return tx.Model(&models.SalesInvoice{}).Where("invoice_id = ?", invoice.InvoiceID).Updates(map[string]interface{}{
			"total_gross_revenue": totalRevenue,
			"total_gross_income":  totalIncome,
		}).Error
	})
	if txErr == errAlreadyFinal {
		fail(c, http.StatusConflict, "Delivery is not in a dispatchable state")
		return
	}
	if txErr == gorm.ErrRecordNotFound {
		fail(c, http.StatusNotFound, "Outbound delivery not found")
		return
	}
	if txErr != nil {
		fail(c, http.StatusBadRequest, txErr.Error())
		return
	}

	appendLog(h.db, c, models.LogTypeTransaction,
		fmt.Sprintf("Completed outbound delivery #%d, invoice %s issued", delivery.ID, invoice.InvoiceID))
	success(c, gin.H{"delivery": delivery, "invoice": invoice})
}

func (h *OutboundDeliveryHandler) UpdateStatus(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid delivery ID")
		return
	}

	var req struct {
		Status models.DeliveryStatus `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	switch req.Status {
	case models.DeliveryStatusDispatched, models.DeliveryStatusDelivered, models.DeliveryStatusDeliveredWithIssues:
		fail(c, http.StatusBadRequest, "Use the dispatch and receive endpoints for delivery progress")
		return
	}

	var delivery models.OutboundDelivery
	if err := h.db.First(&delivery, id).Error; err != nil {
		fail(c, http.StatusNotFound, "Outbound delivery not found")
		return
	}

	if err := h.db.Model(&delivery).Update("status", req.Status).Error; err != nil {
		fail(c, http.StatusInternalServerError, "Failed to update delivery")
		return
	}
	delivery.Status = req.Status
	success(c, delivery)
}

func (h *OutboundDeliveryHandler) PendingCount(c *gin.Context) {
	var total int64
	if err := h.db.Model(&models.OutboundDelivery{}).
		Where("status = ?", models.DeliveryStatusPending).Count(&total).Error; err != nil {
		fail(c, http.StatusInternalServerError, "database error")
		return
	}
	success(c, gin.H{"total": total})
}
