package handlers

import (
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

type InboundDeliveryHandler struct {
	db *gorm.DB
}

func NewInboundDeliveryHandler(db *gorm.DB) *InboundDeliveryHandler {
	return &InboundDeliveryHandler{db: db}
}

func (h *InboundDeliveryHandler) List(c *gin.Context) {
	query := h.db.Model(&models.InboundDelivery{}).Order("created_at DESC")
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
	var deliveries []models.InboundDelivery
	if err := query.Offset(p.offset()).Limit(p.PageSize).Find(&deliveries).Error; err != nil {
		fail(c, http.StatusInternalServerError, "database error")
		return
	}
	paginated(c, deliveries, total, p)
}

func (h *InboundDeliveryHandler) Get(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid delivery ID")
		return
	}

	var delivery models.InboundDelivery
	if err := h.db.Preload("Details").Preload("PurchaseOrder").First(&delivery, id).Error; err != nil {
		fail(c, http.StatusNotFound, "Inbound delivery not found")
		return
	}
	success(c, delivery)
}

func (h *InboundDeliveryHandler) GetDetails(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid delivery ID")
		return
	}

	var details []models.InboundDeliveryDetail
	if err := h.db.Where("inbound_delivery_id = ?", id).Find(&details).Error; err != nil {
		fail(c, http.StatusInternalServerError, "database error")
		return
	}
	success(c, details)
}

type inboundReceiptLine struct {
	DetailID    int64            `json:"detail_id" binding:"required"`
	AcceptedQty int32            `json:"accepted_qty" binding:"gte=0"`
	LinePrice   *decimal.Decimal `json:"line_price"`
	ExpiryDate  *time.Time       `json:"expiry_date"`
}

type inboundReceiptRequest struct {
	ReceivedBy string               `json:"received_by"`
	Lines      []inboundReceiptLine `json:"lines" binding:"required,min=1,dive"`
}

// MarkDelivered records what actually arrived. Each accepted line becomes an
// inventory batch; shortfalls against the ordered quantity are kept as defect
// counts and flip the status to Delivered with Issues.
func (h *InboundDeliveryHandler) MarkDelivered(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid delivery ID")
		return
	}

	var req inboundReceiptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	var delivery models.InboundDelivery
	txErr := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Details").First(&delivery, id).Error; err != nil {
			return err
		}
		if delivery.Status == models.DeliveryStatusDelivered ||
			delivery.Status == models.DeliveryStatusDeliveredWithIssues {
			return errAlreadyFinal
		}

		byID := make(map[int64]*models.InboundDeliveryDetail, len(delivery.Details))
		for i := range delivery.Details {
			byID[delivery.Details[i].ID] = &delivery.Details[i]
		}

		var totalRcvd int32
		totalPrice := decimal.Zero
		hasIssues := false
		for _, line := range req.Lines {
			detail, ok := byID[line.DetailID]
			if !ok {
				return fmt.Errorf("delivery line %d not found", line.DetailID)
			}
			if line.AcceptedQty > detail.OrderedQty {
				return fmt.Errorf("accepted quantity %d exceeds ordered %d on line %d",
					line.AcceptedQty, detail.OrderedQty, line.DetailID)
			}

			detail.AcceptedQty = line.AcceptedQty
			detail.DefectQty = detail.OrderedQty - line.AcceptedQty
			detail.ExpiryDate = line.ExpiryDate
			if line.LinePrice != nil {
				detail.LinePrice = *line.LinePrice
			}
			if err := tx.Save(detail).Error; err != nil {
				return err
			}
			if detail.DefectQty > 0 {
				hasIssues = true
			}
			totalRcvd += line.AcceptedQty
			totalPrice = totalPrice.Add(detail.LinePrice.Mul(decimal.NewFromInt32(line.AcceptedQty)))

			if line.AcceptedQty > 0 {
				if _, err := stock.AddBatch(tx, detail.ProductID, detail.ProductName,
					delivery.ID, line.ExpiryDate, line.AcceptedQty); err != nil {
					return err
				}
			}
		}

		now := time.Now()
		receivedBy := req.ReceivedBy
		if receivedBy == "" {
			receivedBy = middleware.Username(c)
		}
		status := models.DeliveryStatusDelivered
		if hasIssues {
			status = models.DeliveryStatusDeliveredWithIssues
		}

		delivery.Status = status
		delivery.TotalRcvdQty = totalRcvd
		delivery.TotalPrice = totalPrice
		delivery.DateDelivered = &now
		delivery.ReceivedBy = &receivedBy
		if err := tx.Model(&models.InboundDelivery{}).Where("id = ?", delivery.ID).Updates(map[string]interface{}{
			"status":         status,
			"total_rcvd_qty": totalRcvd,
			"total_price":    totalPrice,
			"date_delivered": now,
			"received_by":    receivedBy,
		}).Error; err != nil {
			return err
		}

		return tx.Model(&models.PurchaseOrder{}).Where("id = ?", delivery.PurchaseOrderID).
			Update("status", models.OrderStatusDelivered).Error
	})
	if txErr == errAlreadyFinal {
		fail(c, http.StatusConflict, "Delivery has already been received")
		return
	}
	if txErr == gorm.ErrRecordNotFound {
		fail(c, http.StatusNotFound, "Inbound delivery not found")
		return
	}
	if txErr != nil {
		fail(c, http.StatusBadRequest, txErr.Error())
		return
	}

	appendLog(h.db, c, models.LogTypeTransaction,
		fmt.Sprintf("Received inbound delivery #%d, %d units into stock", delivery.ID, delivery.TotalRcvdQty))
	success(c, delivery)
}

func (h *InboundDeliveryHandler) UpdateStatus(c *gin.Context) {
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
	if req.Status == models.DeliveryStatusDelivered || req.Status == models.DeliveryStatusDeliveredWithIssues {
		fail(c, http.StatusBadRequest, "Use the receive endpoint to mark a delivery as delivered")
		return
	}

	var delivery models.InboundDelivery
	if err := h.db.First(&delivery, id).Error; err != nil {
		fail(c, http.StatusNotFound, "Inbound delivery not found")
		return
	}

	if err := h.db.Model(&delivery).Update("status", req.Status).Error; err != nil {
		fail(c, http.StatusInternalServerError, "Failed to update delivery")
		return
	}
	delivery.Status = req.Status
	success(c, delivery)
}

func (h *InboundDeliveryHandler) PendingCount(c *gin.Context) {
	var total int64
	if err := h.db.Model(&models.InboundDelivery{}).
		Where("status = ?", models.DeliveryStatusPending).Count(&total).Error; err != nil {
		fail(c, http.StatusInternalServerError, "database error")
		return
	}
	success(c, gin.H{"total": total})
}
