package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"provet-system/internal/database/models"
	"provet-system/internal/stock"
)

type IssueHandler struct {
	db *gorm.DB
}

func NewIssueHandler(db *gorm.DB) *IssueHandler {
	return &IssueHandler{db: db}
}

type issueItemRequest struct {
	ProductID   int32           `json:"product_id" binding:"required"`
	ProductName string          `json:"product_name"`
	QtyDefect   int32           `json:"qty_defect" binding:"required,gt=0"`
	Price       decimal.Decimal `json:"price"`
}

type issueRequest struct {
	DeliveryKind models.DeliveryKind `json:"delivery_kind" binding:"required"`
	DeliveryID   int64               `json:"delivery_id" binding:"required"`
	IssueType    models.IssueType    `json:"issue_type" binding:"required"`
	Remarks      *string             `json:"remarks"`
	Items        []issueItemRequest  `json:"items" binding:"required,min=1,dive"`
}

// Create opens an issue against a delivered inbound or outbound delivery.
// The kind decides which table the delivery reference is checked against and
// which counterparty gets stamped on the issue.
func (h *IssueHandler) Create(c *gin.Context) {
	var req issueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	switch req.IssueType {
	case models.IssueTypeDamaged, models.IssueTypeMissing, models.IssueTypeWrongItem:
	default:
		fail(c, http.StatusBadRequest, "Unknown issue type")
		return
	}

	var issue models.DeliveryIssue
	txErr := h.db.Transaction(func(tx *gorm.DB) error {
		issue = models.DeliveryIssue{
			DeliveryKind: req.DeliveryKind,
			DeliveryID:   req.DeliveryID,
			Status:       models.IssueStatusPending,
			IssueType:    req.IssueType,
			Remarks:      req.Remarks,
		}

		switch req.DeliveryKind {
		case models.DeliveryKindInbound:
			var delivery models.InboundDelivery
			if err := tx.First(&delivery, req.DeliveryID).Error; err != nil {
				return err
			}
			issue.OrderType = "Purchase"
			issue.SupplierID = &delivery.SupplierID
			issue.SupplierName = &delivery.SupplierName
		case models.DeliveryKindOutbound:
			var delivery models.OutboundDelivery
			if err := tx.First(&delivery, req.DeliveryID).Error; err != nil {
				return err
			}
			issue.OrderType = "Sales"
			issue.CustomerID = delivery.ClientID
			issue.CustomerName = &delivery.CustomerName
		default:
			return fmt.Errorf("unknown delivery kind %q", req.DeliveryKind)
		}

		if err := tx.Create(&issue).Error; err != nil {
			return err
		}

		for _, item := range req.Items {
			name := item.ProductName
			if name == "" {
				var product models.Product
				if err := tx.First(&product, item.ProductID).Error; err != nil {
					return err
				}
				name = product.Name
			}
			itemIssue := models.DeliveryItemIssue{
				IssueNo:     issue.IssueNo,
				ProductID:   item.ProductID,
				ProductName: name,
				QtyDefect:   item.QtyDefect,
				Price:       item.Price,
			}
			if err := tx.Create(&itemIssue).Error; err != nil {
				return err
			}
			issue.ItemIssues = append(issue.ItemIssues, itemIssue)
		}
		return nil
	})
	if txErr == gorm.ErrRecordNotFound {
		fail(c, http.StatusBadRequest, "Referenced delivery not found")
		return
	}
	if txErr != nil {
		fail(c, http.StatusBadRequest, txErr.Error())
		return
	}

	appendLog(h.db, c, models.LogTypeTransaction,
		fmt.Sprintf("Opened delivery issue #%d (%s on %s delivery #%d)",
			issue.IssueNo, issue.IssueType, issue.DeliveryKind, issue.DeliveryID))
	created(c, issue)
}

func (h *IssueHandler) List(c *gin.Context) {
	query := h.db.Model(&models.DeliveryIssue{}).Order("created_at DESC")
	if status := parseStringQuery(c, "status"); status != nil {
		query = query.Where("status = ?", *status)
	}
	if kind := parseStringQuery(c, "delivery_kind"); kind != nil {
		query = query.Where("delivery_kind = ?", *kind)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		fail(c, http.StatusInternalServerError, "database error")
		return
	}

	p := buildPagination(c)
	var issues []models.DeliveryIssue
	if err := query.Offset(p.offset()).Limit(p.PageSize).Find(&issues).Error; err != nil {
		fail(c, http.StatusInternalServerError, "database error")
		return
	}
	paginated(c, issues, total, p)
}

func (h *IssueHandler) Get(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid issue number")
		return
	}

	var issue models.DeliveryIssue
	if err := h.db.Preload("ItemIssues").First(&issue, id).Error; err != nil {
		fail(c, http.StatusNotFound, "Issue not found")
		return
	}
	success(c, issue)
}

type resolveIssueRequest struct {
	Resolution models.IssueResolution `json:"resolution" binding:"required"`
	Remarks    *string                `json:"remarks"`
}

// Resolve settles a pending issue. Offset writes the loss off with no stock
// movement. Replacement moves stock: for an inbound issue the supplier sends
// good units that are restocked; for an outbound issue replacement units are
// deducted from stock and a hold records the promise until it ships.
func (h *IssueHandler) Resolve(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid issue number")
		return
	}

	var req resolveIssueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Resolution != models.ResolutionOffset && req.Resolution != models.ResolutionReplacement {
		fail(c, http.StatusBadRequest, "Unknown resolution")
		return
	}

	var issue models.DeliveryIssue
	txErr := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("ItemIssues").First(&issue, id).Error; err != nil {
			return err
		}
		if issue.IsResolved {
			return errAlreadyFinal
		}

		if req.Resolution == models.ResolutionReplacement {
			switch issue.DeliveryKind {
			case models.DeliveryKindInbound:
				for _, item := range issue.ItemIssues {
					if err := stock.Restock(tx, issue.DeliveryID, item.ProductID, item.ProductName, item.QtyDefect); err != nil {
						return err
					}
				}
			case models.DeliveryKindOutbound:
				for _, item := range issue.ItemIssues {
					if _, err := stock.DeductFEFO(tx, item.ProductID, item.QtyDefect); err != nil {
						return fmt.Errorf("product %s: %w", item.ProductName, err)
					}
					hold := models.ReplacementHold{
						IssueNo:     issue.IssueNo,
						ProductID:   item.ProductID,
						ProductName: item.ProductName,
						QtyHeld:     item.QtyDefect,
					}
					if err := tx.Create(&hold).Error; err != nil {
						return err
					}
				}
			}
		}

		resolution := req.Resolution
		issue.Status = models.IssueStatusResolved
		issue.Resolution = &resolution
		issue.IsResolved = true
		if req.Remarks != nil {
			issue.Remarks = req.Remarks
		}
		return tx.Model(&models.DeliveryIssue{}).Where("issue_no = ?", issue.IssueNo).Updates(map[string]interface{}{
			"status":      models.IssueStatusResolved,
			"resolution":  resolution,
			"is_resolved": true,
			"remarks":     issue.Remarks,
		}).Error
	})
	if txErr == errAlreadyFinal {
		fail(c, http.StatusConflict, "Issue has already been resolved")
		return
	}
	if txErr == gorm.ErrRecordNotFound {
		fail(c, http.StatusNotFound, "Issue not found")
		return
	}
	if errors.Is(txErr, stock.ErrInsufficientStock) {
		fail(c, http.StatusConflict, txErr.Error())
		return
	}
	if txErr != nil {
		fail(c, http.StatusInternalServerError, "Failed to resolve issue")
		return
	}

	appendLog(h.db, c, models.LogTypeTransaction,
		fmt.Sprintf("Resolved issue #%d via %s", issue.IssueNo, *issue.Resolution))
	success(c, issue)
}

// ReleaseHold marks a replacement hold as shipped out.
func (h *IssueHandler) ReleaseHold(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid hold ID")
		return
	}

	var hold models.ReplacementHold
	if err := h.db.First(&hold, id).Error; err != nil {
		fail(c, http.StatusNotFound, "Replacement hold not found")
		return
	}
	if hold.Released {
		fail(c, http.StatusConflict, "Hold has already been released")
		return
	}

	if err := h.db.Model(&hold).Update("released", true).Error; err != nil {
		fail(c, http.StatusInternalServerError, "Failed to release hold")
		return
	}
	hold.Released = true
	success(c, hold)
}

func (h *IssueHandler) ListHolds(c *gin.Context) {
	query := h.db.Model(&models.ReplacementHold{}).Order("created_at DESC")
	if released := parseBoolQuery(c, "released"); released != nil {
		query = query.Where("released = ?", *released)
	}

	var holds []models.ReplacementHold
	if err := query.Find(&holds).Error; err != nil {
		fail(c, http.StatusInternalServerError, "database error")
		return
	}
	success(c, holds)
}

func (h *IssueHandler) PendingCount(c *gin.Context) {
	var total int64
	if err := h.db.Model(&models.DeliveryIssue{}).
		Where("status = ?", models.IssueStatusPending).Count(&total).Error; err != nil {
		fail(c, http.StatusInternalServerError, "database error")
		return
	}
	success(c, gin.H{"total": total})
}
