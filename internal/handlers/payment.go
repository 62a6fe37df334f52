package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"provet-system/internal/database/models"
)

type PaymentHandler struct {
	db *gorm.DB
}

func NewPaymentHandler(db *gorm.DB) *PaymentHandler {
	return &PaymentHandler{db: db}
}

func (h *PaymentHandler) List(c *gin.Context) {
	query := h.db.Model(&models.CustomerPayment{}).Order("created_at DESC")
	if status := parseStringQuery(c, "status"); status != nil {
		query = query.Where("payment_status = ?", *status)
	}
	if search := parseStringQuery(c, "search"); search != nil {
		query = query.Where("client_name ILIKE ?", "%"+*search+"%")
	}
	if clientID := parseIntQuery(c, "client_id"); clientID != nil {
		query = query.Where("client_id = ?", *clientID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		fail(c, http.StatusInternalServerError, "database error")
		return
	}

	p := buildPagination(c)
	var payments []models.CustomerPayment
	if err := query.Offset(p.offset()).Limit(p.PageSize).Find(&payments).Error; err != nil {
		fail(c, http.StatusInternalServerError, "database error")
		return
	}
	paginated(c, payments, total, p)
}

func (h *PaymentHandler) Get(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid payment ID")
		return
	}

	var payment models.CustomerPayment
	if err := h.db.First(&payment, id).Error; err != nil {
		fail(c, http.StatusNotFound, "Payment not found")
		return
	}
	success(c, payment)
}

type addPaymentRequest struct {
	Amount        decimal.Decimal `json:"amount" binding:"required"`
	PaymentMethod *string         `json:"payment_method"`
}

// AddPayment stacks a partial payment onto the outstanding balance and
// recomputes the status. Overpayment is rejected.
func (h *PaymentHandler) AddPayment(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid payment ID")
		return
	}

	var req addPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Amount.LessThanOrEqual(decimal.Zero) {
		fail(c, http.StatusBadRequest, "Payment amount must be positive")
		return
	}

	var payment models.CustomerPayment
	txErr := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&payment, id).Error; err != nil {
			return err
		}
		if payment.PaymentStatus == models.PaymentStatusPaid {
			return errAlreadyFinal
		}
		if req.Amount.GreaterThan(payment.AmountBalance) {
			return fmt.Errorf("amount %s exceeds outstanding balance %s",
				req.Amount.StringFixed(2), payment.AmountBalance.StringFixed(2))
		}

		payment.AmountPaid = payment.AmountPaid.Add(req.Amount)
		payment.AmountBalance = payment.AmountBalance.Sub(req.Amount)
		if payment.AmountBalance.IsZero() {
			payment.PaymentStatus = models.PaymentStatusPaid
		} else {
			payment.PaymentStatus = models.PaymentStatusPartiallyPaid
		}
		if req.PaymentMethod != nil {
			payment.PaymentMethod = *req.PaymentMethod
		}
		return tx.Save(&payment).Error
	})
	if txErr == errAlreadyFinal {
		fail(c, http.StatusConflict, "Payment has already been settled")
		return
	}
	if txErr == gorm.ErrRecordNotFound {
		fail(c, http.StatusNotFound, "Payment not found")
		return
	}
	if txErr != nil {
		fail(c, http.StatusBadRequest, txErr.Error())
		return
	}

	appendLog(h.db, c, models.LogTypeTransaction,
		fmt.Sprintf("Recorded payment of %s on #%d, balance %s",
			req.Amount.StringFixed(2), payment.ID, payment.AmountBalance.StringFixed(2)))
	success(c, payment)
}

// Outstanding lists unpaid and partially paid payments, oldest due first.
func (h *PaymentHandler) Outstanding(c *gin.Context) {
	var payments []models.CustomerPayment
	if err := h.db.Where("payment_status <> ?", models.PaymentStatusPaid).
		Order("payment_due_date ASC").Find(&payments).Error; err != nil {
		fail(c, http.StatusInternalServerError, "database error")
		return
	}

	totalDue := decimal.Zero
	for _, p := range payments {
		totalDue = totalDue.Add(p.AmountBalance)
	}
	success(c, gin.H{"total_due": totalDue, "payments": payments})
}
