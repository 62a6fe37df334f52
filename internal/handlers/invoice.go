package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"provet-system/internal/database/models"
)

type InvoiceHandler struct {
	db *gorm.DB
}

func NewInvoiceHandler(db *gorm.DB) *InvoiceHandler {
	return &InvoiceHandler{db: db}
}

func (h *InvoiceHandler) List(c *gin.Context) {
	query := h.db.Model(&models.SalesInvoice{}).Order("invoice_id DESC")
	if search := parseStringQuery(c, "search"); search != nil {
		term := "%" + *search + "%"
		query = query.Where("invoice_id ILIKE ? OR client_name ILIKE ?", term, term)
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
	var invoices []models.SalesInvoice
	if err := query.Offset(p.offset()).Limit(p.PageSize).Find(&invoices).Error; err != nil {
		fail(c, http.StatusInternalServerError, "database error")
		return
	}
	paginated(c, invoices, total, p)
}

func (h *InvoiceHandler) Get(c *gin.Context) {
	id := c.Param("id")
	var invoice models.SalesInvoice
	if err := h.db.Preload("Items").First(&invoice, "invoice_id = ?", id).Error; err != nil {
		fail(c, http.StatusNotFound, "Invoice not found")
		return
	}
	success(c, invoice)
}

// Report aggregates revenue and income over a date range. Defaults to the
// last 30 days when no range is given.
func (h *InvoiceHandler) Report(c *gin.Context) {
	end := time.Now()
	start := end.AddDate(0, 0, -30)
	if s := parseStringQuery(c, "start"); s != nil {
		parsed, err := time.Parse("2006-01-02", *s)
		if err != nil {
			fail(c, http.StatusBadRequest, "Invalid start date, expected YYYY-MM-DD")
			return
		}
		start = parsed
	}
	if e := parseStringQuery(c, "end"); e != nil {
		parsed, err := time.Parse("2006-01-02", *e)
		if err != nil {
			fail(c, http.StatusBadRequest, "Invalid end date, expected YYYY-MM-DD")
			return
		}
		end = parsed.AddDate(0, 0, 1)
	}

	var invoices []models.SalesInvoice
	if err := h.db.Where("created_at >= ? AND created_at < ?", start, end).
		Order("created_at ASC").Find(&invoices).Error; err != nil {
		fail(c, http.StatusInternalServerError, "database error")
		return
	}

	totalRevenue := decimal.Zero
	totalIncome := decimal.Zero
	for _, inv := range invoices {
		totalRevenue = totalRevenue.Add(inv.TotalGrossRevenue)
		totalIncome = totalIncome.Add(inv.TotalGrossIncome)
	}
	success(c, gin.H{
		"start":               start.Format("2006-01-02"),
		"end":                 end.Format("2006-01-02"),
		"invoice_count":       len(invoices),
		"total_gross_revenue": totalRevenue,
		"total_gross_income":  totalIncome,
		"invoices":            invoices,
	})
}

func (h *InvoiceHandler) Count(c *gin.Context) {
	var total int64
	if err := h.db.Model(&models.SalesInvoice{}).Count(&total).Error; err != nil {
		fail(c, http.StatusInternalServerError, "database error")
		return
	}
	success(c, gin.H{"total": total})
}
