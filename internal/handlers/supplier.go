package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"provet-system/internal/database/models"
)

type SupplierHandler struct {
	db *gorm.DB
}

func NewSupplierHandler(db *gorm.DB) *SupplierHandler {
	return &SupplierHandler{db: db}
}

type supplierRequest struct {
	CompanyName   string `json:"company_name" binding:"required"`
	CompanyNumber string `json:"company_number" binding:"required"`
	ContactPerson string `json:"contact_person" binding:"required"`
	ContactNumber string `json:"contact_number" binding:"required"`
}

func (h *SupplierHandler) Create(c *gin.Context) {
	var req supplierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	supplier := models.Supplier{
		CompanyName:   req.CompanyName,
		CompanyNumber: req.CompanyNumber,
		ContactPerson: req.ContactPerson,
		ContactNumber: req.ContactNumber,
	}
	if err := h.db.Create(&supplier).Error; err != nil {
		fail(c, http.StatusInternalServerError, "Failed to create supplier")
		return
	}

	appendLog(h.db, c, models.LogTypeTransaction, fmt.Sprintf("Added supplier %q", supplier.CompanyName))
	created(c, supplier)
}

func (h *SupplierHandler) List(c *gin.Context) {
	query := h.db.Model(&models.Supplier{})
	if search := parseStringQuery(c, "search"); search != nil {
		term := "%" + *search + "%"
		query = query.Where("company_name ILIKE ? OR contact_person ILIKE ?", term, term)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		fail(c, http.StatusInternalServerError, "database error")
		return
	}

	p := buildPagination(c)
	var suppliers []models.Supplier
	if err := query.Offset(p.offset()).Limit(p.PageSize).Find(&suppliers).Error; err != nil {
		fail(c, http.StatusInternalServerError, "database error")
		return
	}
	paginated(c, suppliers, total, p)
}

func (h *SupplierHandler) Get(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid supplier ID")
		return
	}

	var supplier models.Supplier
	if err := h.db.First(&supplier, id).Error; err != nil {
		fail(c, http.StatusNotFound, "Supplier not found")
		return
	}
	success(c, supplier)
}

func (h *SupplierHandler) Update(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid supplier ID")
		return
	}

	var supplier models.Supplier
	if err := h.db.First(&supplier, id).Error; err != nil {
		fail(c, http.StatusNotFound, "Supplier not found")
		return
	}

	var req supplierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	supplier.CompanyName = req.CompanyName
	supplier.CompanyNumber = req.CompanyNumber
	supplier.ContactPerson = req.ContactPerson
	supplier.ContactNumber = req.ContactNumber
	if err := h.db.Save(&supplier).Error; err != nil {
		fail(c, http.StatusInternalServerError, "Failed to update supplier")
		return
	}
	success(c, supplier)
}

func (h *SupplierHandler) Delete(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid supplier ID")
		return
	}

	res := h.db.Delete(&models.Supplier{}, id)
	if res.Error != nil {
		fail(c, http.StatusInternalServerError, "Failed to delete supplier")
		return
	}
	if res.RowsAffected == 0 {
		fail(c, http.StatusNotFound, "Supplier not found")
		return
	}
	c.JSON(http.StatusNoContent, nil)
}

func (h *SupplierHandler) Count(c *gin.Context) {
	var total int64
	if err := h.db.Model(&models.Supplier{}).Count(&total).Error; err != nil {
		fail(c, http.StatusInternalServerError, "database error")
		return
	}
	success(c, gin.H{"total": total})
}

// findOrCreateSupplier reuses an existing supplier matched by company name or
// registers one on the fly during purchase order intake.
func findOrCreateSupplier(tx *gorm.DB, companyName, companyNumber, contactPerson, contactNumber string) (*models.Supplier, error) {
	var supplier models.Supplier
	err := tx.Where("company_name = ?", companyName).First(&supplier).Error
	if err == nil {
		return &supplier, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	supplier = models.Supplier{
		CompanyName:   companyName,
		CompanyNumber: companyNumber,
		ContactPerson: contactPerson,
		ContactNumber: contactNumber,
	}
	if err := tx.Create(&supplier).Error; err != nil {
		return nil, err
	}
	return &supplier, nil
}
