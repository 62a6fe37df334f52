package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"provet-system/internal/database/models"
)

type CustomerHandler struct {
	db *gorm.DB
}

func NewCustomerHandler(db *gorm.DB) *CustomerHandler {
	return &CustomerHandler{db: db}
}

type customerRequest struct {
	Name        string  `json:"name" binding:"required"`
	Address     string  `json:"address" binding:"required"`
	Province    string  `json:"province" binding:"required"`
	PhoneNumber *string `json:"phone_number"`
}

func (h *CustomerHandler) Create(c *gin.Context) {
	var req customerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	customer := models.Customer{
		Name:        req.Name,
		Address:     req.Address,
		Province:    req.Province,
		PhoneNumber: req.PhoneNumber,
	}
	if err := h.db.Create(&customer).Error; err != nil {
		fail(c, http.StatusInternalServerError, "Failed to create customer")
		return
	}

	appendLog(h.db, c, models.LogTypeTransaction, fmt.Sprintf("Added customer %q", customer.Name))
	created(c, customer)
}

func (h *CustomerHandler) List(c *gin.Context) {
	query := h.db.Model(&models.Customer{})
	if search := parseStringQuery(c, "search"); search != nil {
		term := "%" + *search + "%"
		query = query.Where("name ILIKE ? OR province ILIKE ?", term, term)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		fail(c, http.StatusInternalServerError, "database error")
		return
	}

	p := buildPagination(c)
	var customers []models.Customer
	if err := query.Offset(p.offset()).Limit(p.PageSize).Find(&customers).Error; err != nil {
		fail(c, http.StatusInternalServerError, "database error")
		return
	}
	paginated(c, customers, total, p)
}

func (h *CustomerHandler) Get(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid customer ID")
		return
	}

	var customer models.Customer
	if err := h.db.First(&customer, id).Error; err != nil {
		fail(c, http.StatusNotFound, "Customer not found")
		return
	}
	success(c, customer)
}

func (h *CustomerHandler) Update(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid customer ID")
		return
	}

	var customer models.Customer
	if err := h.db.First(&customer, id).Error; err != nil {
		fail(c, http.StatusNotFound, "Customer not found")
		return
	}

	var req customerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	customer.Name = req.Name
	customer.Address = req.Address
	customer.Province = req.Province
	customer.PhoneNumber = req.PhoneNumber
	if err := h.db.Save(&customer).Error; err != nil {
		fail(c, http.StatusInternalServerError, "Failed to update customer")
		return
	}
	success(c, customer)
}

func (h *CustomerHandler) Delete(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid customer ID")
		return
	}

	res := h.db.Delete(&models.Customer{}, id)
	if res.Error != nil {
		fail(c, http.StatusInternalServerError, "Failed to delete customer")
		return
	}
	if res.RowsAffected == 0 {
		fail(c, http.StatusNotFound, "Customer not found")
		return
	}
	c.JSON(http.StatusNoContent, nil)
}

func (h *CustomerHandler) Count(c *gin.Context) {
	var total int64
	if err := h.db.Model(&models.Customer{}).Count(&total).Error; err != nil {
		fail(c, http.StatusInternalServerError, "database error")
		return
	}
	success(c, gin.H{"total": total})
}

// findOrCreateCustomer matches an existing client by name and address before
// registering a new one; sales order intake goes through here so walk-in
// customers get a row automatically.
func findOrCreateCustomer(tx *gorm.DB, name, address, province string, phone *string) (*models.Customer, error) {
	var customer models.Customer
	err := tx.Where("name = ? AND address = ?", name, address).First(&customer).Error
	if err == nil {
		return &customer, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	customer = models.Customer{
		Name:        name,
		Address:     address,
		Province:    province,
		PhoneNumber: phone,
	}
	if err := tx.Create(&customer).Error; err != nil {
		return nil, err
	}
	return &customer, nil
}
