package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"provet-system/config"
	"provet-system/internal/database/models"
)

const (
	PRODUCTS_CACHE_KEY       = "catalog:products"
	PRODUCT_CACHE_PREFIX     = "catalog:product:"
	LOW_STOCK_CACHE_KEY      = "catalog:low-stock"
	PRODUCT_COUNT_CACHE_KEY  = "catalog:product-count"
	CATEGORIES_CACHE_KEY     = "catalog:categories"
	CACHE_TTL_SHORT          = 5 * time.Minute
	CACHE_TTL_MEDIUM         = 30 * time.Minute
	CACHE_TTL_LONG           = 2 * time.Hour
)

type ProductHandler struct {
	db    *gorm.DB
	redis *redis.Client
	cfg   config.Config
}

func NewProductHandler(db *gorm.DB, redisClient *redis.Client, cfg config.Config) *ProductHandler {
	return &ProductHandler{db: db, redis: redisClient, cfg: cfg}
}

func (h *ProductHandler) invalidateCatalogCaches(ctx context.Context, productID ...int32) {
	if h.redis == nil {
		return
	}
	_ = h.redis.Del(ctx, PRODUCTS_CACHE_KEY, LOW_STOCK_CACHE_KEY, PRODUCT_COUNT_CACHE_KEY, CATEGORIES_CACHE_KEY)
	for _, id := range productID {
		_ = h.redis.Del(ctx, fmt.Sprintf("%s%d", PRODUCT_CACHE_PREFIX, id))
	}
}

func (h *ProductHandler) cacheGet(ctx context.Context, key string, dest interface{}) bool {
	if h.redis == nil {
		return false
	}
	raw, err := h.redis.Get(ctx, key).Result()
	if err != nil {
		return false
	}
	return json.Unmarshal([]byte(raw), dest) == nil
}

func (h *ProductHandler) cacheSet(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	if h.redis == nil {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	_ = h.redis.Set(ctx, key, raw, ttl)
}

// --- Products ---

type productRequest struct {
	Name         string `json:"name" binding:"required"`
	DetailsID    *int32 `json:"details_id"`
	ReorderLevel int32  `json:"reorder_level"`
	ReorderQty   int32  `json:"reorder_qty"`
}

func (h *ProductHandler) Create(c *gin.Context) {
	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	product := models.Product{
		Name:         req.Name,
		DetailsID:    req.DetailsID,
		ReorderLevel: req.ReorderLevel,
		ReorderQty:   req.ReorderQty,
	}
	if err := h.db.Create(&product).Error; err != nil {
		fail(c, http.StatusInternalServerError, "Failed to create product")
		return
	}

	h.invalidateCatalogCaches(c.Request.Context())
	appendLog(h.db, c, models.LogTypeTransaction, fmt.Sprintf("Added product %q", product.Name))
	created(c, product)
}

func (h *ProductHandler) List(c *gin.Context) {
	ctx := c.Request.Context()
	search := parseStringQuery(c, "search")

	if search == nil && c.Query("page") == "" {
		var cached []models.Product
		if h.cacheGet(ctx, PRODUCTS_CACHE_KEY, &cached) {
			success(c, cached)
			return
		}
	}

	query := h.db.Model(&models.Product{}).Preload("Details").Preload("Details.Category")
	if search != nil {
		query = query.Where("name ILIKE ?", "%"+*search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		fail(c, http.StatusInternalServerError, "database error")
		return
	}

	p := buildPagination(c)
	var products []models.Product
	if err := query.Offset(p.offset()).Limit(p.PageSize).Find(&products).Error; err != nil {
		fail(c, http.StatusInternalServerError, "database error")
		return
	}

	if search == nil && p.Page == 1 {
		h.cacheSet(ctx, PRODUCTS_CACHE_KEY, products, CACHE_TTL_SHORT)
	}
	paginated(c, products, total, p)
}

func (h *ProductHandler) Get(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid product ID")
		return
	}

	var product models.Product
	if err := h.db.Preload("Details").Preload("Details.Category").First(&product, id).Error; err != nil {
		fail(c, http.StatusNotFound, "Product not found")
		return
	}
	if product.Image != nil {
		url := h.cfg.Server.BaseURL + *product.Image
		product.Image = &url
	}
	success(c, product)
}

func (h *ProductHandler) Update(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid product ID")
		return
	}

	var product models.Product
	if err := h.db.First(&product, id).Error; err != nil {
		fail(c, http.StatusNotFound, "Product not found")
		return
	}

	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	product.Name = req.Name
	product.DetailsID = req.DetailsID
	product.ReorderLevel = req.ReorderLevel
	product.ReorderQty = req.ReorderQty
	if err := h.db.Save(&product).Error; err != nil {
		fail(c, http.StatusInternalServerError, "Failed to update product")
		return
	}

	h.invalidateCatalogCaches(c.Request.Context(), product.ID)
	success(c, product)
}

func (h *ProductHandler) Delete(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid product ID")
		return
	}

	res := h.db.Delete(&models.Product{}, id)
	if res.Error != nil {
		fail(c, http.StatusInternalServerError, "Failed to delete product")
		return
	}
	if res.RowsAffected == 0 {
		fail(c, http.StatusNotFound, "Product not found")
		return
	}

	h.invalidateCatalogCaches(c.Request.Context(), int32(id))
	c.JSON(http.StatusNoContent, nil)
}

// LowStock lists products at or below their reorder level.
func (h *ProductHandler) LowStock(c *gin.Context) {
	ctx := c.Request.Context()

	var cached []models.Product
	if h.cacheGet(ctx, LOW_STOCK_CACHE_KEY, &cached) {
		success(c, cached)
		return
	}

	var products []models.Product
	if err := h.db.Where("quantity_on_hand <= reorder_level").Find(&products).Error; err != nil {
		fail(c, http.StatusInternalServerError, "database error")
		return
	}

	h.cacheSet(ctx, LOW_STOCK_CACHE_KEY, products, CACHE_TTL_SHORT)
	success(c, products)
}

func (h *ProductHandler) Count(c *gin.Context) {
	ctx := c.Request.Context()

	var cached int64
	if h.cacheGet(ctx, PRODUCT_COUNT_CACHE_KEY, &cached) {
		success(c, gin.H{"total": cached})
		return
	}

	var total int64
	if err := h.db.Model(&models.Product{}).Count(&total).Error; err != nil {
		fail(c, http.StatusInternalServerError, "database error")
		return
	}

	h.cacheSet(ctx, PRODUCT_COUNT_CACHE_KEY, total, CACHE_TTL_MEDIUM)
	success(c, gin.H{"total": total})
}

func (h *ProductHandler) UploadImage(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid product ID")
		return
	}

	var product models.Product
	if err := h.db.First(&product, id).Error; err != nil {
		fail(c, http.StatusNotFound, "Product not found")
		return
	}

	file, err := c.FormFile("image")
	if err != nil {
		fail(c, http.StatusBadRequest, "Image file is required")
		return
	}

	filename := fmt.Sprintf("product_%d%s", product.ID, filepath.Ext(file.Filename))
	dst := filepath.Join(h.cfg.Server.UploadDir, "products", filename)
	if err := c.SaveUploadedFile(file, dst); err != nil {
		fail(c, http.StatusInternalServerError, "Failed to store image")
		return
	}

	urlPath := "/uploads/products/" + filename
	if err := h.db.Model(&product).Update("image", urlPath).Error; err != nil {
		fail(c, http.StatusInternalServerError, "Failed to save image path")
		return
	}

	h.invalidateCatalogCaches(c.Request.Context(), product.ID)
	success(c, gin.H{"image_url": h.cfg.Server.BaseURL + urlPath})
}

// --- Categories ---

type categoryRequest struct {
	Name        string `json:"name" binding:"required"`
	Subcategory string `json:"subcategory" binding:"required"`
}

func (h *ProductHandler) CreateCategory(c *gin.Context) {
	var req categoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	category := models.ProductCategory{Name: req.Name, Subcategory: req.Subcategory}
	if err := h.db.Create(&category).Error; err != nil {
		fail(c, http.StatusInternalServerError, "Failed to create category")
		return
	}

	h.invalidateCatalogCaches(c.Request.Context())
	created(c, category)
}

func (h *ProductHandler) ListCategories(c *gin.Context) {
	ctx := c.Request.Context()

	if name := parseStringQuery(c, "name"); name != nil {
		var categories []models.ProductCategory
		term := "%" + *name + "%"
		if err := h.db.Where("name ILIKE ? OR subcategory ILIKE ?", term, term).Find(&categories).Error; err != nil {
			fail(c, http.StatusInternalServerError, "database error")
			return
		}
		success(c, categories)
		return
	}

	var cached []models.ProductCategory
	if h.cacheGet(ctx, CATEGORIES_CACHE_KEY, &cached) {
		success(c, cached)
		return
	}

	var categories []models.ProductCategory
	if err := h.db.Find(&categories).Error; err != nil {
		fail(c, http.StatusInternalServerError, "database error")
		return
	}

	h.cacheSet(ctx, CATEGORIES_CACHE_KEY, categories, CACHE_TTL_LONG)
	success(c, categories)
}

func (h *ProductHandler) UpdateCategory(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid category ID")
		return
	}

	var category models.ProductCategory
	if err := h.db.First(&category, id).Error; err != nil {
		fail(c, http.StatusNotFound, "Category not found")
		return
	}

	var req categoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	category.Name = req.Name
	category.Subcategory = req.Subcategory
	if err := h.db.Save(&category).Error; err != nil {
		fail(c, http.StatusInternalServerError, "Failed to update category")
		return
	}

	h.invalidateCatalogCaches(c.Request.Context())
	success(c, category)
}

func (h *ProductHandler) DeleteCategory(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid category ID")
		return
	}

	res := h.db.Delete(&models.ProductCategory{}, id)
	if res.Error != nil {
		fail(c, http.StatusInternalServerError, "Failed to delete category")
		return
	}
	if res.RowsAffected == 0 {
		fail(c, http.StatusNotFound, "Category not found")
		return
	}

	h.invalidateCatalogCaches(c.Request.Context())
	c.JSON(http.StatusNoContent, nil)
}

// --- Product details ---

type productDetailsRequest struct {
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price" binding:"required"`
	Supplier    string          `json:"supplier"`
	Unit        *string         `json:"unit"`
	Packaging   string          `json:"packaging"`
	CategoryID  int32           `json:"category_id" binding:"required"`
}

func (h *ProductHandler) CreateDetails(c *gin.Context) {
	var req productDetailsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	var category models.ProductCategory
	if err := h.db.First(&category, req.CategoryID).Error; err != nil {
		fail(c, http.StatusBadRequest, "Unknown category")
		return
	}

	details := models.ProductDetails{
		Description: req.Description,
		Price:       req.Price,
		Supplier:    req.Supplier,
		Unit:        req.Unit,
		Packaging:   req.Packaging,
		CategoryID:  req.CategoryID,
	}
	if err := h.db.Create(&details).Error; err != nil {
		fail(c, http.StatusInternalServerError, "Failed to create product details")
		return
	}
	created(c, details)
}

func (h *ProductHandler) GetDetails(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid details ID")
		return
	}

	var details models.ProductDetails
	if err := h.db.Preload("Category").First(&details, id).Error; err != nil {
		fail(c, http.StatusNotFound, "Product details not found")
		return
	}
	success(c, details)
}

func (h *ProductHandler) UpdateDetails(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid details ID")
		return
	}

	var details models.ProductDetails
	if err := h.db.First(&details, id).Error; err != nil {
		fail(c, http.StatusNotFound, "Product details not found")
		return
	}

	var req productDetailsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	details.Description = req.Description
	details.Price = req.Price
	details.Supplier = req.Supplier
	details.Unit = req.Unit
	details.Packaging = req.Packaging
	details.CategoryID = req.CategoryID
	if err := h.db.Save(&details).Error; err != nil {
		fail(c, http.StatusInternalServerError, "Failed to update product details")
		return
	}
	success(c, details)
}

// findOrCreateProduct resolves a product by id when given, otherwise by name,
// creating a bare catalog row so order intake never blocks on a missing product.
func findOrCreateProduct(tx *gorm.DB, productID *int32, productName string) (*models.Product, error) {
	var product models.Product
	if productID != nil && *productID != 0 {
		if err := tx.First(&product, *productID).Error; err != nil {
			return nil, err
		}
		return &product, nil
	}

	err := tx.Where("name = ?", productName).First(&product).Error
	if err == nil {
		return &product, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	product = models.Product{Name: productName}
	if err := tx.Create(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}
