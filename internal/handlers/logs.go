package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"provet-system/internal/database/models"
	"provet-system/internal/middleware"
)

type LogHandler struct {
	db *gorm.DB
}

func NewLogHandler(db *gorm.DB) *LogHandler {
	return &LogHandler{db: db}
}

func (h *LogHandler) List(c *gin.Context) {
	query := h.db.Model(&models.Log{}).Order("log_datetime DESC")
	if logType := parseStringQuery(c, "log_type"); logType != nil {
		query = query.Where("log_type = ?", *logType)
	}
	if userID := parseIntQuery(c, "user_id"); userID != nil {
		query = query.Where("user_id = ?", *userID)
	}
	if search := parseStringQuery(c, "search"); search != nil {
		query = query.Where("description ILIKE ?", "%"+*search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		fail(c, http.StatusInternalServerError, "database error")
		return
	}

	p := buildPagination(c)
	var logs []models.Log
	if err := query.Preload("User").Offset(p.offset()).Limit(p.PageSize).Find(&logs).Error; err != nil {
		fail(c, http.StatusInternalServerError, "database error")
		return
	}
	paginated(c, logs, total, p)
}

func (h *LogHandler) Get(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid log ID")
		return
	}

	var entry models.Log
	if err := h.db.Preload("User").First(&entry, id).Error; err != nil {
		fail(c, http.StatusNotFound, "Log entry not found")
		return
	}
	success(c, entry)
}

type logRequest struct {
	LogType     string `json:"log_type" binding:"required"`
	Description string `json:"description" binding:"required"`
}

func (h *LogHandler) Create(c *gin.Context) {
	var req logRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.LogType != models.LogTypeUser && req.LogType != models.LogTypeTransaction {
		fail(c, http.StatusBadRequest, "Unknown log type")
		return
	}

	entry := models.Log{
		LogType:     req.LogType,
		Description: req.Description,
		UserID:      middleware.UserID(c),
	}
	if err := h.db.Create(&entry).Error; err != nil {
		fail(c, http.StatusInternalServerError, "Failed to create log entry")
		return
	}
	created(c, entry)
}

func (h *LogHandler) Update(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid log ID")
		return
	}

	var entry models.Log
	if err := h.db.First(&entry, id).Error; err != nil {
		fail(c, http.StatusNotFound, "Log entry not found")
		return
	}

	var req struct {
		LogType     *string `json:"log_type"`
		Description *string `json:"description"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	updates := map[string]interface{}{}
	if req.LogType != nil {
		if *req.LogType != models.LogTypeUser && *req.LogType != models.LogTypeTransaction {
			fail(c, http.StatusBadRequest, "Unknown log type")
			return
		}
		updates["log_type"] = *req.LogType
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if len(updates) == 0 {
		fail(c, http.StatusBadRequest, "No fields to update")
		return
	}

	if err := h.db.Model(&entry).Updates(updates).Error; err != nil {
		fail(c, http.StatusInternalServerError, "Failed to update log entry")
		return
	}
	success(c, entry)
}

func (h *LogHandler) Delete(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid log ID")
		return
	}

	res := h.db.Delete(&models.Log{}, id)
	if res.Error != nil {
		fail(c, http.StatusInternalServerError, "Failed to delete log entry")
		return
	}
	if res.RowsAffected == 0 {
		fail(c, http.StatusNotFound, "Log entry not found")
		return
	}
	c.JSON(http.StatusNoContent, nil)
}

func (h *LogHandler) Count(c *gin.Context) {
	query := h.db.Model(&models.Log{})
	if logType := parseStringQuery(c, "log_type"); logType != nil {
		query = query.Where("log_type = ?", *logType)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		fail(c, http.StatusInternalServerError, "database error")
		return
	}
	success(c, gin.H{"total": total})
}
