package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"provet-system/internal/database/models"
	"provet-system/internal/middleware"
)

func success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    data,
	})
}

func created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    data,
	})
}

func fail(c *gin.Context, code int, message string) {
	c.JSON(code, gin.H{
		"success": false,
		"error":   message,
	})
}

func failFields(c *gin.Context, message string, fields map[string]string) {
	c.JSON(http.StatusBadRequest, gin.H{
		"success": false,
		"error":   message,
		"fields":  fields,
	})
}

func parseIDParam(c *gin.Context, param string) (int64, error) {
	return strconv.ParseInt(c.Param(param), 10, 64)
}

func parseIntQuery(c *gin.Context, param string) *int32 {
	str := c.Query(param)
	if str == "" {
		return nil
	}
	val, err := strconv.ParseInt(str, 10, 32)
	if err != nil {
		return nil
	}
	result := int32(val)
	return &result
}

func parseBoolQuery(c *gin.Context, param string) *bool {
	str := c.Query(param)
	if str == "" {
		return nil
	}
	val, err := strconv.ParseBool(str)
	if err != nil {
		return nil
	}
	return &val
}

func parseStringQuery(c *gin.Context, param string) *string {
	str := c.Query(param)
	if str == "" {
		return nil
	}
	return &str
}

type pagination struct {
	PageSize int
	Page     int
}

func buildPagination(c *gin.Context) pagination {
	size, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if size <= 0 || size > 100 {
		size = 20
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page <= 0 {
		page = 1
	}
	return pagination{PageSize: size, Page: page}
}

func (p pagination) offset() int {
	return (p.Page - 1) * p.PageSize
}

func paginated(c *gin.Context, data interface{}, total int64, p pagination) {
	next := 0
	if int64(p.Page*p.PageSize) < total {
		next = p.Page + 1
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    data,
		"pagination": gin.H{
			"page":      p.Page,
			"page_size": p.PageSize,
			"total":     total,
			"next_page": next,
		},
	})
}

// appendLog writes an audit row for the acting user. Log failures never fail the
// request that produced them.
func appendLog(db *gorm.DB, c *gin.Context, logType, description string) {
	userID := middleware.UserID(c)
	if userID == 0 {
		return
	}
	_ = db.Create(&models.Log{
		LogType:     logType,
		Description: description,
		UserID:      userID,
	}).Error
}

var (
	errAlreadyAccepted = errors.New("order already accepted")
	errAlreadyFinal    = errors.New("delivery already finalized")
)
