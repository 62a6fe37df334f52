package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"provet-system/config"
	"provet-system/internal/database/models"
	"provet-system/internal/middleware"
	"provet-system/internal/utils"
)

type AccountHandler struct {
	db  *gorm.DB
	cfg config.Config
}

func NewAccountHandler(db *gorm.DB, cfg config.Config) *AccountHandler {
	return &AccountHandler{db: db, cfg: cfg}
}

type registerRequest struct {
	Username   string  `json:"username" binding:"required"`
	Password   string  `json:"password" binding:"required"`
	Email      string  `json:"email" binding:"required,email"`
	FirstName  string  `json:"first_name" binding:"required"`
	MidInitial *string `json:"mid_initial"`
	LastName   string  `json:"last_name" binding:"required"`
	Phone      *string `json:"phone"`
	Address    *string `json:"address"`
	AccType    string  `json:"acc_type"`
}

func (h *AccountHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if len(req.Password) < 8 {
		failFields(c, "Validation failed", map[string]string{
			"password": "Password must be at least 8 characters long.",
		})
		return
	}

	accType := models.AccType(req.AccType)
	switch accType {
	case models.AccTypeAdmin, models.AccTypeStaff, models.AccTypeSuperadmin, models.AccTypeCustomer:
	case "":
		accType = models.AccTypeStaff
	default:
		failFields(c, "Validation failed", map[string]string{
			"acc_type": "Unknown account type",
		})
		return
	}

	hashed, err := utils.HashPassword(req.Password)
	if err != nil {
		fail(c, http.StatusInternalServerError, "Failed to hash password")
		return
	}

	user := models.User{
		Username:   req.Username,
		Email:      req.Email,
		Password:   hashed,
		FirstName:  req.FirstName,
		MidInitial: req.MidInitial,
		LastName:   req.LastName,
		Phone:      req.Phone,
		Address:    req.Address,
		AccType:    accType,
		IsActive:   true,
	}
	if err := h.db.Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			fail(c, http.StatusBadRequest, "Username or email already taken")
			return
		}
		fail(c, http.StatusInternalServerError, "Failed to create user")
		return
	}

	appendLog(h.db, c, models.LogTypeUser, fmt.Sprintf("Registered account %q (%s)", user.Username, user.AccType))
	created(c, user)
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *AccountHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	var user models.User
	if err := h.db.Where("username = ? AND is_active = ?", req.Username, true).First(&user).Error; err != nil {
		fail(c, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	if err := utils.CheckPassword(req.Password, user.Password); err != nil {
		fail(c, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	ttl := time.Duration(h.cfg.Auth.TokenTTLHrs) * time.Hour
	token, exp, err := utils.GenerateToken([]byte(h.cfg.Auth.JWTSecret), user.ID, user.Username, string(user.AccType), ttl)
	if err != nil {
		fail(c, http.StatusInternalServerError, "Failed to issue token")
		return
	}

	now := time.Now()
	h.db.Model(&user).Update("last_login", now)

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.AccessTokenCookie, token, int(time.Until(exp).Seconds()), "/", "", false, true)

	success(c, gin.H{
		"token":      token,
		"expires_at": exp,
		"user":       user,
	})
}

func (h *AccountHandler) Logout(c *gin.Context) {
	c.SetCookie(middleware.AccessTokenCookie, "", -1, "/", "", false, true)
	success(c, gin.H{"message": "Logged out"})
}

// Me reports the authenticated user from the token claims.
func (h *AccountHandler) Me(c *gin.Context) {
	var user models.User
	if err := h.db.First(&user, middleware.UserID(c)).Error; err != nil {
		fail(c, http.StatusUnauthorized, "User not authenticated")
		return
	}

	if user.Image != nil {
		url := h.cfg.Server.BaseURL + *user.Image
		user.Image = &url
	}
	success(c, user)
}

// ListUsers returns active accounts only; soft-deleted users are excluded.
func (h *AccountHandler) ListUsers(c *gin.Context) {
	query := h.db.Where("is_active = ?", true)
	if accType := parseStringQuery(c, "acc_type"); accType != nil {
		query = query.Where("acc_type = ?", *accType)
	}

	var users []models.User
	if err := query.Find(&users).Error; err != nil {
		fail(c, http.StatusInternalServerError, "Failed to list users")
		return
	}
	success(c, users)
}

// GetUser fetches one account. Admins may fetch soft-deleted accounts by ID;
// everyone else sees active accounts only.
func (h *AccountHandler) GetUser(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid user ID")
		return
	}

	query := h.db.Where("id = ?", id)
	if !middleware.IsAdmin(c) {
		query = query.Where("is_active = ?", true)
	}

	var user models.User
	if err := query.First(&user).Error; err != nil {
		fail(c, http.StatusNotFound, "User not found")
		return
	}
	success(c, user)
}

type updateUserRequest struct {
	Username   *string `json:"username"`
	Email      *string `json:"email"`
	FirstName  *string `json:"first_name"`
	MidInitial *string `json:"mid_initial"`
	LastName   *string `json:"last_name"`
	Phone      *string `json:"phone"`
	Address    *string `json:"address"`
	AccType    *string `json:"acc_type"`
	Password   *string `json:"password"`
}

func (h *AccountHandler) UpdateUser(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid user ID")
		return
	}

	var user models.User
	if err := h.db.Where("id = ? AND is_active = ?", id, true).First(&user).Error; err != nil {
		fail(c, http.StatusNotFound, "User not found")
		return
	}

	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	updates := map[string]interface{}{}
	if req.Username != nil {
		updates["username"] = *req.Username
	}
	if req.Email != nil {
		updates["email"] = *req.Email
	}
	if req.FirstName != nil {
		updates["first_name"] = *req.FirstName
	}
	if req.MidInitial != nil {
		updates["mid_initial"] = *req.MidInitial
	}
	if req.LastName != nil {
		updates["last_name"] = *req.LastName
	}
	if req.Phone != nil {
		updates["phone"] = *req.Phone
	}
	if req.Address != nil {
		updates["address"] = *req.Address
	}
	if req.AccType != nil {
		if !middleware.IsAdmin(c) {
			fail(c, http.StatusForbidden, "Only admins can change account types")
			return
		}
		updates["acc_type"] = *req.AccType
	}
	if req.Password != nil {
		if len(*req.Password) < 8 {
			failFields(c, "Validation failed", map[string]string{
				"password": "Password must be at least 8 characters long.",
			})
			return
		}
		hashed, err := utils.HashPassword(*req.Password)
		if err != nil {
			fail(c, http.StatusInternalServerError, "Failed to hash password")
			return
		}
		updates["password"] = hashed
	}

	if len(updates) == 0 {
		fail(c, http.StatusBadRequest, "No fields to update")
		return
	}

	if err := h.db.Model(&user).Updates(updates).Error; err != nil {
		fail(c, http.StatusInternalServerError, "Failed to update user")
		return
	}

	appendLog(h.db, c, models.LogTypeUser, fmt.Sprintf("Updated account %q", user.Username))
	success(c, user)
}

// DeleteUser soft-deletes by flipping is_active; the row stays for audit lookups.
func (h *AccountHandler) DeleteUser(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid user ID")
		return
	}

	var user models.User
	if err := h.db.Where("id = ? AND is_active = ?", id, true).First(&user).Error; err != nil {
		fail(c, http.StatusNotFound, "User not found")
		return
	}

	if err := h.db.Model(&user).Update("is_active", false).Error; err != nil {
		fail(c, http.StatusInternalServerError, "Failed to deactivate user")
		return
	}

	appendLog(h.db, c, models.LogTypeUser, fmt.Sprintf("Soft deleted account %q", user.Username))
	c.JSON(http.StatusNoContent, nil)
}

// UploadImage stores a profile image under the upload dir and records its URL path.
func (h *AccountHandler) UploadImage(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid user ID")
		return
	}

	var user models.User
	if err := h.db.Where("id = ? AND is_active = ?", id, true).First(&user).Error; err != nil {
		fail(c, http.StatusNotFound, "User not found")
		return
	}

	file, err := c.FormFile("image")
	if err != nil {
		fail(c, http.StatusBadRequest, "Image file is required")
		return
	}

	filename := fmt.Sprintf("user_%d%s", user.ID, filepath.Ext(file.Filename))
	dst := filepath.Join(h.cfg.Server.UploadDir, "users", filename)
	if err := c.SaveUploadedFile(file, dst); err != nil {
		fail(c, http.StatusInternalServerError, "Failed to store image")
		return
	}

	urlPath := "/uploads/users/" + filename
	if err := h.db.Model(&user).Update("image", urlPath).Error; err != nil {
		fail(c, http.StatusInternalServerError, "Failed to save image path")
		return
	}

	success(c, gin.H{"image_url": h.cfg.Server.BaseURL + urlPath})
}

func (h *AccountHandler) GetImage(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid user ID")
		return
	}

	var user models.User
	if err := h.db.Where("id = ? AND is_active = ?", id, true).First(&user).Error; err != nil {
		fail(c, http.StatusNotFound, "User not found")
		return
	}

	if user.Image == nil {
		fail(c, http.StatusNotFound, "User has no profile image")
		return
	}
	success(c, gin.H{"image_url": h.cfg.Server.BaseURL + *user.Image})
}
