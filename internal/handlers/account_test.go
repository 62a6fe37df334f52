package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"provet-system/internal/database/models"
)

func newAccountRouter(t *testing.T) (*gin.Engine, *AccountHandler) {
	db := newTestDB(t)
	h := NewAccountHandler(db, testConfig(t))

	r := gin.New()
	r.POST("/auth/register", h.Register)
	r.POST("/auth/login", h.Login)
	r.GET("/users", asUser(1, "admin", models.AccTypeAdmin), h.ListUsers)
	r.DELETE("/users/:id", asUser(1, "admin", models.AccTypeAdmin), h.DeleteUser)
	return r, h
}

func registerBody(username string) gin.H {
	return gin.H{
		"username":   username,
		"password":   "s3cretpass",
		"email":      username + "@example.test",
		"first_name": "Ana",
		"last_name":  "Reyes",
	}
}

func TestRegisterRejectsShortPassword(t *testing.T) {
	r, _ := newAccountRouter(t)

	body := registerBody("ana")
	body["password"] = "short"
	w := doJSON(t, r, http.MethodPost, "/auth/register", body)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var envelope struct {
		Success bool              `json:"success"`
		Fields  map[string]string `json:"fields"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.False(t, envelope.Success)
	assert.Contains(t, envelope.Fields["password"], "at least 8 characters")
}

func TestRegisterAndLogin(t *testing.T) {
	r, _ := newAccountRouter(t)

	w := doJSON(t, r, http.MethodPost, "/auth/register", registerBody("ana"))
	require.Equal(t, http.StatusCreated, w.Code)

	var user models.User
	decodeData(t, w, &user)
	assert.Equal(t, models.AccTypeStaff, user.AccType)
	assert.True(t, user.IsActive)

	w = doJSON(t, r, http.MethodPost, "/auth/login", gin.H{
		"username": "ana",
		"password": "s3cretpass",
	})
	require.Equal(t, http.StatusOK, w.Code)

	cookieSet := false
	for _, cookie := range w.Result().Cookies() {
		if cookie.Name == "access_token" && cookie.Value != "" {
			cookieSet = true
			assert.True(t, cookie.HttpOnly)
		}
	}
	assert.True(t, cookieSet, "login should set the access token cookie")
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	r, _ := newAccountRouter(t)

	w := doJSON(t, r, http.MethodPost, "/auth/register", registerBody("ana"))
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, r, http.MethodPost, "/auth/login", gin.H{
		"username": "ana",
		"password": "wrongpass1",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRegisterRejectsDuplicateUsername(t *testing.T) {
	r, _ := newAccountRouter(t)

	w := doJSON(t, r, http.MethodPost, "/auth/register", registerBody("ana"))
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, r, http.MethodPost, "/auth/register", registerBody("ana"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "already taken"))
}

func TestDeletedUserExcludedFromListAndLogin(t *testing.T) {
	r, h := newAccountRouter(t)

	w := doJSON(t, r, http.MethodPost, "/auth/register", registerBody("ana"))
	require.Equal(t, http.StatusCreated, w.Code)
	var user models.User
	decodeData(t, w, &user)

	w = doJSON(t, r, http.MethodDelete, "/users/"+itoa(user.ID), nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	// the row survives as an inactive account
	var stored models.User
	require.NoError(t, h.db.First(&stored, user.ID).Error)
	assert.False(t, stored.IsActive)

	w = doJSON(t, r, http.MethodGet, "/users", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var users []models.User
	decodeData(t, w, &users)
	for _, u := range users {
		assert.NotEqual(t, user.ID, u.ID)
	}

	w = doJSON(t, r, http.MethodPost, "/auth/login", gin.H{
		"username": "ana",
		"password": "s3cretpass",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
