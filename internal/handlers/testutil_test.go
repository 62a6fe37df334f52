package handlers

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"provet-system/config"
	"provet-system/internal/database"
	"provet-system/internal/database/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:" + t.Name() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})
	return db
}

func testConfig(t *testing.T) config.Config {
	return config.Config{
		Auth: config.AuthConfig{
			JWTSecret:   "test-secret",
			TokenTTLHrs: 1,
		},
		Server: config.ServerConfig{
			Port:      "8080",
			BaseURL:   "http://localhost:8080",
			UploadDir: t.TempDir(),
		},
	}
}

// asUser stands in for the JWT middleware in tests.
func asUser(userID int64, username string, accType models.AccType) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("userID", userID)
		c.Set("username", username)
		c.Set("accType", string(accType))
		c.Next()
	}
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder, dest interface{}) {
	t.Helper()
	var envelope struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.True(t, envelope.Success, "expected success envelope, got %s", w.Body.String())
	require.NoError(t, json.Unmarshal(envelope.Data, dest))
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}

func seedProduct(t *testing.T, db *gorm.DB, name string, reorderLevel int32) *models.Product {
	t.Helper()
	p := &models.Product{Name: name, ReorderLevel: reorderLevel}
	require.NoError(t, db.Create(p).Error)
	return p
}

func seedUser(t *testing.T, db *gorm.DB, username string, accType models.AccType) *models.User {
	t.Helper()
	u := &models.User{
		Username:  username,
		Email:     username + "@example.test",
		Password:  "unused",
		FirstName: "Test",
		LastName:  "User",
		AccType:   accType,
		IsActive:  true,
	}
	require.NoError(t, db.Create(u).Error)
	return u
}
