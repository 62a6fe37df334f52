package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"provet-system/internal/database/models"
	"provet-system/internal/stock"
)

func newIssueRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	db := newTestDB(t)
	h := NewIssueHandler(db)

	r := gin.New()
	r.Use(asUser(1, "staff", models.AccTypeStaff))
	r.POST("/issues", h.Create)
	r.GET("/issues/:id", h.Get)
	r.POST("/issues/:id/resolve", h.Resolve)
	r.GET("/issues/holds", h.ListHolds)
	r.POST("/issues/holds/:id/release", h.ReleaseHold)
	return r, db
}

func seedInboundDelivery(t *testing.T, db *gorm.DB) *models.InboundDelivery {
	t.Helper()
	d := &models.InboundDelivery{
		PurchaseOrderID: 1,
		SupplierID:      1,
		SupplierName:    "VetSupply Co",
		Status:          models.DeliveryStatusDeliveredWithIssues,
	}
	require.NoError(t, db.Create(d).Error)
	return d
}

func seedOutboundDelivery(t *testing.T, db *gorm.DB) *models.OutboundDelivery {
	t.Helper()
	clientID := int32(1)
	d := &models.OutboundDelivery{
		SalesOrderID: 1,
		ClientID:     &clientID,
		CustomerName: "Farmacia Santos",
		Status:       models.DeliveryStatusDeliveredWithIssues,
	}
	require.NoError(t, db.Create(d).Error)
	return d
}

func TestCreateIssueStampsCounterpartyByKind(t *testing.T) {
	r, db := newIssueRouter(t)
	inboundD := seedInboundDelivery(t, db)
	p := seedProduct(t, db, "Amoxicillin 500mg", 0)

	w := doJSON(t, r, http.MethodPost, "/issues", gin.H{
		"delivery_kind": "inbound",
		"delivery_id":   inboundD.ID,
		"issue_type":    "Damaged",
		"items": []gin.H{
			{"product_id": p.ID, "qty_defect": 4},
		},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var issue models.DeliveryIssue
	decodeData(t, w, &issue)
	assert.Equal(t, models.DeliveryKindInbound, issue.DeliveryKind)
	assert.Equal(t, "Purchase", issue.OrderType)
	require.NotNil(t, issue.SupplierName)
	assert.Equal(t, "VetSupply Co", *issue.SupplierName)
	assert.Nil(t, issue.CustomerName)
	require.Len(t, issue.ItemIssues, 1)
	assert.Equal(t, p.Name, issue.ItemIssues[0].ProductName)
}

func TestCreateIssueRejectsMissingDelivery(t *testing.T) {
	r, db := newIssueRouter(t)
	p := seedProduct(t, db, "Ivermectin", 0)

	w := doJSON(t, r, http.MethodPost, "/issues", gin.H{
		"delivery_kind": "outbound",
		"delivery_id":   999,
		"issue_type":    "Missing",
		"items": []gin.H{
			{"product_id": p.ID, "qty_defect": 1},
		},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestResolveOffsetMovesNoStock(t *testing.T) {
	r, db := newIssueRouter(t)
	inboundD := seedInboundDelivery(t, db)
	p := seedProduct(t, db, "Doxycycline", 0)
	_, err := stock.AddBatch(db, p.ID, p.Name, inboundD.ID, nil, 10)
	require.NoError(t, err)

	w := doJSON(t, r, http.MethodPost, "/issues", gin.H{
		"delivery_kind": "inbound",
		"delivery_id":   inboundD.ID,
		"issue_type":    "Damaged",
		"items":         []gin.H{{"product_id": p.ID, "qty_defect": 3}},
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var issue models.DeliveryIssue
	decodeData(t, w, &issue)

	w = doJSON(t, r, http.MethodPost, "/issues/"+itoa(issue.IssueNo)+"/resolve", gin.H{"resolution": "Offset"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var product models.Product
	require.NoError(t, db.First(&product, p.ID).Error)
	assert.Equal(t, int32(10), product.QuantityOnHand)

	// resolving again conflicts
	w = doJSON(t, r, http.MethodPost, "/issues/"+itoa(issue.IssueNo)+"/resolve", gin.H{"resolution": "Offset"})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestResolveInboundReplacementRestocks(t *testing.T) {
	r, db := newIssueRouter(t)
	inboundD := seedInboundDelivery(t, db)
	p := seedProduct(t, db, "Enrofloxacin", 0)
	expiry := time.Now().AddDate(0, 6, 0)
	batch, err := stock.AddBatch(db, p.ID, p.Name, inboundD.ID, &expiry, 7)
	require.NoError(t, err)

	w := doJSON(t, r, http.MethodPost, "/issues", gin.H{
		"delivery_kind": "inbound",
		"delivery_id":   inboundD.ID,
		"issue_type":    "Damaged",
		"items":         []gin.H{{"product_id": p.ID, "qty_defect": 3}},
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var issue models.DeliveryIssue
	decodeData(t, w, &issue)

	w = doJSON(t, r, http.MethodPost, "/issues/"+itoa(issue.IssueNo)+"/resolve", gin.H{"resolution": "Replacement"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var got models.Inventory
	require.NoError(t, db.First(&got, "inventory_id = ?", batch.InventoryID).Error)
	assert.Equal(t, int32(10), got.QuantityOnHand)
}

func TestResolveOutboundReplacementDeductsAndHolds(t *testing.T) {
	r, db := newIssueRouter(t)
	outboundD := seedOutboundDelivery(t, db)
	p := seedProduct(t, db, "Meloxicam", 0)
	_, err := stock.AddBatch(db, p.ID, p.Name, 1, nil, 10)
	require.NoError(t, err)

	w := doJSON(t, r, http.MethodPost, "/issues", gin.H{
		"delivery_kind": "outbound",
		"delivery_id":   outboundD.ID,
		"issue_type":    "Damaged",
		"items":         []gin.H{{"product_id": p.ID, "qty_defect": 4}},
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var issue models.DeliveryIssue
	decodeData(t, w, &issue)
	assert.Equal(t, "Sales", issue.OrderType)

	w = doJSON(t, r, http.MethodPost, "/issues/"+itoa(issue.IssueNo)+"/resolve", gin.H{"resolution": "Replacement"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var product models.Product
	require.NoError(t, db.First(&product, p.ID).Error)
	assert.Equal(t, int32(6), product.QuantityOnHand)

	var holds []models.ReplacementHold
	require.NoError(t, db.Where("issue_no = ?", issue.IssueNo).Find(&holds).Error)
	require.Len(t, holds, 1)
	assert.Equal(t, int32(4), holds[0].QtyHeld)
	assert.False(t, holds[0].Released)

	w = doJSON(t, r, http.MethodPost, "/issues/holds/"+itoa(holds[0].ID)+"/release", nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = doJSON(t, r, http.MethodPost, "/issues/holds/"+itoa(holds[0].ID)+"/release", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestResolveOutboundReplacementFailsWithoutStock(t *testing.T) {
	r, db := newIssueRouter(t)
	outboundD := seedOutboundDelivery(t, db)
	p := seedProduct(t, db, "Ketamine", 0)
	_, err := stock.AddBatch(db, p.ID, p.Name, 1, nil, 2)
	require.NoError(t, err)

	w := doJSON(t, r, http.MethodPost, "/issues", gin.H{
		"delivery_kind": "outbound",
		"delivery_id":   outboundD.ID,
		"issue_type":    "Missing",
		"items":         []gin.H{{"product_id": p.ID, "qty_defect": 5}},
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var issue models.DeliveryIssue
	decodeData(t, w, &issue)

	w = doJSON(t, r, http.MethodPost, "/issues/"+itoa(issue.IssueNo)+"/resolve", gin.H{"resolution": "Replacement"})
	assert.Equal(t, http.StatusConflict, w.Code)

	// nothing moved and the issue stays open
	var product models.Product
	require.NoError(t, db.First(&product, p.ID).Error)
	assert.Equal(t, int32(2), product.QuantityOnHand)

	var stored models.DeliveryIssue
	require.NoError(t, db.First(&stored, issue.IssueNo).Error)
	assert.False(t, stored.IsResolved)
}
