package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"provet-system/internal/database/models"
)

type flowEnv struct {
	db *gorm.DB
	r  *gin.Engine
}

func newFlowEnv(t *testing.T) *flowEnv {
	db := newTestDB(t)
	admin := seedUser(t, db, "admin", models.AccTypeAdmin)

	purchase := NewPurchaseOrderHandler(db)
	sales := NewSalesOrderHandler(db)
	inbound := NewInboundDeliveryHandler(db)
	outbound := NewOutboundDeliveryHandler(db)
	payments := NewPaymentHandler(db)

	r := gin.New()
	r.Use(asUser(admin.ID, admin.Username, admin.AccType))
	r.POST("/purchase-orders", purchase.Create)
	r.POST("/purchase-orders/:id/accept", purchase.Accept)
	r.POST("/deliveries/inbound/:id/receive", inbound.MarkDelivered)
	r.POST("/sales-orders", sales.Create)
	r.POST("/sales-orders/:id/accept", sales.Accept)
	r.POST("/deliveries/outbound/:id/dispatch", outbound.Dispatch)
	r.POST("/deliveries/outbound/:id/receive", outbound.MarkDelivered)
	r.PATCH("/payments/:id", payments.AddPayment)
	return &flowEnv{db: db, r: r}
}

func (e *flowEnv) createPurchaseOrder(t *testing.T, productName string, qty int32) *models.PurchaseOrder {
	t.Helper()
	w := doJSON(t, e.r, http.MethodPost, "/purchase-orders", gin.H{
		"supplier_name":   "VetSupply Co",
		"supplier_number": "0917-000-0000",
		"contact_person":  "Mia Cruz",
		"lines": []gin.H{
			{"product_name": productName, "line_qty": qty},
		},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var order models.PurchaseOrder
	decodeData(t, w, &order)
	return &order
}

// receiveInbound accepts every line in full with the given expiry.
func (e *flowEnv) receiveInbound(t *testing.T, deliveryID int64, expiry time.Time) {
	t.Helper()
	var details []models.InboundDeliveryDetail
	require.NoError(t, e.db.Where("inbound_delivery_id = ?", deliveryID).Find(&details).Error)

	lines := make([]gin.H, 0, len(details))
	for _, d := range details {
		lines = append(lines, gin.H{
			"detail_id":    d.ID,
			"accepted_qty": d.OrderedQty,
			"expiry_date":  expiry,
		})
	}
	w := doJSON(t, e.r, http.MethodPost, "/deliveries/inbound/"+itoa(deliveryID)+"/receive", gin.H{"lines": lines})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestPurchaseOrderAcceptOpensOneInboundDelivery(t *testing.T) {
	e := newFlowEnv(t)
	order := e.createPurchaseOrder(t, "Amoxicillin 500mg", 20)
	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.Equal(t, int32(20), order.TotalQty)

	w := doJSON(t, e.r, http.MethodPost, "/purchase-orders/"+itoa(order.ID)+"/accept", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var deliveries []models.InboundDelivery
	require.NoError(t, e.db.Where("purchase_order_id = ?", order.ID).Find(&deliveries).Error)
	require.Len(t, deliveries, 1)
	assert.Equal(t, models.DeliveryStatusPending, deliveries[0].Status)
	assert.Equal(t, int32(20), deliveries[0].TotalOrderedQty)

	var stored models.PurchaseOrder
	require.NoError(t, e.db.First(&stored, order.ID).Error)
	assert.Equal(t, models.OrderStatusAccepted, stored.Status)
}

func TestPurchaseOrderAcceptTwiceConflicts(t *testing.T) {
	e := newFlowEnv(t)
	order := e.createPurchaseOrder(t, "Ivermectin", 5)

	w := doJSON(t, e.r, http.MethodPost, "/purchase-orders/"+itoa(order.ID)+"/accept", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, e.r, http.MethodPost, "/purchase-orders/"+itoa(order.ID)+"/accept", nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	var count int64
	require.NoError(t, e.db.Model(&models.InboundDelivery{}).
		Where("purchase_order_id = ?", order.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestInboundReceiveCreatesBatchesAndQOH(t *testing.T) {
	e := newFlowEnv(t)
	order := e.createPurchaseOrder(t, "Doxycycline", 30)

	w := doJSON(t, e.r, http.MethodPost, "/purchase-orders/"+itoa(order.ID)+"/accept", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var delivery models.InboundDelivery
	require.NoError(t, e.db.Where("purchase_order_id = ?", order.ID).First(&delivery).Error)
	e.receiveInbound(t, delivery.ID, time.Now().AddDate(0, 6, 0))

	var batches []models.Inventory
	require.NoError(t, e.db.Where("inbound_delivery_id = ?", delivery.ID).Find(&batches).Error)
	require.Len(t, batches, 1)
	assert.Equal(t, int32(30), batches[0].QuantityOnHand)

	var product models.Product
	require.NoError(t, e.db.Where("name = ?", "Doxycycline").First(&product).Error)
	assert.Equal(t, int32(30), product.QuantityOnHand)

	var stored models.InboundDelivery
	require.NoError(t, e.db.First(&stored, delivery.ID).Error)
	assert.Equal(t, models.DeliveryStatusDelivered, stored.Status)
	assert.Equal(t, int32(30), stored.TotalRcvdQty)
}

func TestInboundReceiveShortfallFlagsIssues(t *testing.T) {
	e := newFlowEnv(t)
	order := e.createPurchaseOrder(t, "Enrofloxacin", 10)

	w := doJSON(t, e.r, http.MethodPost, "/purchase-orders/"+itoa(order.ID)+"/accept", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var delivery models.InboundDelivery
	require.NoError(t, e.db.Where("purchase_order_id = ?", order.ID).First(&delivery).Error)
	var detail models.InboundDeliveryDetail
	require.NoError(t, e.db.Where("inbound_delivery_id = ?", delivery.ID).First(&detail).Error)

	w = doJSON(t, e.r, http.MethodPost, "/deliveries/inbound/"+itoa(delivery.ID)+"/receive", gin.H{
		"lines": []gin.H{
			{"detail_id": detail.ID, "accepted_qty": 7},
		},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var stored models.InboundDelivery
	require.NoError(t, e.db.First(&stored, delivery.ID).Error)
	assert.Equal(t, models.DeliveryStatusDeliveredWithIssues, stored.Status)

	var storedDetail models.InboundDeliveryDetail
	require.NoError(t, e.db.First(&storedDetail, detail.ID).Error)
	assert.Equal(t, int32(7), storedDetail.AcceptedQty)
	assert.Equal(t, int32(3), storedDetail.DefectQty)
}

// stockProduct runs the full inbound chain so a product has stock on hand.
func (e *flowEnv) stockProduct(t *testing.T, productName string, qty int32) {
	t.Helper()
	order := e.createPurchaseOrder(t, productName, qty)
	w := doJSON(t, e.r, http.MethodPost, "/purchase-orders/"+itoa(order.ID)+"/accept", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var delivery models.InboundDelivery
	require.NoError(t, e.db.Where("purchase_order_id = ?", order.ID).First(&delivery).Error)
	e.receiveInbound(t, delivery.ID, time.Now().AddDate(1, 0, 0))
}

func TestAdminSalesOrderAutoAcceptsAndOpensOutbound(t *testing.T) {
	e := newFlowEnv(t)
	e.stockProduct(t, "Meloxicam", 50)

	w := doJSON(t, e.r, http.MethodPost, "/sales-orders", gin.H{
		"client_name":     "Farmacia Santos",
		"client_city":     "Quezon City",
		"client_province": "Metro Manila",
		"payment_terms":   15,
		"lines": []gin.H{
			{"product_name": "Meloxicam", "line_price": "25.00", "line_qty": 10},
		},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var order models.SalesOrder
	require.NoError(t, e.db.Where("client_name = ?", "Farmacia Santos").First(&order).Error)
	assert.Equal(t, models.OrderStatusAccepted, order.Status)
	assert.True(t, order.TotalPrice.Equal(decimal.RequireFromString("250.00")), "got %s", order.TotalPrice)

	var delivery models.OutboundDelivery
	require.NoError(t, e.db.Where("sales_order_id = ?", order.ID).First(&delivery).Error)
	assert.Equal(t, models.DeliveryStatusPending, delivery.Status)
	assert.Equal(t, int32(10), delivery.TotalOrderedQty)
	assert.Equal(t, int32(15), delivery.PaymentTerms)
}

func TestDispatchDeductsStockOrFailsAtomically(t *testing.T) {
	e := newFlowEnv(t)
	e.stockProduct(t, "Praziquantel", 8)

	w := doJSON(t, e.r, http.MethodPost, "/sales-orders", gin.H{
		"client_name": "Clinica Reyes",
		"lines": []gin.H{
			{"product_name": "Praziquantel", "line_price": "10.00", "line_qty": 12},
		},
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var delivery models.OutboundDelivery
	require.NoError(t, e.db.Order("id DESC").First(&delivery).Error)

	// more than on hand: nothing moves
	w = doJSON(t, e.r, http.MethodPost, "/deliveries/outbound/"+itoa(delivery.ID)+"/dispatch", nil)
	assert.Equal(t, http.StatusConflict, w.Code, w.Body.String())

	var product models.Product
	require.NoError(t, e.db.Where("name = ?", "Praziquantel").First(&product).Error)
	assert.Equal(t, int32(8), product.QuantityOnHand)

	var stored models.OutboundDelivery
	require.NoError(t, e.db.First(&stored, delivery.ID).Error)
	assert.Equal(t, models.DeliveryStatusPending, stored.Status)
}

func TestOutboundReceiveCreatesPaymentAndInvoice(t *testing.T) {
	e := newFlowEnv(t)
	e.stockProduct(t, "Oxytetracycline", 40)

	w := doJSON(t, e.r, http.MethodPost, "/sales-orders", gin.H{
		"client_name":   "Agrivet Norte",
		"payment_terms": 30,
		"lines": []gin.H{
			{"product_name": "Oxytetracycline", "line_price": "12.50", "line_qty": 20},
		},
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var delivery models.OutboundDelivery
	require.NoError(t, e.db.Order("id DESC").First(&delivery).Error)

	w = doJSON(t, e.r, http.MethodPost, "/deliveries/outbound/"+itoa(delivery.ID)+"/dispatch", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var product models.Product
	require.NoError(t, e.db.Where("name = ?", "Oxytetracycline").First(&product).Error)
	assert.Equal(t, int32(20), product.QuantityOnHand)

	w = doJSON(t, e.r, http.MethodPost, "/deliveries/outbound/"+itoa(delivery.ID)+"/receive", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var payment models.CustomerPayment
	require.NoError(t, e.db.Where("outbound_delivery_id = ?", delivery.ID).First(&payment).Error)
	assert.Equal(t, models.PaymentStatusUnpaid, payment.PaymentStatus)
	assert.True(t, payment.AmountBalance.Equal(decimal.RequireFromString("250.00")), "got %s", payment.AmountBalance)
	require.NotNil(t, payment.PaymentDueDate)
	wantDue := payment.PaymentStartDate.AddDate(0, 0, 30)
	assert.WithinDuration(t, wantDue, *payment.PaymentDueDate, time.Minute)

	var invoice models.SalesInvoice
	require.NoError(t, e.db.Preload("Items").
		Where("outbound_delivery_id = ?", delivery.ID).First(&invoice).Error)
	assert.Equal(t, "INV001", invoice.InvoiceID)
	require.Len(t, invoice.Items, 1)
	assert.Equal(t, int32(20), invoice.Items[0].QtyDelivered)
	assert.True(t, invoice.TotalGrossRevenue.Equal(decimal.RequireFromString("250.00")), "got %s", invoice.TotalGrossRevenue)

	// receiving again conflicts
	w = doJSON(t, e.r, http.MethodPost, "/deliveries/outbound/"+itoa(delivery.ID)+"/receive", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestPaymentStacking(t *testing.T) {
	e := newFlowEnv(t)
	e.stockProduct(t, "Tolfenamic acid", 30)

	w := doJSON(t, e.r, http.MethodPost, "/sales-orders", gin.H{
		"client_name": "Poultry Plus",
		"lines": []gin.H{
			{"product_name": "Tolfenamic acid", "line_price": "10.00", "line_qty": 10},
		},
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var delivery models.OutboundDelivery
	require.NoError(t, e.db.Order("id DESC").First(&delivery).Error)
	w = doJSON(t, e.r, http.MethodPost, "/deliveries/outbound/"+itoa(delivery.ID)+"/dispatch", nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = doJSON(t, e.r, http.MethodPost, "/deliveries/outbound/"+itoa(delivery.ID)+"/receive", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var payment models.CustomerPayment
	require.NoError(t, e.db.Where("outbound_delivery_id = ?", delivery.ID).First(&payment).Error)

	w = doJSON(t, e.r, http.MethodPatch, "/payments/"+itoa(payment.ID), gin.H{"amount": "40.00"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var updated models.CustomerPayment
	decodeData(t, w, &updated)
	assert.Equal(t, models.PaymentStatusPartiallyPaid, updated.PaymentStatus)
	assert.True(t, updated.AmountBalance.Equal(decimal.RequireFromString("60.00")), "got %s", updated.AmountBalance)

	// overpayment is rejected
	w = doJSON(t, e.r, http.MethodPatch, "/payments/"+itoa(payment.ID), gin.H{"amount": "100.00"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, e.r, http.MethodPatch, "/payments/"+itoa(payment.ID), gin.H{"amount": "60.00"})
	require.Equal(t, http.StatusOK, w.Code)
	decodeData(t, w, &updated)
	assert.Equal(t, models.PaymentStatusPaid, updated.PaymentStatus)
	assert.True(t, updated.AmountBalance.IsZero())

	// settled payments accept nothing further
	w = doJSON(t, e.r, http.MethodPatch, "/payments/"+itoa(payment.ID), gin.H{"amount": "1.00"})
	assert.Equal(t, http.StatusConflict, w.Code)
}
