package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"provet-system/internal/database/models"
	"provet-system/internal/middleware"
)

type SalesOrderHandler struct {
	db *gorm.DB
}

func NewSalesOrderHandler(db *gorm.DB) *SalesOrderHandler {
	return &SalesOrderHandler{db: db}
}

type salesOrderLineRequest struct {
	ProductID    *int32          `json:"product_id"`
	ProductName  string          `json:"product_name" binding:"required"`
	LinePrice    decimal.Decimal `json:"line_price"`
	LineQty      int32           `json:"line_qty" binding:"required,gt=0"`
	LineDiscount decimal.Decimal `json:"line_discount"`
}

type salesOrderRequest struct {
	ClientID       *int32                  `json:"client_id"`
	ClientName     string                  `json:"client_name" binding:"required"`
	ClientProvince string                  `json:"client_province"`
	ClientCity     string                  `json:"client_city"`
	ClientPhone    string                  `json:"client_phone"`
	DeliveryOption string                  `json:"delivery_option"`
	PaymentOption  string                  `json:"payment_option"`
	PaymentTerms   int32                   `json:"payment_terms"`
	Lines          []salesOrderLineRequest `json:"lines" binding:"required,min=1,dive"`
}

// Create records a sales order. Orders placed by back-office staff are
// trusted and accepted immediately, which opens the outbound delivery in
// the same transaction. Customer-placed orders stay Pending for review.
func (h *SalesOrderHandler) Create(c *gin.Context) {
	var req salesOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	userID := middleware.UserID(c)
	autoAccept := middleware.IsAdmin(c)

	var order models.SalesOrder
	var delivery *models.OutboundDelivery
	err := h.db.Transaction(func(tx *gorm.DB) error {
		var phone *string
		if req.ClientPhone != "" {
			phone = &req.ClientPhone
		}
		client, err := findOrCreateCustomer(tx, req.ClientName, req.ClientCity, req.ClientProvince, phone)
		if err != nil {
			return err
		}

		order = models.SalesOrder{
			Status:          models.OrderStatusPending,
			ClientID:        client.ID,
			ClientName:      client.Name,
			ClientProvince:  req.ClientProvince,
			ClientCity:      req.ClientCity,
			ClientPhone:     req.ClientPhone,
			PaymentTerms:    req.PaymentTerms,
			CreatedByUserID: &userID,
		}
		if req.DeliveryOption != "" {
			order.DeliveryOption = req.DeliveryOption
		}
		if req.PaymentOption != "" {
			order.PaymentOption = req.PaymentOption
		}
		if err := tx.Create(&order).Error; err != nil {
			return err
		}

		var totalQty int32
		totalPrice := decimal.Zero
		totalDiscount := decimal.Zero
		for _, line := range req.Lines {
			product, err := findOrCreateProduct(tx, line.ProductID, line.ProductName)
			if err != nil {
				return err
			}
			qty := decimal.NewFromInt32(line.LineQty)
			lineTotal := line.LinePrice.Mul(qty).Sub(line.LineDiscount)
			detail := models.SalesOrderDetail{
				SalesOrderID: order.ID,
				ProductID:    product.ID,
				ProductName:  product.Name,
				LinePrice:    line.LinePrice,
				LineQty:      line.LineQty,
				LineDiscount: line.LineDiscount,
				LineTotal:    lineTotal,
			}
			if err := tx.Create(&detail).Error; err != nil {
				return err
			}
			order.Details = append(order.Details, detail)
			totalQty += line.LineQty
			totalPrice = totalPrice.Add(lineTotal)
			totalDiscount = totalDiscount.Add(line.LineDiscount)
		}

		order.TotalQty = totalQty
		order.TotalPrice = totalPrice
		order.TotalDiscount = totalDiscount
		if err := tx.Model(&models.SalesOrder{}).Where("id = ?", order.ID).Updates(map[string]interface{}{
			"total_qty":      totalQty,
			"total_price":    totalPrice,
			"total_discount": totalDiscount,
		}).Error; err != nil {
			return err
		}

		if autoAccept {
			d, err := acceptSalesOrder(tx, &order, middleware.Username(c), userID)
			if err != nil {
				return err
			}
			delivery = d
		}
		return nil
	})
	if err != nil {
		fail(c, http.StatusInternalServerError, "Failed to create sales order")
		return
	}

	appendLog(h.db, c, models.LogTypeTransaction,
		fmt.Sprintf("Created sales order #%d for %s", order.ID, order.ClientName))
	if delivery != nil {
		created(c, gin.H{"order": order, "outbound_delivery": delivery})
		return
	}
	created(c, order)
}

// acceptSalesOrder flips a pending order to Accepted and opens its one
// outbound delivery, copying the order lines as delivery lines.
func acceptSalesOrder(tx *gorm.DB, order *models.SalesOrder, acceptedBy string, acceptedByID int64) (*models.OutboundDelivery, error) {
	if order.Status != models.OrderStatusPending {
		return nil, errAlreadyAccepted
	}

	if err := tx.Model(&models.SalesOrder{}).Where("id = ?", order.ID).
		Update("status", models.OrderStatusAccepted).Error; err != nil {
		return nil, err
	}
	order.Status = models.OrderStatusAccepted

	delivery := models.OutboundDelivery{
		SalesOrderID:    order.ID,
		ClientID:        &order.ClientID,
		CustomerName:    order.ClientName,
		TotalPrice:      order.TotalPrice,
		Discount:        order.TotalDiscount,
		PaymentTerms:    order.PaymentTerms,
		PaymentOption:   &order.PaymentOption,
		Status:          models.DeliveryStatusPending,
		TotalOrderedQty: order.TotalQty,
		DeliveryOption:  order.DeliveryOption,
		City:            &order.ClientCity,
		Province:        &order.ClientProvince,
		AcceptedByName:  acceptedBy,
		AcceptedByID:    &acceptedByID,
	}
	if err := tx.Create(&delivery).Error; err != nil {
		return nil, err
	}

	for _, line := range order.Details {
		detail := models.OutboundDeliveryDetail{
			OutboundDeliveryID: delivery.ID,
			ProductID:          line.ProductID,
			ProductName:        line.ProductName,
			QtyOrdered:         line.LineQty,
			LineDiscount:       line.LineDiscount,
			SellPrice:          line.LinePrice,
			LineTotal:          line.LineTotal,
		}
		if err := tx.Create(&detail).Error; err != nil {
			return nil, err
		}
		delivery.Details = append(delivery.Details, detail)
	}
	return &delivery, nil
}

func (h *SalesOrderHandler) Accept(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid order ID")
		return
	}

	var delivery *models.OutboundDelivery
	txErr := h.db.Transaction(func(tx *gorm.DB) error {
		var order models.SalesOrder
		if err := tx.Preload("Details").First(&order, id).Error; err != nil {
			return err
		}
		d, err := acceptSalesOrder(tx, &order, middleware.Username(c), middleware.UserID(c))
		if err != nil {
			return err
		}
		delivery = d
		return nil
	})
	if txErr == errAlreadyAccepted {
		fail(c, http.StatusConflict, "Sales order has already been accepted")
		return
	}
	if txErr == gorm.ErrRecordNotFound {
		fail(c, http.StatusNotFound, "Sales order not found")
		return
	}
	if txErr != nil {
		fail(c, http.StatusInternalServerError, "Failed to accept sales order")
		return
	}

	appendLog(h.db, c, models.LogTypeTransaction,
		fmt.Sprintf("Accepted sales order #%d, outbound delivery #%d opened", id, delivery.ID))
	success(c, gin.H{"order_id": id, "outbound_delivery": delivery})
}

func (h *SalesOrderHandler) List(c *gin.Context) {
	query := h.db.Model(&models.SalesOrder{}).Order("created_at DESC")
	if status := parseStringQuery(c, "status"); status != nil {
		query = query.Where("status = ?", *status)
	}
	if search := parseStringQuery(c, "search"); search != nil {
		query = query.Where("client_name ILIKE ?", "%"+*search+"%")
	}
	if clientID := parseIntQuery(c, "client_id"); clientID != nil {
		query = query.Where("client_id = ?", *clientID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		fail(c, http.StatusInternalServerError, "database error")
		return
	}

	p := buildPagination(c)
	var orders []models.SalesOrder
	if err := query.Offset(p.offset()).Limit(p.PageSize).Find(&orders).Error; err != nil {
		fail(c, http.StatusInternalServerError, "database error")
		return
	}
	paginated(c, orders, total, p)
}

func (h *SalesOrderHandler) Get(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid order ID")
		return
	}

	var order models.SalesOrder
	if err := h.db.Preload("Details").Preload("Client").First(&order, id).Error; err != nil {
		fail(c, http.StatusNotFound, "Sales order not found")
		return
	}
	success(c, order)
}

func (h *SalesOrderHandler) GetDetails(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid order ID")
		return
	}

	var details []models.SalesOrderDetail
	if err := h.db.Where("sales_order_id = ?", id).Find(&details).Error; err != nil {
		fail(c, http.StatusInternalServerError, "database error")
		return
	}
	success(c, details)
}

// Update replaces the order lines of an order that has not shipped yet and
// keeps its outbound delivery, when one exists, in sync.
func (h *SalesOrderHandler) Update(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid order ID")
		return
	}

	var req struct {
		DeliveryOption *string                 `json:"delivery_option"`
		PaymentOption  *string                 `json:"payment_option"`
		PaymentTerms   *int32                  `json:"payment_terms"`
		Lines          []salesOrderLineRequest `json:"lines"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	var order models.SalesOrder
	txErr := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&order, id).Error; err != nil {
			return err
		}
		if order.Status != models.OrderStatusPending && order.Status != models.OrderStatusAccepted {
			return errAlreadyFinal
		}

		updates := map[string]interface{}{}
		if req.DeliveryOption != nil {
			updates["delivery_option"] = *req.DeliveryOption
		}
		if req.PaymentOption != nil {
			updates["payment_option"] = *req.PaymentOption
		}
		if req.PaymentTerms != nil {
			updates["payment_terms"] = *req.PaymentTerms
		}

		if len(req.Lines) > 0 {
			if err := tx.Where("sales_order_id = ?", order.ID).Delete(&models.SalesOrderDetail{}).Error; err != nil {
				return err
			}

			var totalQty int32
			totalPrice := decimal.Zero
			totalDiscount := decimal.Zero
			order.Details = nil
			for _, line := range req.Lines {
				product, err := findOrCreateProduct(tx, line.ProductID, line.ProductName)
				if err != nil {
					return err
				}
				qty := decimal.NewFromInt32(line.LineQty)
				lineTotal := line.LinePrice.Mul(qty).Sub(line.LineDiscount)
				detail := models.SalesOrderDetail{
					SalesOrderID: order.ID,
					ProductID:    product.ID,
					ProductName:  product.Name,
					LinePrice:    line.LinePrice,
					LineQty:      line.LineQty,
					LineDiscount: line.LineDiscount,
					LineTotal:    lineTotal,
				}
				if err := tx.Create(&detail).Error; err != nil {
					return err
				}
				order.Details = append(order.Details, detail)
				totalQty += line.LineQty
				totalPrice = totalPrice.Add(lineTotal)
				totalDiscount = totalDiscount.Add(line.LineDiscount)
			}
			updates["total_qty"] = totalQty
			updates["total_price"] = totalPrice
			updates["total_discount"] = totalDiscount
			order.TotalQty = totalQty
			order.TotalPrice = totalPrice
			order.TotalDiscount = totalDiscount
		}

		if len(updates) > 0 {
			if err := tx.Model(&models.SalesOrder{}).Where("id = ?", order.ID).Updates(updates).Error; err != nil {
				return err
			}
		}

		// Accepted orders already have a delivery open. Mirror the new lines
		// into it so dispatch picks up what the customer actually ordered.
		if order.Status == models.OrderStatusAccepted && len(req.Lines) > 0 {
			var delivery models.OutboundDelivery
			err := tx.Where("sales_order_id = ?", order.ID).First(&delivery).Error
			if err == gorm.ErrRecordNotFound {
				return nil
			}
			if err != nil {
				return err
			}
			if delivery.Status != models.DeliveryStatusPending {
				return errAlreadyFinal
			}
			if err := tx.Where("outbound_delivery_id = ?", delivery.ID).Delete(&models.OutboundDeliveryDetail{}).Error; err != nil {
				return err
			}
			for _, line := range order.Details {
				detail := models.OutboundDeliveryDetail{
					OutboundDeliveryID: delivery.ID,
					ProductID:          line.ProductID,
					ProductName:        line.ProductName,
					QtyOrdered:         line.LineQty,
					LineDiscount:       line.LineDiscount,
					SellPrice:          line.LinePrice,
					LineTotal:          line.LineTotal,
				}
				if err := tx.Create(&detail).Error; err != nil {
					return err
				}
			}
			return tx.Model(&delivery).Updates(map[string]interface{}{
				"total_ordered_qty": order.TotalQty,
				"total_price":       order.TotalPrice,
				"discount":          order.TotalDiscount,
			}).Error
		}
		return nil
	})
	if txErr == errAlreadyFinal {
		fail(c, http.StatusConflict, "Order can no longer be modified")
		return
	}
	if txErr == gorm.ErrRecordNotFound {
		fail(c, http.StatusNotFound, "Sales order not found")
		return
	}
	if txErr != nil {
		fail(c, http.StatusInternalServerError, "Failed to update sales order")
		return
	}
	success(c, order)
}

func (h *SalesOrderHandler) UpdateStatus(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid order ID")
		return
	}

	var req struct {
		Status models.OrderStatus `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Status == models.OrderStatusAccepted {
		fail(c, http.StatusBadRequest, "Use the accept endpoint to accept an order")
		return
	}

	var order models.SalesOrder
	if err := h.db.First(&order, id).Error; err != nil {
		fail(c, http.StatusNotFound, "Sales order not found")
		return
	}

	if err := h.db.Model(&order).Update("status", req.Status).Error; err != nil {
		fail(c, http.StatusInternalServerError, "Failed to update sales order")
		return
	}
	order.Status = req.Status
	success(c, order)
}

func (h *SalesOrderHandler) PendingCount(c *gin.Context) {
	var total int64
	if err := h.db.Model(&models.SalesOrder{}).
		Where("status = ?", models.OrderStatusPending).Count(&total).Error; err != nil {
		fail(c, http.StatusInternalServerError, "database error")
		return
	}
	success(c, gin.H{"total": total})
}
