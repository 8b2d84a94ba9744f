package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GoPolymarket/polyagent/internal/middleware"
	"github.com/GoPolymarket/polyagent/internal/model"
	"github.com/GoPolymarket/polyagent/internal/pkg/apperrors"
	"github.com/GoPolymarket/polyagent/internal/service"
)

type OrderHandler struct {
	svc *service.GatewayService
}

func NewOrderHandler(svc *service.GatewayService) *OrderHandler {
	return &OrderHandler{svc: svc}
}

func (h *OrderHandler) PlaceOrder(c *gin.Context) {
	var req model.OrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.NewInvalidRequest(err.Error()))
		return
	}

	result, err := h.svc.PlaceOrder(c.Request.Context(), &req)
	if err != nil {
		middleware.AddAuditContext(c, "error", err.Error())
		c.Error(err)
		return
	}

	middleware.AddAuditContext(c, "token_id", req.TokenID)
	if result.Success {
		middleware.AddAuditContext(c, "order_id", result.OrderID)
	} else {
		middleware.AddAuditContext(c, "reject_reason", string(result.RejectReason))
	}

	c.JSON(http.StatusOK, result)
}

func (h *OrderHandler) CancelOrder(c *gin.Context) {
	orderID := c.Param("id")
	if orderID == "" {
		c.Error(apperrors.NewInvalidRequest("order id is required"))
		return
	}

	result, err := h.svc.CancelOrder(c.Request.Context(), orderID)
	if err != nil {
		c.Error(err)
		return
	}
	middleware.AddAuditContext(c, "order_id", orderID)
	c.JSON(http.StatusOK, result)
}

// CancelBatch cancels a list of order IDs in one request.
func (h *OrderHandler) CancelBatch(c *gin.Context) {
	var req model.CancelOrdersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.NewInvalidRequest(err.Error()))
		return
	}

	result, err := h.svc.CancelOrders(c.Request.Context(), req.OrderIDs)
	if err != nil {
		c.Error(err)
		return
	}
	middleware.AddAuditContext(c, "requested", len(req.OrderIDs))
	middleware.AddAuditContext(c, "canceled", len(result.Canceled))
	c.JSON(http.StatusOK, result)
}

func (h *OrderHandler) CancelAll(c *gin.Context) {
	result, err := h.svc.CancelAllOrders(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}
	middleware.AddAuditContext(c, "canceled", len(result.Canceled))
	c.JSON(http.StatusOK, result)
}

// Panic suspends all placements and cancels every resting order.
func (h *OrderHandler) Panic(c *gin.Context) {
	result, err := h.svc.ActivatePanicMode(c.Request.Context())
	if err != nil {
		middleware.AddAuditContext(c, "error", err.Error())
		c.Error(err)
		return
	}
	middleware.AddAuditContext(c, "canceled", len(result.Canceled))
	c.JSON(http.StatusOK, gin.H{
		"panic_active": true,
		"result":       result,
	})
}

func (h *OrderHandler) ListOrders(c *gin.Context) {
	orders, err := h.svc.OpenOrders(c.Request.Context(), c.Query("market"), c.Query("asset_id"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders, "count": len(orders)})
}

func (h *OrderHandler) GetOrder(c *gin.Context) {
	order, err := h.svc.GetOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, order)
}
