package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GoPolymarket/polyagent/internal/service"
)

type MarketHandler struct {
	svc *service.GatewayService
}

func NewMarketHandler(svc *service.GatewayService) *MarketHandler {
	return &MarketHandler{svc: svc}
}

// Params returns the trading parameters for a token. ?refresh=true bypasses
// the cache. This route never touches the auth session.
func (h *MarketHandler) Params(c *gin.Context) {
	force := c.Query("refresh") == "true"
	params, err := h.svc.MarketParams(c.Request.Context(), c.Param("token_id"), force)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, params)
}
