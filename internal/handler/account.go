package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/GoPolymarket/polyagent/internal/clob"
	"github.com/GoPolymarket/polyagent/internal/pkg/apperrors"
	"github.com/GoPolymarket/polyagent/internal/service"
	"github.com/GoPolymarket/polyagent/internal/stream"
)

type AccountHandler struct {
	svc        *service.GatewayService
	userStream *stream.UserStream
}

func NewAccountHandler(svc *service.GatewayService, userStream *stream.UserStream) *AccountHandler {
	return &AccountHandler{svc: svc, userStream: userStream}
}

// Balance returns the balance and exchange allowance for the collateral
// (default) or a conditional token when asset_type=CONDITIONAL&token_id=...
func (h *AccountHandler) Balance(c *gin.Context) {
	assetType := strings.ToUpper(c.DefaultQuery("asset_type", clob.AssetCollateral))
	tokenID := c.Query("token_id")

	switch assetType {
	case clob.AssetCollateral:
	case clob.AssetConditional:
		if tokenID == "" {
			c.Error(apperrors.NewInvalidRequest("token_id is required for conditional balances"))
			return
		}
	default:
		c.Error(apperrors.NewInvalidRequest("asset_type must be COLLATERAL or CONDITIONAL"))
		return
	}

	balance, err := h.svc.BalanceAllowance(c.Request.Context(), assetType, tokenID)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, balance)
}

// Fills returns the rolling window of executions from the user stream.
func (h *AccountHandler) Fills(c *gin.Context) {
	if h.userStream == nil {
		c.JSON(http.StatusOK, gin.H{"fills": []stream.Fill{}, "stream_enabled": false})
		return
	}
	fills := h.userStream.Fills()
	c.JSON(http.StatusOK, gin.H{"fills": fills, "stream_enabled": true, "count": len(fills)})
}

// ResetAuth clears a failed credential session so the next live operation
// retries the handshake.
func (h *AccountHandler) ResetAuth(c *gin.Context) {
	reset := h.svc.ResetAuth()
	c.JSON(http.StatusOK, gin.H{
		"reset":         reset,
		"session_state": h.svc.SessionState(),
	})
}
