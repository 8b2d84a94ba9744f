package service

import (
	"math/big"
	"testing"

	"github.com/GoPolymarket/polymarket-go-sdk/pkg/clob/clobtypes"
	sdktypes "github.com/GoPolymarket/polymarket-go-sdk/pkg/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/GoPolymarket/polyagent/internal/clob"
)

func sdkOrder() *clobtypes.Order {
	return &clobtypes.Order{
		Salt:        sdktypes.U256{Int: big.NewInt(42)},
		Maker:       common.HexToAddress("0x1111111111111111111111111111111111111111"),
		Signer:      common.HexToAddress("0x1111111111111111111111111111111111111111"),
		Taker:       common.Address{},
		TokenID:     sdktypes.U256{Int: big.NewInt(999)},
		MakerAmount: decimal.NewFromInt(50000000),
		TakerAmount: decimal.NewFromInt(100000000),
		Expiration:  sdktypes.U256{Int: big.NewInt(0)},
		Nonce:       sdktypes.U256{Int: big.NewInt(0)},
		FeeRateBps:  decimal.NewFromInt(20),
		Side:        "BUY",
	}
}

func TestToChainOrder(t *testing.T) {
	o := toChainOrder(sdkOrder())
	assert.Equal(t, int64(42), o.Salt.Int64())
	assert.Equal(t, int64(999), o.TokenID.Int64())
	assert.Equal(t, int64(50000000), o.MakerAmount.Int64())
	assert.Equal(t, int64(20), o.FeeRateBps.Int64())
	assert.Equal(t, uint8(0), o.Side)
	assert.Equal(t, uint8(0), o.SignatureType)

	sell := sdkOrder()
	sell.Side = "SELL"
	assert.Equal(t, uint8(1), toChainOrder(sell).Side)
}

func TestApplyFunder(t *testing.T) {
	eoa := common.HexToAddress("0x1111111111111111111111111111111111111111")
	proxy := common.HexToAddress("0x2222222222222222222222222222222222222222")

	o := sdkOrder()
	applyFunder(o, common.Address{})
	assert.Equal(t, eoa, o.Maker, "no funder leaves the EOA as maker")
	assert.Nil(t, o.SignatureType)

	o = sdkOrder()
	applyFunder(o, eoa)
	assert.Equal(t, eoa, o.Maker, "funder matching the signer stays an EOA order")
	assert.Nil(t, o.SignatureType)

	o = sdkOrder()
	applyFunder(o, proxy)
	assert.Equal(t, proxy, o.Maker)
	assert.Equal(t, eoa, o.Signer, "EOA stays on as signer")
	if assert.NotNil(t, o.SignatureType) {
		assert.Equal(t, 1, *o.SignatureType)
	}
}

func TestToWireOrder(t *testing.T) {
	wire := toWireOrder(sdkOrder(), "0xsig")
	assert.Equal(t, "42", wire.Salt)
	assert.Equal(t, "999", wire.TokenID)
	assert.Equal(t, "BUY", wire.Side)
	assert.Equal(t, "20", wire.FeeRateBps)
	assert.Equal(t, "0", wire.Expiration)
	assert.Equal(t, 0, wire.SignatureType)
	assert.Equal(t, "0xsig", wire.Signature)
	assert.Equal(t, int64(50000000), wire.MakerAmount.Int64())
}

func TestU256String_NilIsZero(t *testing.T) {
	assert.Equal(t, "0", u256String(sdktypes.U256{}))
	assert.Equal(t, "7", u256String(sdktypes.U256{Int: big.NewInt(7)}))
}

func TestParseOrderType(t *testing.T) {
	assert.Equal(t, clobtypes.OrderTypeGTC, parseOrderType(""))
	assert.Equal(t, clobtypes.OrderTypeGTC, parseOrderType("GTC"))
	assert.Equal(t, clobtypes.OrderTypeGTD, parseOrderType("gtd"))
	assert.Equal(t, clobtypes.OrderTypeFOK, parseOrderType(" FOK "))
	assert.Equal(t, clobtypes.OrderTypeFAK, parseOrderType("FAK"))
	assert.Equal(t, clobtypes.OrderTypeGTC, parseOrderType("bogus"))
}

func TestToCancelAllResult(t *testing.T) {
	out := toCancelAllResult(&clob.CancelResponse{})
	assert.NotNil(t, out.Canceled)
	assert.Empty(t, out.Canceled)
	assert.Nil(t, out.NotCanceled)

	out = toCancelAllResult(&clob.CancelResponse{
		Canceled:    []string{"a"},
		NotCanceled: map[string]string{"b": "already filled"},
	})
	assert.Equal(t, []string{"a"}, out.Canceled)
	assert.Equal(t, "already filled", out.NotCanceled["b"])
}
