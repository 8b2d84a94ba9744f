package signer

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

// StaticSigner carries an address and chain ID without a key. It satisfies
// the SDK signer interface for order construction; actual signing happens
// through Signer.SignOrder.
type StaticSigner struct {
	address common.Address
	chainID *big.Int
}

func NewStaticSigner(address string, chainID int64) (*StaticSigner, error) {
	if address == "" {
		return nil, fmt.Errorf("signer address is required")
	}
	if !common.IsHexAddress(address) {
		return nil, fmt.Errorf("invalid signer address: %s", address)
	}
	return &StaticSigner{
		address: common.HexToAddress(address),
		chainID: big.NewInt(chainID),
	}, nil
}

func (s *StaticSigner) Address() common.Address {
	return s.address
}

func (s *StaticSigner) ChainID() *big.Int {
	return s.chainID
}

func (s *StaticSigner) SignTypedData(_ *apitypes.TypedDataDomain, _ apitypes.Types, _ apitypes.TypedDataMessage, _ string) ([]byte, error) {
	return nil, errors.New("static signer cannot sign")
}
