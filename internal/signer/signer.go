// Package signer implements direct EIP-712 signing of CTF Exchange orders.
// The domain separator is computed once at construction so each order
// signature costs a single struct hash plus one ECDSA sign.
package signer

import (
	"crypto/ecdsa"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
)

const (
	domainName    = "Polymarket CTF Exchange"
	domainVersion = "1"

	// ExchangeContractAddress is the CTF Exchange on Polygon.
	ExchangeContractAddress = "0x4bFb41d5B3570DeFd03C39a9A4D8dE6Bd8B8982E"
)

var (
	// "EIP712Domain(string name,string version,uint256 chainId,address verifyingContract)"
	domainTypeHash = crypto.Keccak256Hash([]byte("EIP712Domain(string name,string version,uint256 chainId,address verifyingContract)"))

	// Order type hash as defined by the exchange contract.
	orderTypeHash = crypto.Keccak256Hash([]byte("Order(uint256 salt,address maker,address signer,address taker,uint256 tokenId,uint256 makerAmount,uint256 takerAmount,uint256 expiration,uint256 nonce,uint256 feeRateBps,uint8 side,uint8 signatureType)"))
)

// Order is the flat on-chain order struct covered by the signature.
type Order struct {
	Salt          *big.Int
	Maker         common.Address
	Signer        common.Address
	Taker         common.Address
	TokenID       *big.Int
	MakerAmount   *big.Int
	TakerAmount   *big.Int
	Expiration    *big.Int
	Nonce         *big.Int
	FeeRateBps    *big.Int
	Side          uint8 // 0 = BUY, 1 = SELL
	SignatureType uint8
}

// Signer signs exchange orders with a wallet private key.
type Signer struct {
	key             *ecdsa.PrivateKey
	address         common.Address
	chainID         *big.Int
	domainSeparator common.Hash
}

// NewSigner parses the hex private key (no 0x prefix) and precomputes the
// EIP-712 domain separator for the given chain.
func NewSigner(privateKeyHex string, chainID int64) (*Signer, error) {
	if privateKeyHex == "" {
		return nil, fmt.Errorf("private key is required")
	}
	key, err := crypto.HexToECDSA(privateKeyHex)
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %v", err)
	}
	address := crypto.PubkeyToAddress(key.PublicKey)

	// domainSeparator = keccak256(abi.encode(typeHash, keccak256(name),
	// keccak256(version), chainId, verifyingContract)). Encoded by hand; all
	// fields are 32-byte words.
	domainData := make([]byte, 32*5)
	copy(domainData[0:32], domainTypeHash.Bytes())
	copy(domainData[32:64], crypto.Keccak256Hash([]byte(domainName)).Bytes())
	copy(domainData[64:96], crypto.Keccak256Hash([]byte(domainVersion)).Bytes())
	copy(domainData[96:128], math.U256Bytes(big.NewInt(chainID)))
	copy(domainData[128+12:160], common.HexToAddress(ExchangeContractAddress).Bytes())

	return &Signer{
		key:             key,
		address:         address,
		chainID:         big.NewInt(chainID),
		domainSeparator: crypto.Keccak256Hash(domainData),
	}, nil
}

// Address returns the signing address.
func (s *Signer) Address() common.Address {
	return s.address
}

// ChainID returns the chain the domain separator was computed for.
func (s *Signer) ChainID() *big.Int {
	return new(big.Int).Set(s.chainID)
}

// SignOrder hashes the order per EIP-712 and signs it, returning the 65-byte
// signature hex-encoded with V adjusted to 27/28.
func (s *Signer) SignOrder(order *Order) (string, error) {
	structHash, err := s.hashOrder(order)
	if err != nil {
		return "", err
	}

	finalHash := crypto.Keccak256([]byte{0x19, 0x01}, s.domainSeparator.Bytes(), structHash)

	signature, err := crypto.Sign(finalHash, s.key)
	if err != nil {
		return "", err
	}
	if signature[64] < 27 {
		signature[64] += 27
	}

	return "0x" + common.Bytes2Hex(signature), nil
}

// hashOrder computes hashStruct(order): keccak256 over the type hash plus
// the twelve ABI-encoded fields.
func (s *Signer) hashOrder(order *Order) ([]byte, error) {
	data := make([]byte, 32*13)

	copy(data[0:32], orderTypeHash.Bytes())
	if order.Salt != nil {
		copy(data[32:64], math.U256Bytes(order.Salt))
	}
	copy(data[64+12:96], order.Maker.Bytes())
	copy(data[96+12:128], order.Signer.Bytes())
	copy(data[128+12:160], order.Taker.Bytes())
	if order.TokenID != nil {
		copy(data[160:192], math.U256Bytes(order.TokenID))
	}
	if order.MakerAmount != nil {
		copy(data[192:224], math.U256Bytes(order.MakerAmount))
	}
	if order.TakerAmount != nil {
		copy(data[224:256], math.U256Bytes(order.TakerAmount))
	}
	if order.Expiration != nil {
		copy(data[256:288], math.U256Bytes(order.Expiration))
	}
	if order.Nonce != nil {
		copy(data[288:320], math.U256Bytes(order.Nonce))
	}
	if order.FeeRateBps != nil {
		copy(data[320:352], math.U256Bytes(order.FeeRateBps))
	}
	copy(data[352:384], math.U256Bytes(big.NewInt(int64(order.Side))))
	copy(data[384:416], math.U256Bytes(big.NewInt(int64(order.SignatureType))))

	return crypto.Keccak256(data), nil
}
