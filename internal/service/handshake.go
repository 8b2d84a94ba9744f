package service

import (
	"context"
	"net/http"
	"strings"
	"time"

	polymarket "github.com/GoPolymarket/polymarket-go-sdk"

	"github.com/GoPolymarket/polyagent/internal/clob"
	"github.com/GoPolymarket/polyagent/internal/config"
	"github.com/GoPolymarket/polyagent/internal/pkg/apperrors"
	"github.com/GoPolymarket/polyagent/internal/pkg/logger"
	"github.com/GoPolymarket/polyagent/internal/signer"
)

// NewLiveHandshake returns the HandshakeFunc for live trading: parse the
// wallet key, install or derive L2 API credentials, and assemble the
// authenticated executor. Installed credentials land on the shared REST
// client, so the handshake must run before any authenticated call.
func NewLiveHandshake(cfg *config.Config, api *clob.Client) HandshakeFunc {
	return func(ctx context.Context) (*Capability, error) {
		pk := strings.TrimPrefix(strings.TrimSpace(cfg.Wallet.PrivateKey), "0x")

		walletAuth, err := clob.NewAuth(pk, cfg.Wallet.ChainID)
		if err != nil {
			return nil, apperrors.New(apperrors.ErrCredentialsMissing, "invalid wallet private key", err)
		}

		if cfg.HasL2Creds() {
			walletAuth.SetCredentials(clob.Credentials{
				APIKey:     cfg.Creds.APIKey,
				Secret:     cfg.Creds.APISecret,
				Passphrase: cfg.Creds.APIPassphrase,
			})
		} else {
			if _, err := api.DeriveAPIKey(ctx, walletAuth); err != nil {
				return nil, apperrors.New(apperrors.ErrAuthBackend, "api key derivation failed", err)
			}
		}
		api.SetAuth(walletAuth)

		fastSigner, err := signer.NewSigner(pk, cfg.Wallet.ChainID)
		if err != nil {
			return nil, apperrors.New(apperrors.ErrCredentialsMissing, "signer initialization failed", err)
		}
		buildSigner, err := signer.NewStaticSigner(walletAuth.Address().Hex(), cfg.Wallet.ChainID)
		if err != nil {
			return nil, apperrors.New(apperrors.ErrInternal, "build signer initialization failed", err)
		}

		httpClient := &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 100,
				IdleConnTimeout:     90 * time.Second,
			},
			Timeout: 10 * time.Second,
		}
		sdk := polymarket.NewClient(
			polymarket.WithUseServerTime(true),
			polymarket.WithHTTPClient(httpClient),
		)

		logger.Info("live execution session established",
			"address", walletAuth.Address().Hex(),
			"chain_id", cfg.Wallet.ChainID)

		exec := NewLiveExecutor(sdk, api, fastSigner, buildSigner, walletAuth.Credentials().APIKey, cfg.Wallet.FunderAddress, cfg.Trading.MaxSlippage)
		return &Capability{Submitter: exec, Reader: exec}, nil
	}
}
