package service

import (
	"context"
	"sync"

	"github.com/GoPolymarket/polyagent/internal/model"
	"github.com/GoPolymarket/polyagent/internal/pkg/apperrors"
	"github.com/GoPolymarket/polyagent/internal/pkg/logger"
	"github.com/GoPolymarket/polyagent/internal/pkg/metrics"
)

// Submitter places and cancels orders against the exchange.
type Submitter interface {
	PlaceOrder(ctx context.Context, req *model.OrderRequest, params *model.MarketTradingParams) (*model.OrderResult, error)
	CancelOrder(ctx context.Context, orderID string) (*model.CancelResult, error)
	CancelOrders(ctx context.Context, orderIDs []string) (*model.CancelAllResult, error)
	CancelAll(ctx context.Context) (*model.CancelAllResult, error)
}

// Reader serves authenticated account queries.
type Reader interface {
	OpenOrders(ctx context.Context, market, assetID string) ([]model.OrderSummary, error)
	Order(ctx context.Context, orderID string) (*model.OrderSummary, error)
	BalanceAllowance(ctx context.Context, assetType, tokenID string) (*model.BalanceInfo, error)
}

// Capability bundles the authenticated surfaces produced by a successful
// handshake.
type Capability struct {
	Submitter Submitter
	Reader    Reader
}

// HandshakeFunc performs the credential handshake and returns the
// authenticated capability. It is invoked at most once per session epoch.
type HandshakeFunc func(ctx context.Context) (*Capability, error)

// SessionState tracks the lifecycle of the authenticated session.
type SessionState int32

const (
	StateUnauthenticated SessionState = iota
	StateAuthenticating
	StateAuthenticated
	StateFailed
)

func (s SessionState) String() string {
	switch s {
	case StateUnauthenticated:
		return "unauthenticated"
	case StateAuthenticating:
		return "authenticating"
	case StateAuthenticated:
		return "authenticated"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Session guards the credential handshake so it runs at most once no matter
// how many requests race for it. A failed handshake is cached and returned
// to every subsequent caller until Reset.
type Session struct {
	mu         sync.Mutex
	state      SessionState
	capability *Capability
	failure    *apperrors.AppError
	inflight   chan struct{}

	hasKey    bool
	handshake HandshakeFunc
}

// NewSession builds a session around the given handshake. hasKey reports
// whether a wallet private key is configured at all; without one every
// Acquire fails fast with a configuration error and no state transition.
func NewSession(hasKey bool, handshake HandshakeFunc) *Session {
	return &Session{
		state:     StateUnauthenticated,
		hasKey:    hasKey,
		handshake: handshake,
	}
}

// State returns the current session state.
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Acquire returns the authenticated capability, running the handshake on the
// first call. Concurrent callers during the handshake block until it
// resolves and share its outcome.
func (s *Session) Acquire(ctx context.Context) (*Capability, error) {
	if !s.hasKey {
		return nil, apperrors.New(apperrors.ErrCredentialsMissing, "no wallet private key configured", nil)
	}

	for {
		s.mu.Lock()
		switch s.state {
		case StateAuthenticated:
			c := s.capability
			s.mu.Unlock()
			return c, nil
		case StateFailed:
			failure := s.failure
			s.mu.Unlock()
			return nil, failure
		case StateAuthenticating:
			wait := s.inflight
			s.mu.Unlock()
			select {
			case <-wait:
				// Re-check the resolved state.
			case <-ctx.Done():
				return nil, apperrors.New(apperrors.ErrAuthBackend, "authentication wait canceled", ctx.Err())
			}
		case StateUnauthenticated:
			s.state = StateAuthenticating
			s.inflight = make(chan struct{})
			done := s.inflight
			s.mu.Unlock()
			// The outcome is shared with every waiting caller, so the
			// handshake must not die with this caller's request context.
			s.run(context.WithoutCancel(ctx), done)
		}
	}
}

// run executes the handshake outside the lock and publishes the outcome.
func (s *Session) run(ctx context.Context, done chan struct{}) {
	c, err := s.handshake(ctx)

	s.mu.Lock()
	if err != nil {
		s.state = StateFailed
		s.failure = asAuthError(err)
		metrics.AuthHandshakes.WithLabelValues("failure").Inc()
		logger.Error("credential handshake failed", "error", err)
	} else {
		s.state = StateAuthenticated
		s.capability = c
		metrics.AuthHandshakes.WithLabelValues("success").Inc()
		logger.Info("credential handshake succeeded")
	}
	s.mu.Unlock()
	close(done)
}

// Reset clears a failed or established session so the next Acquire performs
// a fresh handshake. A handshake already in flight is left to finish.
func (s *Session) Reset() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateAuthenticating {
		return false
	}
	s.state = StateUnauthenticated
	s.capability = nil
	s.failure = nil
	return true
}

func asAuthError(err error) *apperrors.AppError {
	if appErr, ok := err.(*apperrors.AppError); ok {
		return appErr
	}
	return apperrors.New(apperrors.ErrAuthBackend, "credential handshake failed", err)
}
