package hubclient

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/aihubhq/aihub/internal/domain"
	"github.com/aihubhq/aihub/pkg/logger"
)

// BrowserOpener opens a URL in a new browser context
type BrowserOpener interface {
	Open(url string) error
}

// BrowserOpenerFunc adapts a function to BrowserOpener
type BrowserOpenerFunc func(url string) error

func (f BrowserOpenerFunc) Open(url string) error {
	return f(url)
}

// Session is the signed-in user's client state: identity and the last fetched balance.
// Reads go through Credits, writes through Refresh.
type Session struct {
	client *Client
	opener BrowserOpener
	logger logger.Logger

	mu      sync.RWMutex
	credits int
	loaded  bool
}

func NewSession(client *Client, opener BrowserOpener) *Session {
	return &Session{
		client: client,
		opener: opener,
		logger: client.logger,
	}
}

// Credits returns the cached balance and whether it was ever fetched
func (s *Session) Credits() (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.credits, s.loaded
}

// Refresh re-reads the balance from the API
func (s *Session) Refresh(ctx context.Context) (int, error) {
	credits, err := s.client.Credits(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to refresh credits: %w", err)
	}
	s.mu.Lock()
	s.credits = credits
	s.loaded = true
	s.mu.Unlock()
	return credits, nil
}

// ExecuteTool checks the balance right before running the tool. On a shortfall it
// opens the checkout page and returns *domain.ErrInsufficientCredits without
// creating an execution. The check is advisory: the server debits with its own guard
// and may still answer 402, which is handled the same way.
func (s *Session) ExecuteTool(ctx context.Context, tool *domain.Tool, input map[string]interface{}) (*domain.ExecutionView, error) {
	available, err := s.Refresh(ctx)
	if err != nil {
		return nil, err
	}

	if available < tool.CreditCost {
		checkoutURL, err := s.client.CheckoutURL(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to create checkout link: %w", err)
		}
		return nil, s.openCheckout(&domain.ErrInsufficientCredits{
			Required:    tool.CreditCost,
			Available:   available,
			CheckoutURL: checkoutURL,
		})
	}

	view, err := s.client.Execute(ctx, &domain.ExecuteToolRequest{ToolID: tool.ID, Input: input})
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && IsInsufficientCredits(err) {
			s.setCredits(apiErr.Available)
			return nil, s.openCheckout(&domain.ErrInsufficientCredits{
				Required:    apiErr.Required,
				Available:   apiErr.Available,
				CheckoutURL: apiErr.CheckoutURL,
			})
		}
		return nil, err
	}

	if _, err := s.Refresh(ctx); err != nil {
		s.logger.WithField("error", err.Error()).Warn("Balance refresh after execution failed")
	}
	return view, nil
}

func (s *Session) setCredits(credits int) {
	s.mu.Lock()
	s.credits = credits
	s.loaded = true
	s.mu.Unlock()
}

func (s *Session) openCheckout(shortfall *domain.ErrInsufficientCredits) error {
	if s.opener == nil || shortfall.CheckoutURL == "" {
		return shortfall
	}
	if err := s.opener.Open(shortfall.CheckoutURL); err != nil {
		s.logger.WithField("error", err.Error()).Warn("Failed to open checkout page")
	}
	return shortfall
}
