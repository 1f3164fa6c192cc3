package alquimia

import (
	"context"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/alquimia/consola/internal/config"
	"github.com/alquimia/consola/internal/domain/models"
)

// SessionSource provides the bearer credential attached to every request.
// The client only reads it; login/logout flows own the writes.
type SessionSource interface {
	Token() string
	// Invalidate discards the stored credential after the server rejects it.
	Invalidate()
}

// Client is a resty-backed client for the guild HTTP API.
type Client struct {
	httpClient *resty.Client
	sessions   SessionSource
	logger     *zap.Logger
}

// NewClient builds an API client using the provided configuration values.
func NewClient(cfg config.APIConfig, sessions SessionSource, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}

	restyClient := resty.New()
	restyClient.
		SetBaseURL(strings.TrimSuffix(cfg.BaseURL, "/")).
		SetHeader("Content-Type", "application/json").
		SetTimeout(cfg.Timeout)

	restyClient.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		req.SetHeader("X-Request-ID", uuid.New().String())
		if sessions != nil {
			if token := sessions.Token(); token != "" {
				req.SetHeader("Authorization", "Bearer "+token)
			}
		}
		return nil
	})

	return &Client{
		httpClient: restyClient,
		sessions:   sessions,
		logger:     logger,
	}
}

// LoginResult mirrors the successful login response from the backend.
type LoginResult struct {
	Token string `json:"token"`
	Role  string `json:"role"`
	Email string `json:"email"`
	ID    uint   `json:"id"`
}

// apiError covers the JSON error envelopes the backend emits.
type apiError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (e *apiError) text() string {
	if e == nil {
		return ""
	}
	if e.Error != "" {
		return e.Error
	}
	return e.Message
}

// Login authenticates and returns the issued token plus identity data.
func (c *Client) Login(ctx context.Context, creds models.Credenciales) (*LoginResult, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}

	result := new(LoginResult)
	apiErr := new(apiError)

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(creds).
		SetResult(result).
		SetError(apiErr).
		Post("/login")
	if wrapped := c.check("login", resp, err, apiErr); wrapped != nil {
		return nil, wrapped
	}

	c.logger.Info("login succeeded", zap.String("email", result.Email), zap.String("role", result.Role))
	return result, nil
}

// Register creates a new user account and returns the server's message.
func (c *Client) Register(ctx context.Context, reg models.Registro) (string, error) {
	if err := reg.Validate(); err != nil {
		return "", err
	}

	result := new(apiError)
	apiErr := new(apiError)

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(reg).
		SetResult(result).
		SetError(apiErr).
		Post("/register")
	if wrapped := c.check("register", resp, err, apiErr); wrapped != nil {
		return "", wrapped
	}

	return result.Message, nil
}

// check maps a resty outcome onto the client error taxonomy. A 401 discards
// the held session so views subscribed to the store can react.
func (c *Client) check(op string, resp *resty.Response, err error, apiErr *apiError) error {
	if err != nil {
		c.logger.Warn("request failed", zap.String("op", op), zap.Error(err))
		return &TransportError{Op: op, Err: err}
	}

	if resp.IsError() {
		message := apiErr.text()
		if message == "" {
			// Plain-text bodies from http.Error style handlers.
			message = strings.TrimSpace(resp.String())
		}

		serverErr := &ServerError{Op: op, Status: resp.StatusCode(), Message: message}
		if serverErr.AuthExpired() && c.sessions != nil {
			c.logger.Warn("session rejected by server, clearing credential", zap.String("op", op))
			c.sessions.Invalidate()
		}
		return serverErr
	}

	return nil
}
