package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/frahmantamala/appraisal-portal/internal/apiclient"
	"github.com/frahmantamala/appraisal-portal/internal/session"
)

const loginPath = "/auth/login"

// Backend is the part of the API client the login needs.
type Backend interface {
	Post(ctx context.Context, token, path string, body, out interface{}) error
}

// Service signs browsers in against the backend and keeps the result in
// their session store. The portal never checks passwords itself.
type Service struct {
	backend Backend
	logger  *slog.Logger
}

func NewService(backend Backend, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{backend: backend, logger: logger}
}

// Login forwards the credentials and, when the backend issues a token,
// stores it with the user's profile.
func (s *Service) Login(ctx context.Context, store *session.Store, dto LoginDTO) (session.User, error) {
	if err := dto.Validate(); err != nil {
		return session.User{}, err
	}

	var resp LoginResponse
	if err := s.backend.Post(ctx, "", loginPath, dto, &resp); err != nil {
		var apiErr *apiclient.APIError
		if errors.As(err, &apiErr) && rejectedCredentials(apiErr.StatusCode) {
			s.logger.WarnContext(ctx, "login rejected", "username", dto.Username, "status", apiErr.StatusCode)
			return session.User{}, newInvalidLoginError(apiErr.Message, err)
		}
		s.logger.ErrorContext(ctx, "login request failed", "username", dto.Username, "error", err)
		return session.User{}, err
	}

	if strings.TrimSpace(resp.Token) == "" {
		s.logger.WarnContext(ctx, "login answered without token", "username", dto.Username)
		return session.User{}, newInvalidLoginError(resp.Message, nil)
	}

	user := resp.User(dto.Username)
	if err := store.Login(ctx, resp.Token, user); err != nil {
		return session.User{}, err
	}
	return user, nil
}

// Logout clears the store. The backend keeps no server side session.
func (s *Service) Logout(ctx context.Context, store *session.Store) error {
	return store.Logout(ctx)
}

func rejectedCredentials(status int) bool {
	return status == http.StatusUnauthorized || status == http.StatusForbidden || status == http.StatusBadRequest
}
