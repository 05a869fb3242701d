package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	authrepo "github.com/sixtyoneeightyjake/mojocodefinal/internal/data/repos/auth"
	types "github.com/sixtyoneeightyjake/mojocodefinal/internal/domain"
	"github.com/sixtyoneeightyjake/mojocodefinal/internal/domain/auth"
	"github.com/sixtyoneeightyjake/mojocodefinal/internal/platform/dbctx"
	"github.com/sixtyoneeightyjake/mojocodefinal/internal/platform/logger"
	"github.com/sixtyoneeightyjake/mojocodefinal/internal/platform/tokencipher"
)

// GitHubTokenService seals the caller's GitHub token before it reaches the store.
type GitHubTokenService interface {
	// Get reports found=false only when no row exists. A row that fails to
	// decrypt is an error, never "no token".
	Get(ctx context.Context, userID string) (token, tokenType string, found bool, err error)
	Store(ctx context.Context, userID, token, tokenType string) error
	Delete(ctx context.Context, userID string) error
}

type gitHubTokenService struct {
	log    *logger.Logger
	repo   authrepo.ProviderTokenRepo
	secret string
}

func NewGitHubTokenService(log *logger.Logger, repo authrepo.ProviderTokenRepo, secret string) GitHubTokenService {
	return &gitHubTokenService{
		log:    log.With("service", "GitHubTokenService"),
		repo:   repo,
		secret: secret,
	}
}

func (s *gitHubTokenService) ready(userID string) error {
	if strings.TrimSpace(s.secret) == "" {
		return types.ErrNotConfigured
	}
	return requireOwner(userID)
}

func (s *gitHubTokenService) Get(ctx context.Context, userID string) (string, string, bool, error) {
	if err := s.ready(userID); err != nil {
		return "", "", false, err
	}
	row, err := s.repo.Get(dbctx.From(ctx), userID, auth.ProviderGitHub)
	if err != nil {
		return "", "", false, err
	}
	if row == nil {
		return "", "", false, nil
	}
	plain, err := tokencipher.Decrypt(s.secret, tokencipher.Payload{
		CipherText: row.TokenCipher,
		Nonce:      row.TokenIV,
		AuthTag:    row.TokenTag,
	})
	if err != nil {
		s.log.Error("stored github token failed to decrypt", "user_id", userID, "error", err)
		return "", "", false, err
	}
	return plain, row.Type(), true, nil
}

func normalizeTokenType(v string) (string, error) {
	switch strings.TrimSpace(v) {
	case "", auth.TokenTypeClassic:
		return auth.TokenTypeClassic, nil
	case auth.TokenTypeFineGrained:
		return auth.TokenTypeFineGrained, nil
	default:
		return "", fmt.Errorf("%w: unsupported tokenType %q", types.ErrInvalidArgument, v)
	}
}

func (s *gitHubTokenService) Store(ctx context.Context, userID, token, tokenType string) error {
	if err := s.ready(userID); err != nil {
		return err
	}
	if token == "" {
		return fmt.Errorf("%w: token is required", types.ErrInvalidArgument)
	}
	tt, err := normalizeTokenType(tokenType)
	if err != nil {
		return err
	}
	sealed, err := tokencipher.Encrypt(s.secret, token)
	if err != nil {
		return fmt.Errorf("encrypt token: %w", err)
	}
	return s.repo.Upsert(dbctx.From(ctx), &types.ProviderToken{
		UserID:      userID,
		Provider:    auth.ProviderGitHub,
		TokenCipher: sealed.CipherText,
		TokenIV:     sealed.Nonce,
		TokenTag:    sealed.AuthTag,
		TokenType:   &tt,
		UpdatedAt:   time.Now().UTC(),
	})
}

func (s *gitHubTokenService) Delete(ctx context.Context, userID string) error {
	if err := s.ready(userID); err != nil {
		return err
	}
	return s.repo.Delete(dbctx.From(ctx), userID, auth.ProviderGitHub)
}
