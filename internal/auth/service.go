package auth

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/frahmantamala/access-control/internal"
	"github.com/frahmantamala/access-control/internal/core/common/validation"
	"github.com/frahmantamala/access-control/internal/core/datamodel/access"
	"github.com/frahmantamala/access-control/internal/core/events"
)

type ServiceAPI interface {
	Login(ctx context.Context, dto LoginDTO, meta internal.ClientMetadata) (*LoginResponse, error)
	// Verify returns nil without error when the token does not resolve to a live session.
	Verify(ctx context.Context, token string) (*UserData, error)
	Me(ctx context.Context, data UserData) (*MeResponse, error)

	IssueToken(ctx context.Context, userID int64, meta internal.ClientMetadata) (*IssuedToken, error)
	RevokeToken(ctx context.Context, token string) error
	RevokeAllUserTokens(ctx context.Context, userID int64, reason string) (int64, error)
	CleanupExpiredTokens(ctx context.Context) (int64, error)
}

type Service struct {
	repo      RepositoryAPI
	hasher    PasswordHasher
	publisher events.Publisher
	logger    *slog.Logger
	ttl       time.Duration
	now       func() time.Time

	dummyOnce sync.Once
	dummyHash string
}

type Option func(*Service)

func WithTokenTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

func WithPublisher(p events.Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(repo RepositoryAPI, hasher PasswordHasher, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		repo:   repo,
		hasher: hasher,
		logger: logger,
		ttl:    DefaultTokenTTL,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Login(ctx context.Context, dto LoginDTO, meta internal.ClientMetadata) (*LoginResponse, error) {
	if verr := validation.Struct(dto); verr != nil {
		return nil, verr
	}

	user, err := s.repo.FindIdentity(ctx, strings.TrimSpace(dto.Identifier))
	if err != nil {
		return nil, fmt.Errorf("find identity: %w", err)
	}
	if user == nil {
		// keep the timing of unknown identities close to a wrong password
		s.hasher.Verify(dto.Password, s.placeholderHash())
		return nil, internal.ErrInvalidCredentials
	}
	if !s.hasher.Verify(dto.Password, user.Password) {
		s.logger.InfoContext(ctx, "login rejected", "user_id", user.ID)
		return nil, internal.ErrInvalidCredentials
	}

	grants, err := s.repo.LoadGrants(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("load grants: %w", err)
	}

	issued, err := s.IssueToken(ctx, user.ID, meta)
	if err != nil {
		return nil, err
	}

	roles, perms, companies := newGrantDTOs(grants)
	s.logger.InfoContext(ctx, "user logged in", "user_id", user.ID, "ip", meta.IPAddress)

	return &LoginResponse{
		User:        NewProfileDTO(user),
		Roles:       roles,
		Permissions: perms,
		Companies:   companies,
		Abilities:   grants.Abilities(),
		Token:       issued.Token,
		ExpiresAt:   issued.ExpiresAt,
	}, nil
}

func (s *Service) placeholderHash() string {
	s.dummyOnce.Do(func() {
		h, err := s.hasher.Hash("placeholder-password")
		if err != nil {
			s.logger.Warn("failed to prepare placeholder hash", "error", err)
		}
		s.dummyHash = h
	})
	return s.dummyHash
}

func (s *Service) Verify(ctx context.Context, token string) (*UserData, error) {
	if token == "" {
		return nil, nil
	}

	user, grants, err := s.repo.VerifyToken(ctx, token, s.now().UTC())
	if err != nil {
		return nil, fmt.Errorf("verify token: %w", err)
	}
	if user == nil {
		return nil, nil
	}

	return &UserData{
		UserID:    user.ID,
		UserName:  user.UserName,
		FullName:  user.FullName,
		Email:     user.Email,
		IsActive:  user.IsActive,
		Abilities: grants.Abilities(),
	}, nil
}

func (s *Service) Me(ctx context.Context, data UserData) (*MeResponse, error) {
	user, err := s.repo.FindActiveUser(ctx, data.UserID)
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	if user == nil {
		return nil, internal.ErrAuthenticationRequired
	}
	return &MeResponse{User: NewProfileDTO(user), Abilities: data.Abilities}, nil
}

func (s *Service) IssueToken(ctx context.Context, userID int64, meta internal.ClientMetadata) (*IssuedToken, error) {
	value, err := GenerateOpaqueToken()
	if err != nil {
		return nil, err
	}

	row := &access.AccessToken{
		UserID:    userID,
		Token:     value,
		ExpiresAt: s.now().UTC().Add(s.ttl),
		IPAddress: optional(meta.IPAddress),
		UserAgent: optional(meta.UserAgent),
	}
	if err := s.repo.CreateToken(ctx, row); err != nil {
		return nil, fmt.Errorf("store token: %w", err)
	}

	return &IssuedToken{Token: value, ExpiresAt: row.ExpiresAt}, nil
}

// RevokeToken deletes one session. Unknown tokens are not an error.
func (s *Service) RevokeToken(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.repo.DeleteToken(ctx, token); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

// RevokeAllUserTokens ends every session of userID and announces it on the bus.
func (s *Service) RevokeAllUserTokens(ctx context.Context, userID int64, reason string) (int64, error) {
	n, err := s.repo.DeleteUserTokens(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("revoke user tokens: %w", err)
	}

	if s.publisher != nil {
		if perr := s.publisher.Publish(ctx, events.NewSessionsRevokedEvent(userID, reason, n)); perr != nil {
			s.logger.WarnContext(ctx, "failed to publish sessions revoked event", "user_id", userID, "error", perr)
		}
	}
	return n, nil
}

func (s *Service) CleanupExpiredTokens(ctx context.Context) (int64, error) {
	n, err := s.repo.DeleteExpiredTokens(ctx, s.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("cleanup expired tokens: %w", err)
	}
	if n > 0 {
		s.logger.InfoContext(ctx, "expired tokens removed", "count", n)
	}
	return n, nil
}

func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
