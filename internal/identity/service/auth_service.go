package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"device-maintenance/backend/internal/audit"
	identitydomain "device-maintenance/backend/internal/identity/domain"
	"device-maintenance/backend/internal/platform/apperr"
	"device-maintenance/backend/internal/platform/rbac"
	"device-maintenance/backend/internal/security"
	userdomain "device-maintenance/backend/internal/user/domain"
)

// ErrInvalidCredentials is returned for an unknown user or a wrong password. It matches
// apperr.ErrUnauthorized and does not reveal which of the two failed.
var ErrInvalidCredentials = fmt.Errorf("%w: invalid username or password", apperr.ErrUnauthorized)

const (
	actionLoginSuccess = "login_success"
	actionLoginFailure = "login_failure"
	resourceAuth       = "auth"

	defaultAdminDisplayName = "Administrador"
)

// LoginResult holds the issued access token and the caller profile.
type LoginResult struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
	User        *Profile  `json:"user"`
}

// Profile is the authenticated caller with resolved capabilities.
type Profile struct {
	Username     string            `json:"username"`
	DisplayName  string            `json:"display_name"`
	Role         userdomain.Role   `json:"role"`
	Capabilities rbac.Capabilities `json:"capabilities"`
}

// ProfileOf builds the Profile of id.
func ProfileOf(id *identitydomain.Identity) *Profile {
	if id == nil {
		return nil
	}
	return &Profile{
		Username:     id.Username,
		DisplayName:  id.Name(),
		Role:         id.Role,
		Capabilities: rbac.CapabilitiesOf(id),
	}
}

// UserRepo is the minimal user repository needed by the auth service.
type UserRepo interface {
	GetByUsername(ctx context.Context, username string) (*userdomain.User, error)
	Create(ctx context.Context, u *userdomain.User) error
	Update(ctx context.Context, u *userdomain.User) error
}

// AuthService implements password login, bearer token resolution and the built-in admin account.
type AuthService struct {
	users  UserRepo
	hasher *security.Hasher
	tokens *security.TokenProvider
	audit  audit.AuditLogger
}

// NewAuthService returns an AuthService with the given dependencies. auditLogger may be nil.
func NewAuthService(users UserRepo, hasher *security.Hasher, tokens *security.TokenProvider, auditLogger audit.AuditLogger) *AuthService {
	return &AuthService{
		users:  users,
		hasher: hasher,
		tokens: tokens,
		audit:  auditLogger,
	}
}

// Login verifies username and password and issues an access token.
func (s *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrInvalidCredentials
	}
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, apperr.Unavailable(err)
	}
	if user == nil || !s.hasher.Verify(user.PasswordHash, password) {
		s.logAudit(ctx, username, actionLoginFailure)
		return nil, ErrInvalidCredentials
	}
	if s.hasher.NeedsRehash(user.PasswordHash) {
		s.rehash(ctx, user, password)
	}
	token, _, expiresAt, err := s.tokens.IssueAccess(user.Username, string(user.Role), user.Name())
	if err != nil {
		return nil, err
	}
	s.logAudit(ctx, user.Username, actionLoginSuccess)
	return &LoginResult{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresAt:   expiresAt,
		User:        ProfileOf(identitydomain.FromUser(user)),
	}, nil
}

// rehash upgrades a hash made with another bcrypt cost. Failures only cost a slower next login.
func (s *AuthService) rehash(ctx context.Context, user *userdomain.User, password string) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return
	}
	u := *user
	u.PasswordHash = hash
	u.UpdatedAt = time.Now().UTC()
	if err := s.users.Update(ctx, &u); err != nil {
		log.Warn().Err(err).Str("component", "auth").Str("username", user.Username).Msg("password rehash failed")
	}
}

// ResolveToken validates a bearer token and loads the current role and overrides of its subject.
// Stored state wins over token claims so permission changes apply without a new login.
func (s *AuthService) ResolveToken(ctx context.Context, token string) (*identitydomain.Identity, error) {
	claims, err := s.tokens.ValidateAccess(token)
	if err != nil {
		return nil, apperr.ErrUnauthorized
	}
	user, err := s.users.GetByUsername(ctx, claims.Username())
	if err != nil {
		return nil, apperr.Unavailable(err)
	}
	if user == nil {
		return nil, apperr.ErrUnauthorized
	}
	return identitydomain.FromUser(user), nil
}

// Me returns the profile of the caller in ctx.
func (s *AuthService) Me(ctx context.Context) (*Profile, error) {
	id, err := rbac.RequireIdentity(ctx)
	if err != nil {
		return nil, err
	}
	return ProfileOf(id), nil
}

// EnsureDefaultAdmin creates the built-in admin account when it does not exist.
// Reports whether a user was created.
func (s *AuthService) EnsureDefaultAdmin(ctx context.Context, password string) (bool, error) {
	existing, err := s.users.GetByUsername(ctx, userdomain.AdminUsername)
	if err != nil {
		return false, apperr.Unavailable(err)
	}
	if existing != nil {
		return false, nil
	}
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return false, fmt.Errorf("hash default admin password: %w", err)
	}
	now := time.Now().UTC()
	u := &userdomain.User{
		ID:           uuid.New().String(),
		Username:     userdomain.AdminUsername,
		DisplayName:  defaultAdminDisplayName,
		PasswordHash: hash,
		Role:         userdomain.RoleAdmin,
		Overrides:    rbac.ResetOverrides(userdomain.RoleAdmin),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return false, apperr.Unavailable(err)
	}
	log.Info().Str("component", "auth").Msg("created default admin user")
	return true, nil
}

// DevIdentity is the caller used for every request when authentication is disabled.
func DevIdentity() *identitydomain.Identity {
	return &identitydomain.Identity{
		Username:    userdomain.AdminUsername,
		DisplayName: defaultAdminDisplayName,
		Role:        userdomain.RoleAdmin,
	}
}

func (s *AuthService) logAudit(ctx context.Context, username, action string) {
	if s.audit == nil {
		return
	}
	s.audit.LogEvent(ctx, username, action, resourceAuth, "")
}
