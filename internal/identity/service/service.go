// Package service implements account signup, login, profile, and role
// management on top of the identity stores.
package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"taskboard/internal/identity"
	"taskboard/internal/identity/store"
	"taskboard/internal/identity/token"
	"taskboard/internal/platform/metrics"
	"taskboard/internal/platform/middleware"
	dErrors "taskboard/pkg/domain-errors"
	"taskboard/pkg/platform/sentinel"
)

// Service orchestrates user accounts and roles.
type Service struct {
	users      store.UserStore
	roles      store.RoleStore
	tokens     *token.Service
	metrics    *metrics.Metrics
	bcryptCost int
}

func New(users store.UserStore, roles store.RoleStore, tokens *token.Service, m *metrics.Metrics, bcryptCost int) *Service {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		users:      users,
		roles:      roles,
		tokens:     tokens,
		metrics:    m,
		bcryptCost: bcryptCost,
	}
}

// Signup registers a new account, assigns the default role, and issues an
// access token.
func (s *Service) Signup(ctx context.Context, req identity.SignupRequest) (identity.AuthResponse, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	if req.Username == "" {
		return identity.AuthResponse{}, dErrors.New(dErrors.CodeBadRequest, "username is required")
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return identity.AuthResponse{}, dErrors.New(dErrors.CodeBadRequest, "valid email is required")
	}
	if len(req.Password) < 8 {
		return identity.AuthResponse{}, dErrors.New(dErrors.CodeBadRequest, "password must be at least 8 characters")
	}

	if _, err := s.users.FindByEmail(ctx, req.Email); err == nil {
		return identity.AuthResponse{}, dErrors.New(dErrors.CodeConflict, "email already registered")
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		return identity.AuthResponse{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check email")
	}
	if _, err := s.users.FindByUsername(ctx, req.Username); err == nil {
		return identity.AuthResponse{}, dErrors.New(dErrors.CodeConflict, "username already taken")
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		return identity.AuthResponse{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check username")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return identity.AuthResponse{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash password")
	}

	now := middleware.Now(ctx)
	user := identity.User{
		Username:  req.Username,
		Email:     req.Email,
		Password:  string(hash),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.users.Create(ctx, &user); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return identity.AuthResponse{}, dErrors.New(dErrors.CodeConflict, "email or username already taken")
		}
		return identity.AuthResponse{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create user")
	}

	// Missing default role is tolerated: the user simply has no assignment
	// and reads back as a plain user.
	if role, err := s.roles.FindByName(ctx, identity.RoleUser); err == nil {
		if err := s.roles.Assign(ctx, user.ID, role.ID); err != nil {
			return identity.AuthResponse{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to assign default role")
		}
	}

	accessToken, err := s.tokens.GenerateAccessToken(user.ID)
	if err != nil {
		return identity.AuthResponse{}, err
	}
	return identity.AuthResponse{
		AccessToken: accessToken,
		User:        identity.ProfileOf(user),
		Role:        identity.RoleUser,
	}, nil
}

// Login authenticates by email and password.
func (s *Service) Login(ctx context.Context, req identity.LoginRequest) (identity.AuthResponse, error) {
	user, err := s.users.FindByEmail(ctx, strings.TrimSpace(req.Email))
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			s.metrics.IncrementAuthFailures()
			return identity.AuthResponse{}, dErrors.New(dErrors.CodeUnauthorized, "invalid email or password")
		}
		return identity.AuthResponse{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up user")
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)) != nil {
		s.metrics.IncrementAuthFailures()
		return identity.AuthResponse{}, dErrors.New(dErrors.CodeUnauthorized, "invalid email or password")
	}

	return s.authResponse(ctx, user)
}

// Me returns the authenticated user's profile, role, and a fresh token.
func (s *Service) Me(ctx context.Context, userID int64) (identity.AuthResponse, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return identity.AuthResponse{}, dErrors.New(dErrors.CodeUnauthorized, "account no longer exists")
		}
		return identity.AuthResponse{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
	}
	return s.authResponse(ctx, user)
}

// Logout revokes the presented token.
func (s *Service) Logout(ctx context.Context, tokenID string) error {
	return s.tokens.Revoke(ctx, tokenID)
}

func (s *Service) authResponse(ctx context.Context, user identity.User) (identity.AuthResponse, error) {
	role, err := s.roles.RoleOf(ctx, user.ID)
	if err != nil {
		return identity.AuthResponse{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up role")
	}
	accessToken, err := s.tokens.GenerateAccessToken(user.ID)
	if err != nil {
		return identity.AuthResponse{}, err
	}
	return identity.AuthResponse{
		AccessToken: accessToken,
		User:        identity.ProfileOf(user),
		Role:        role,
	}, nil
}

// IsAdmin reports whether the user holds the admin role.
func (s *Service) IsAdmin(ctx context.Context, userID int64) (bool, error) {
	role, err := s.roles.RoleOf(ctx, userID)
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up role")
	}
	return role == identity.RoleAdmin, nil
}

// RequireAdmin returns a forbidden error unless the user holds the admin
// role.
func (s *Service) RequireAdmin(ctx context.Context, userID int64) error {
	isAdmin, err := s.IsAdmin(ctx, userID)
	if err != nil {
		return err
	}
	if !isAdmin {
		return dErrors.New(dErrors.CodeForbidden, "admin access required")
	}
	return nil
}

// ListProfiles returns profile summaries for all users, ordered by username.
func (s *Service) ListProfiles(ctx context.Context) ([]identity.Profile, error) {
	profiles, err := s.users.ListProfiles(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list profiles")
	}
	return profiles, nil
}

// GetProfile returns one user's profile summary.
func (s *Service) GetProfile(ctx context.Context, userID int64) (identity.Profile, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return identity.Profile{}, dErrors.New(dErrors.CodeNotFound, "profile not found")
		}
		return identity.Profile{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load profile")
	}
	return identity.ProfileOf(user), nil
}

// UpdateUsername lets a user rename themselves. Only the account owner may
// update their own profile.
func (s *Service) UpdateUsername(ctx context.Context, actorID, userID int64, username string) (identity.Profile, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return identity.Profile{}, dErrors.New(dErrors.CodeBadRequest, "username is required")
	}
	if actorID != userID {
		return identity.Profile{}, dErrors.New(dErrors.CodeForbidden, "not authorized to update this profile")
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return identity.Profile{}, dErrors.New(dErrors.CodeNotFound, "profile not found")
		}
		return identity.Profile{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
	}

	user.Username = username
	user.UpdatedAt = middleware.Now(ctx)
	if err := s.users.Update(ctx, user); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return identity.Profile{}, dErrors.New(dErrors.CodeConflict, "username already taken")
		}
		return identity.Profile{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update user")
	}
	return identity.ProfileOf(user), nil
}

// ListUsersWithRoles returns every user together with their role name.
// Admin only.
func (s *Service) ListUsersWithRoles(ctx context.Context, actorID int64) ([]identity.UserWithRole, error) {
	if err := s.RequireAdmin(ctx, actorID); err != nil {
		return nil, err
	}
	profiles, err := s.users.ListProfiles(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list users")
	}

	out := make([]identity.UserWithRole, 0, len(profiles))
	for _, profile := range profiles {
		role, err := s.roles.RoleOf(ctx, profile.UserID)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up role")
		}
		out = append(out, identity.UserWithRole{Profile: profile, Role: role})
	}
	return out, nil
}

// AssignRole sets a user's role by name. Admin only.
func (s *Service) AssignRole(ctx context.Context, actorID, userID int64, roleName string) error {
	if err := s.RequireAdmin(ctx, actorID); err != nil {
		return err
	}
	if _, err := s.users.FindByID(ctx, userID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "user not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
	}
	role, err := s.roles.FindByName(ctx, roleName)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeBadRequest, "unknown role")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load role")
	}
	if err := s.roles.Assign(ctx, userID, role.ID); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to assign role")
	}
	return nil
}
