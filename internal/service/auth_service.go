package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"pdl-records/internal/event"
	"pdl-records/internal/metrics"
	"pdl-records/internal/model"
)

type userFinder interface {
	FindActiveByUsername(ctx context.Context, username string) (model.User, error)
	FindByID(ctx context.Context, id int64) (model.User, error)
}

type permissionReader interface {
	GetPermissions(ctx context.Context, roleID int64) ([]model.PermissionGrant, error)
}

// AuthService verifies credentials and issues signed, time-limited access
// tokens. The signing key is injected once at construction; the auth
// middleware validates against the same instance.
type AuthService struct {
	jwtSecret   []byte
	tokenTTL    time.Duration
	users       userFinder
	permissions permissionReader
	bus         event.Bus
	metrics     *metrics.Metrics
}

func NewAuthService(jwtSecret string, tokenTTL time.Duration, users userFinder, permissions permissionReader, bus event.Bus, m *metrics.Metrics) (*AuthService, error) {
	if jwtSecret == "" {
		return nil, errors.New("jwt secret is required")
	}
	if tokenTTL <= 0 {
		return nil, errors.New("token ttl must be positive")
	}

	return &AuthService{
		jwtSecret:   []byte(jwtSecret),
		tokenTTL:    tokenTTL,
		users:       users,
		permissions: permissions,
		bus:         bus,
		metrics:     m,
	}, nil
}

// Login authenticates a staff member. Unknown usernames and inactive
// accounts return the same ErrInvalidCredentials as a wrong password.
// Exactly one audit event is published per attempt, success or failure.
func (s *AuthService) Login(ctx context.Context, username string, password string) (model.LoginResult, error) {
	user, err := s.users.FindActiveByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, model.ErrInvalidCredentials) {
			s.auditLoginFailed(model.Actor{IP: ipFromContext(ctx)}, "unknown or inactive account")
			return model.LoginResult{}, model.ErrInvalidCredentials
		}
		return model.LoginResult{}, err
	}

	actor := model.Actor{UserID: user.ID, Username: user.Username, Role: user.RoleName, IP: ipFromContext(ctx)}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.auditLoginFailed(actor, "invalid password attempt")
		return model.LoginResult{}, model.ErrInvalidCredentials
	}

	grants, err := s.permissions.GetPermissions(ctx, user.RoleID)
	if err != nil {
		return model.LoginResult{}, fmt.Errorf("fetch permissions: %w", err)
	}

	now := time.Now().UTC()
	expiresAt := now.Add(s.tokenTTL)

	token, err := s.signToken(jwt.MapClaims{
		"sub":  user.ID,
		"rid":  user.RoleID,
		"role": user.RoleName,
		"name": user.FullName,
		"jti":  uuid.NewString(),
		"iat":  now.Unix(),
		"exp":  expiresAt.Unix(),
	})
	if err != nil {
		return model.LoginResult{}, fmt.Errorf("sign token: %w", err)
	}

	s.publish(event.TypeLogin, actor, model.ActionLogin, "users", user.ID, "user logged in")
	if s.metrics != nil {
		s.metrics.LoginAttempts.WithLabelValues("success").Inc()
	}

	return model.LoginResult{
		Token:     token,
		ExpiresAt: expiresAt,
		User: model.AuthUser{
			ID:          user.ID,
			Username:    user.Username,
			FullName:    user.FullName,
			Role:        user.RoleName,
			Permissions: grants,
		},
	}, nil
}

// ValidateToken checks signature and expiry only; it never touches the
// database. Route-level permission checks are a separate concern. Tokens
// without an exp claim are rejected outright.
func (s *AuthService) ValidateToken(tokenString string) (*model.Claims, error) {
	parsed, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, model.ErrInvalidToken
		}
		return s.jwtSecret, nil
	}, jwt.WithExpirationRequired())
	if err != nil || !parsed.Valid {
		return nil, model.ErrInvalidToken
	}

	claimsMap, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, model.ErrInvalidToken
	}

	claims := &model.Claims{
		UserID: int64FromClaim(claimsMap["sub"]),
		RoleID: int64FromClaim(claimsMap["rid"]),
	}
	claims.Role, _ = claimsMap["role"].(string)
	claims.FullName, _ = claimsMap["name"].(string)

	if claims.UserID == 0 {
		return nil, model.ErrInvalidToken
	}

	return claims, nil
}

func (s *AuthService) GetUser(ctx context.Context, userID int64) (model.AuthUser, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return model.AuthUser{}, err
	}

	grants, err := s.permissions.GetPermissions(ctx, user.RoleID)
	if err != nil {
		return model.AuthUser{}, fmt.Errorf("fetch permissions: %w", err)
	}

	return model.AuthUser{
		ID:          user.ID,
		Username:    user.Username,
		FullName:    user.FullName,
		Role:        user.RoleName,
		Permissions: grants,
	}, nil
}

func (s *AuthService) signToken(claims jwt.MapClaims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

func (s *AuthService) auditLoginFailed(actor model.Actor, details string) {
	s.publish(event.TypeLoginFailed, actor, model.ActionLoginFailed, "users", actor.UserID, details)
	if s.metrics != nil {
		s.metrics.LoginAttempts.WithLabelValues("failure").Inc()
	}
}

func (s *AuthService) publish(eventType event.Type, actor model.Actor, action string, table string, recordID int64, details string) {
	if s.bus == nil {
		return
	}

	s.bus.Publish(event.AuditEvent{
		ID:        uuid.NewString(),
		Type:      eventType,
		Actor:     actor,
		Action:    action,
		TableName: table,
		RecordID:  recordID,
		Details:   details,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
	})
}

// int64FromClaim tolerates the numeric types JWT decoding can produce.
func int64FromClaim(v any) int64 {
	switch n := v.(type) {
	case float64:
		return int64(n)
	case int64:
		return n
	case int:
		return int64(n)
	}
	return 0
}
