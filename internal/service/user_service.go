package service

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"pdl-records/internal/event"
	"pdl-records/internal/model"
)

type userStore interface {
	Exists(ctx context.Context, username string, fullName string) (bool, error)
	Create(ctx context.Context, u model.User) (int64, error)
	List(ctx context.Context) ([]model.UserSummary, error)
	UpdateStatus(ctx context.Context, id int64, status string) error
	UpdateRole(ctx context.Context, id int64, roleID int64) error
	FindByID(ctx context.Context, id int64) (model.User, error)
}

// UserService manages system accounts. Accounts are never deleted;
// deactivation is a status flip so historical audit entries keep a valid
// actor reference.
type UserService struct {
	repo     userStore
	bus      event.Bus
	validate *validator.Validate
}

func NewUserService(repo userStore, bus event.Bus) *UserService {
	return &UserService{
		repo:     repo,
		bus:      bus,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (s *UserService) Create(ctx context.Context, req model.CreateUserRequest, actor model.Actor) (model.UserSummary, error) {
	if err := s.validate.Struct(req); err != nil {
		return model.UserSummary{}, fmt.Errorf("%w: %s", model.ErrValidation, validationDetails(err))
	}

	if err := CheckPasswordPolicy(req.Password); err != nil {
		return model.UserSummary{}, err
	}

	exists, err := s.repo.Exists(ctx, req.Username, req.FullName)
	if err != nil {
		return model.UserSummary{}, err
	}
	if exists {
		return model.UserSummary{}, model.ErrUserExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), 10)
	if err != nil {
		return model.UserSummary{}, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	id, err := s.repo.Create(ctx, model.User{
		Username:     strings.TrimSpace(req.Username),
		PasswordHash: string(hash),
		FullName:     strings.TrimSpace(req.FullName),
		RoleID:       req.RoleID,
		Status:       model.StatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return model.UserSummary{}, err
	}

	s.publish(event.TypeUserCreated, actor, model.ActionCreateUser, id,
		fmt.Sprintf("Created system user: %s (%s)", req.Username, req.FullName))

	return model.UserSummary{
		ID:       id,
		Username: strings.TrimSpace(req.Username),
		FullName: strings.TrimSpace(req.FullName),
		Status:   model.StatusActive,
	}, nil
}

func (s *UserService) List(ctx context.Context) ([]model.UserSummary, error) {
	return s.repo.List(ctx)
}

func (s *UserService) SetStatus(ctx context.Context, id int64, status string, actor model.Actor) error {
	if status != model.StatusActive && status != model.StatusInactive {
		return fmt.Errorf("%w: status must be Active or Inactive", model.ErrValidation)
	}

	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		return err
	}

	s.publish(event.TypeUserStatusChanged, actor, model.ActionUpdateUserStatus, id,
		fmt.Sprintf("Set user #%d status to %s", id, status))
	return nil
}

func (s *UserService) ChangeRole(ctx context.Context, id int64, roleID int64, actor model.Actor) error {
	if roleID <= 0 {
		return fmt.Errorf("%w: role_id is required", model.ErrValidation)
	}

	if err := s.repo.UpdateRole(ctx, id, roleID); err != nil {
		return err
	}

	s.publish(event.TypeUserRoleChanged, actor, model.ActionUpdateUserRole, id,
		fmt.Sprintf("Changed user #%d role to %d", id, roleID))
	return nil
}

func (s *UserService) publish(eventType event.Type, actor model.Actor, action string, recordID int64, details string) {
	if s.bus == nil {
		return
	}

	s.bus.Publish(event.AuditEvent{
		ID:        uuid.NewString(),
		Type:      eventType,
		Actor:     actor,
		Action:    action,
		TableName: "users",
		RecordID:  recordID,
		Details:   details,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
	})
}

// CheckPasswordPolicy enforces the account password rules: at least 8
// characters with an upper-case letter, a lower-case letter, a digit and
// a symbol.
func CheckPasswordPolicy(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("%w: must be at least 8 characters", model.ErrWeakPassword)
	}

	var upper, lower, digit, symbol bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			symbol = true
		}
	}

	if !upper || !lower || !digit || !symbol {
		return fmt.Errorf("%w: must mix upper and lower case letters, digits and symbols", model.ErrWeakPassword)
	}

	return nil
}
