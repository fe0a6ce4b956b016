package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/Dosada05/chess-tournament/models"
	"github.com/Dosada05/chess-tournament/repositories"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 8

// UserService управляет операторами API (администраторы и арбитры).
type UserService interface {
	CreateUser(ctx context.Context, input CreateUserInput) (*models.User, error)
	GetUser(ctx context.Context, id int64) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	UpdateUser(ctx context.Context, id int64, input UpdateUserInput) (*models.User, error)
	// DeleteUser refuses to delete the caller's own account and the last admin.
	DeleteUser(ctx context.Context, actorID, id int64) error
	// EnsureAdmin creates an admin with the given credentials unless a user with
	// that email already exists.
	EnsureAdmin(ctx context.Context, email, password string) (*models.User, bool, error)
}

type CreateUserInput struct {
	Email       string          `json:"email"`
	DisplayName string          `json:"display_name"`
	Role        models.UserRole `json:"role"`
	Password    string          `json:"password"`
}

type UpdateUserInput struct {
	DisplayName *string          `json:"display_name,omitempty"`
	Role        *models.UserRole `json:"role,omitempty"`
	Password    *string          `json:"password,omitempty"`
}

type userService struct {
	userRepo repositories.UserRepository
	tx       repositories.Transactor
	now      Clock
}

func NewUserService(userRepo repositories.UserRepository, tx repositories.Transactor, clock Clock) UserService {
	return &userService{userRepo: userRepo, tx: tx, now: clock.orSystem()}
}

func hashPassword(password string) (string, error) {
	if len(password) < minPasswordLength {
		return "", ErrPasswordTooShort
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

func normalizeEmail(email string) (string, error) {
	v, err := requireText("email", email, 100)
	if err != nil {
		return "", err
	}
	if _, err := mail.ParseAddress(v); err != nil {
		return "", models.NewConstraintError(models.RuleEnum, "email", "is not a valid address")
	}
	return strings.ToLower(v), nil
}

func (s *userService) CreateUser(ctx context.Context, input CreateUserInput) (*models.User, error) {
	email, err := normalizeEmail(input.Email)
	if err != nil {
		return nil, err
	}
	name, err := requireText("display_name", input.DisplayName, 100)
	if err != nil {
		return nil, err
	}
	if !input.Role.Valid() {
		return nil, enumError("role", input.Role)
	}
	hash, err := hashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Email:        email,
		DisplayName:  name,
		Role:         input.Role,
		PasswordHash: hash,
	}
	user.MarkCreated(s.now())
	if err := s.userRepo.Create(ctx, nil, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *userService) GetUser(ctx context.Context, id int64) (*models.User, error) {
	return s.userRepo.GetByID(ctx, nil, id)
}

func (s *userService) ListUsers(ctx context.Context) ([]models.User, error) {
	return s.userRepo.List(ctx, nil)
}

func (s *userService) UpdateUser(ctx context.Context, id int64, input UpdateUserInput) (*models.User, error) {
	var user *models.User
	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		var err error
		user, err = s.userRepo.GetByID(ctx, exec, id)
		if err != nil {
			return err
		}
		if input.DisplayName != nil {
			if user.DisplayName, err = requireText("display_name", *input.DisplayName, 100); err != nil {
				return err
			}
		}
		if input.Role != nil {
			if !input.Role.Valid() {
				return enumError("role", *input.Role)
			}
			if user.Role == models.RoleAdmin && *input.Role != models.RoleAdmin {
				if err := s.ensureOtherAdmin(ctx, exec); err != nil {
					return err
				}
			}
			user.Role = *input.Role
		}
		if input.Password != nil {
			if user.PasswordHash, err = hashPassword(*input.Password); err != nil {
				return err
			}
		}
		user.MarkUpdated(s.now())
		return s.userRepo.Update(ctx, exec, user)
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (s *userService) ensureOtherAdmin(ctx context.Context, exec repositories.SQLExecutor) error {
	admins, err := s.userRepo.CountByRole(ctx, exec, models.RoleAdmin)
	if err != nil {
		return fmt.Errorf("failed to count admins: %w", err)
	}
	if admins <= 1 {
		return ErrLastAdmin
	}
	return nil
}

func (s *userService) DeleteUser(ctx context.Context, actorID, id int64) error {
	if actorID == id {
		return ErrForbiddenOperation
	}
	return s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		user, err := s.userRepo.GetByID(ctx, exec, id)
		if err != nil {
			return err
		}
		if user.Role == models.RoleAdmin {
			if err := s.ensureOtherAdmin(ctx, exec); err != nil {
				return err
			}
		}
		return s.userRepo.Delete(ctx, exec, id)
	})
}

func (s *userService) EnsureAdmin(ctx context.Context, email, password string) (*models.User, bool, error) {
	normalized, err := normalizeEmail(email)
	if err != nil {
		return nil, false, err
	}
	existing, err := s.userRepo.GetByEmail(ctx, nil, normalized)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, repositories.ErrUserNotFound) {
		return nil, false, err
	}
	user, err := s.CreateUser(ctx, CreateUserInput{
		Email:       normalized,
		DisplayName: "Administrator",
		Role:        models.RoleAdmin,
		Password:    password,
	})
	if errors.Is(err, repositories.ErrUserEmailConflict) {
		// Another instance bootstrapped the same account concurrently.
		existing, err = s.userRepo.GetByEmail(ctx, nil, normalized)
		return existing, false, err
	}
	if err != nil {
		return nil, false, err
	}
	return user, true, nil
}
