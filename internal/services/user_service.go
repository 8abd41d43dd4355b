package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"signupvault/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	adminCreateCost  = 12
	passwordCost     = 10
	resetTokenBytes  = 32
	resetTokenExpiry = time.Hour
)

type CreateUserInput struct {
	Email    string
	Password string
	Role     model.Role
}

type RegistrationSettings interface {
	Get(ctx context.Context) (model.Settings, error)
}

type UserService struct {
	database *gorm.DB
	settings RegistrationSettings
	mailer   Mailer
	now      func() time.Time
}

func NewUserService(database *gorm.DB, settings RegistrationSettings, mailer Mailer) *UserService {
	return &UserService{
		database: database,
		settings: settings,
		mailer:   mailer,
		now:      time.Now,
	}
}

// NormalizeEmail trims and lowercases an account email. Submitted emails on the
// collection endpoint are not passed through this.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (us *UserService) findByEmail(ctx context.Context, email string) (*model.User, error) {
	user, err := gorm.G[model.User](us.database).Where("email = ?", email).First(ctx)

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}

	return &user, nil
}

func (us *UserService) Get(ctx context.Context, id string) (*model.User, error) {
	user, err := gorm.G[model.User](us.database).Where("id = ?", id).First(ctx)

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}

	return &user, nil
}

func (us *UserService) create(ctx context.Context, input CreateUserInput, cost int) (*model.User, error) {
	email := NormalizeEmail(input.Email)

	_, err := us.findByEmail(ctx, email)

	if err == nil {
		return nil, ErrAlreadyExists
	}

	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), cost)

	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	t := us.now()

	user := &model.User{
		ID:        uuid.NewString(),
		Email:     email,
		Password:  string(hash),
		Role:      input.Role,
		IsActive:  true,
		CreatedAt: t,
		UpdatedAt: t,
	}

	err = gorm.G[model.User](us.database).Create(ctx, user)

	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// Create is the admin path for adding an account.
func (us *UserService) Create(ctx context.Context, input CreateUserInput) (*model.User, error) {
	return us.create(ctx, input, adminCreateCost)
}

// Register creates a regular account when self registration is enabled.
func (us *UserService) Register(ctx context.Context, email string, password string) (*model.User, error) {
	settings, err := us.settings.Get(ctx)

	if err != nil {
		return nil, err
	}

	if !settings.AllowUserRegistration {
		return nil, ErrRegistrationDisabled
	}

	return us.create(ctx, CreateUserInput{Email: email, Password: password, Role: model.RoleUser}, passwordCost)
}

// SeedAdmin creates the administrator account unless a user with that email exists.
func (us *UserService) SeedAdmin(ctx context.Context, email string, password string) (bool, error) {
	_, err := us.Create(ctx, CreateUserInput{Email: email, Password: password, Role: model.RoleAdmin})

	if errors.Is(err, ErrAlreadyExists) {
		return false, nil
	}

	if err != nil {
		return false, err
	}

	return true, nil
}

func (us *UserService) Authenticate(ctx context.Context, email string, password string) (*model.User, error) {
	user, err := us.findByEmail(ctx, NormalizeEmail(email))

	if errors.Is(err, ErrNotFound) {
		return nil, ErrInvalidCredentials
	}

	if err != nil {
		return nil, err
	}

	if !user.IsActive {
		return nil, ErrInvalidCredentials
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

func (us *UserService) List(ctx context.Context) ([]model.UserWithCount, error) {
	users, err := gorm.G[model.User](us.database).Order("created_at desc").Find(ctx)

	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	var rows []struct {
		UserID string
		Count  int64
	}

	err = us.database.WithContext(ctx).
		Model(&model.Project{}).
		Select("user_id, COUNT(*) AS count").
		Group("user_id").
		Scan(&rows).Error

	if err != nil {
		return nil, fmt.Errorf("failed to count projects: %w", err)
	}

	counts := make(map[string]int64, len(rows))

	for _, row := range rows {
		counts[row.UserID] = row.Count
	}

	result := make([]model.UserWithCount, 0, len(users))

	for _, user := range users {
		result = append(result, model.UserWithCount{User: user, ProjectCount: counts[user.ID]})
	}

	return result, nil
}

func (us *UserService) SetActive(ctx context.Context, id string, active bool) (*model.User, error) {
	result := us.database.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Updates(map[string]any{
		"is_active":  active,
		"updated_at": us.now(),
	})

	if result.Error != nil {
		return nil, fmt.Errorf("failed to update user: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return nil, ErrNotFound
	}

	return us.Get(ctx, id)
}

func (us *UserService) setPassword(ctx context.Context, id string, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), passwordCost)

	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	err = us.database.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Updates(map[string]any{
		"password":           string(hash),
		"reset_token":        nil,
		"reset_token_expiry": nil,
		"updated_at":         us.now(),
	}).Error

	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	return nil
}

func (us *UserService) ChangePassword(ctx context.Context, id string, current string, next string) error {
	user, err := us.Get(ctx, id)

	if err != nil {
		return err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(current)) != nil {
		return ErrIncorrectPassword
	}

	return us.setPassword(ctx, user.ID, next)
}

// RequestReset stores a fresh reset token for the account and mails it. Unknown
// emails succeed silently so callers cannot probe for accounts.
func (us *UserService) RequestReset(ctx context.Context, email string) error {
	user, err := us.findByEmail(ctx, NormalizeEmail(email))

	if errors.Is(err, ErrNotFound) {
		return nil
	}

	if err != nil {
		return err
	}

	buf := make([]byte, resetTokenBytes)

	if _, err := rand.Read(buf); err != nil {
		return fmt.Errorf("failed to generate reset token: %w", err)
	}

	token := hex.EncodeToString(buf)

	err = us.database.WithContext(ctx).Model(&model.User{}).Where("id = ?", user.ID).Updates(map[string]any{
		"reset_token":        token,
		"reset_token_expiry": us.now().Add(resetTokenExpiry),
	}).Error

	if err != nil {
		return fmt.Errorf("failed to store reset token: %w", err)
	}

	if err := us.mailer.SendResetEmail(user.Email, token); err != nil {
		log.Error().Err(err).Str("user_id", user.ID).Msg("failed to send reset email")
	}

	return nil
}

func (us *UserService) ConfirmReset(ctx context.Context, token string, password string) error {
	if token == "" {
		return ErrInvalidResetToken
	}

	user, err := gorm.G[model.User](us.database).
		Where("reset_token = ? AND reset_token_expiry >= ?", token, us.now()).
		First(ctx)

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrInvalidResetToken
	}

	if err != nil {
		return fmt.Errorf("failed to fetch user: %w", err)
	}

	return us.setPassword(ctx, user.ID, password)
}

func (us *UserService) ClearExpiredResetTokens(ctx context.Context) (int64, error) {
	result := us.database.WithContext(ctx).Model(&model.User{}).
		Where("reset_token IS NOT NULL AND reset_token_expiry < ?", us.now()).
		Updates(map[string]any{
			"reset_token":        nil,
			"reset_token_expiry": nil,
		})

	if result.Error != nil {
		return 0, fmt.Errorf("failed to clear reset tokens: %w", result.Error)
	}

	return result.RowsAffected, nil
}
