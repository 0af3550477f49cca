package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hyperlog/hyperlog/internal/apperror"
	"github.com/hyperlog/hyperlog/internal/auth"
	"github.com/hyperlog/hyperlog/internal/model"
	"github.com/hyperlog/hyperlog/internal/repository"
)

const minPasswordLength = 8

// ReposStore persists a user's chosen repositories into the analysis
// store. Satisfied by *analysis.Store.
type ReposStore interface {
	SetSelectedRepos(ctx context.Context, userID string, repos []string) error
}

// RegisterParams carries a signup request.
type RegisterParams struct {
	Username  string
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// UpdateUserParams carries the editable portfolio fields. Nil pointers
// mean "leave unchanged".
type UpdateUserParams struct {
	FirstName         *string
	LastName          *string
	Tagline           *string
	About             *string
	ThemeCode         *string
	ShowAvatar        *bool
	UnderConstruction *bool
}

// UserService owns account lifecycle: registration, login, portfolio
// edits, onboarding progress and deletion.
type UserService struct {
	users     repository.UserRepository
	deleted   repository.DeletedUserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	repos     ReposStore // nil when no analysis store is configured
	logger    *slog.Logger
}

// NewUserService creates a UserService.
func NewUserService(
	users repository.UserRepository,
	deleted repository.DeletedUserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	repos ReposStore,
	logger *slog.Logger,
) *UserService {
	return &UserService{
		users:     users,
		deleted:   deleted,
		tokens:    tokens,
		passwords: passwords,
		repos:     repos,
		logger:    logger,
	}
}

// Register creates a new account. All validation problems are collected
// and reported together.
func (s *UserService) Register(ctx context.Context, params RegisterParams) (*model.User, error) {
	var problems []string
	if strings.TrimSpace(params.Username) == "" {
		problems = append(problems, "username is required")
	}
	if strings.ContainsAny(params.Username, " \t") {
		problems = append(problems, "username must not contain spaces")
	}
	if params.Email == "" || !strings.Contains(params.Email, "@") {
		problems = append(problems, "a valid email is required")
	}
	if len(params.Password) < minPasswordLength {
		problems = append(problems, fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}
	if params.FirstName == "" {
		problems = append(problems, "first name is required")
	}
	if len(problems) > 0 {
		return nil, apperror.ValidationFailures(problems)
	}

	hash, err := s.passwords.Hash(params.Password)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	user := &model.User{
		Username:     params.Username,
		Email:        params.Email,
		PasswordHash: hash,
		FirstName:    params.FirstName,
		LastName:     params.LastName,
		ShowAvatar:   true,
		NewUser:      true,
		SetupStep:    model.MinSetupStep,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("user registered",
		slog.String("user_id", user.ID),
		slog.String("username", user.Username))
	return user, nil
}

// Login verifies credentials and returns a session token plus the user.
// Every failure mode maps to the same unauthorized error so callers can't
// probe which usernames exist.
func (s *UserService) Login(ctx context.Context, username, password string) (string, *model.User, error) {
	invalid := apperror.Unauthorized("Invalid username or password")

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return "", nil, invalid
		}
		return "", nil, fmt.Errorf("looking up user: %w", err)
	}
	if !user.LoginTypes["password"] || user.PasswordHash == "" {
		return "", nil, invalid
	}
	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		return "", nil, invalid
	}

	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return "", nil, fmt.Errorf("generating session token: %w", err)
	}
	return token, user, nil
}

// Get returns a user by id.
func (s *UserService) Get(ctx context.Context, id string) (*model.User, error) {
	return s.users.GetByID(ctx, id)
}

// GetContactInfo returns the user's contact record, or (nil, nil) when
// none exists. Absence is an ordinary state here, not an error.
func (s *UserService) GetContactInfo(ctx context.Context, userID string) (*model.ContactInfo, error) {
	info, err := s.users.GetContactInfo(ctx, userID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return info, nil
}

// Update applies the given portfolio edits to the user.
func (s *UserService) Update(ctx context.Context, userID string, params UpdateUserParams) (*model.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if params.FirstName != nil {
		user.FirstName = *params.FirstName
	}
	if params.LastName != nil {
		user.LastName = *params.LastName
	}
	if params.Tagline != nil {
		user.Tagline = *params.Tagline
	}
	if params.About != nil {
		user.About = *params.About
	}
	if params.ThemeCode != nil {
		user.ThemeCode = *params.ThemeCode
	}
	if params.ShowAvatar != nil {
		user.ShowAvatar = *params.ShowAvatar
	}
	if params.UnderConstruction != nil {
		user.UnderConstruction = *params.UnderConstruction
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// UpdateSocialLinks replaces the user's social links. Every key must be
// in the supported allow-list.
func (s *UserService) UpdateSocialLinks(ctx context.Context, userID string, links map[string]string) (*model.User, error) {
	if key, ok := model.ValidSocialLinks(links); !ok {
		return nil, apperror.ValidationFailed("socialLinks",
			fmt.Sprintf("%q is not a supported social link provider", key))
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.SocialLinks = links
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// SetSetupStep moves the user's onboarding progress to the given step.
func (s *UserService) SetSetupStep(ctx context.Context, userID string, step int) (*model.User, error) {
	if !model.ValidSetupStep(step) {
		return nil, apperror.ValidationFailed("setupStep",
			fmt.Sprintf("setup step must be %d (completed) or between %d and %d",
				model.SetupCompletedStep, model.MinSetupStep, model.MaxSetupStep))
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.SetupStep = step
	if step == model.SetupCompletedStep {
		user.NewUser = false
	}
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// EnableLoginType records that the user can now sign in through the given
// method, e.g. "github" after a successful connect.
func (s *UserService) EnableLoginType(ctx context.Context, userID, method string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.LoginTypes == nil {
		user.LoginTypes = make(map[string]bool)
	}
	user.LoginTypes[method] = true
	return s.users.Update(ctx, user)
}

// SelectRepos stores the repositories the user wants analyzed and shown
// on their portfolio.
func (s *UserService) SelectRepos(ctx context.Context, userID string, repos []string) error {
	if s.repos == nil {
		return apperror.External("analysis store", errors.New("not configured"))
	}
	return s.repos.SetSelectedRepos(ctx, userID, repos)
}

// Delete snapshots the account into the deleted-users table and removes
// the live row. Linked profiles go with it via the cascade.
func (s *UserService) Delete(ctx context.Context, userID string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	snapshot := &model.DeletedUser{
		OldUserID:    user.ID,
		Username:     user.Username,
		Email:        user.Email,
		FirstName:    user.FirstName,
		LastName:     user.LastName,
		Tagline:      user.Tagline,
		SetupStep:    user.SetupStep,
		RegisteredAt: user.RegisteredAt,
		DeletedAt:    time.Now(),
	}
	if err := s.deleted.Create(ctx, snapshot); err != nil {
		return fmt.Errorf("snapshotting deleted user: %w", err)
	}
	if err := s.users.Delete(ctx, userID); err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}

	s.logger.Info("user deleted", slog.String("user_id", userID))
	return nil
}
