// Package service implements the application's business logic. Services
// sit between HTTP handlers and repositories, own all validation, and
// return apperror values the handler layer maps to status codes.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hyperlog/hyperlog/internal/apperror"
	"github.com/hyperlog/hyperlog/internal/model"
	"github.com/hyperlog/hyperlog/internal/repository"
)

// NotifyOutcome reports what happened to the analysis trigger that runs
// after a profile is created. The trigger is best effort: its failure
// never fails the creation, but callers always learn which way it went.
type NotifyOutcome string

const (
	NotifySent    NotifyOutcome = "sent"
	NotifyFailed  NotifyOutcome = "failed"
	NotifySkipped NotifyOutcome = "skipped"
)

// AnalysisNotifier publishes an analysis request for a freshly connected
// profile. Satisfied by *notify.Publisher.
type AnalysisNotifier interface {
	Publish(ctx context.Context, userID, githubToken string) error
}

// TokenStore writes provider access tokens through to the analysis
// key-value store. Satisfied by *analysis.Store.
type TokenStore interface {
	PutAccessToken(ctx context.Context, userID string, provider model.Provider, token string) error
}

// CreateProfileParams carries everything needed to link a provider
// account to a user.
type CreateProfileParams struct {
	Provider    model.Provider
	AccessToken string
	Username    string
	ProviderUID int64
	UserID      string
}

// CreateProfileResult is what a successful creation returns: the stored
// profile plus the explicit outcome of the analysis trigger.
type CreateProfileResult struct {
	Profile      *model.Profile
	Notification NotifyOutcome
}

// ProfileService links external provider accounts to users and kicks off
// analysis for them.
type ProfileService struct {
	profiles repository.ProfileRepository
	emails   repository.EmailAddressRepository
	notifier AnalysisNotifier // nil when no topic is configured
	store    TokenStore       // nil when no analysis store is configured
	logger   *slog.Logger
}

// NewProfileService creates a ProfileService. notifier and store may be
// nil, in which case every creation reports NotifySkipped.
func NewProfileService(
	profiles repository.ProfileRepository,
	emails repository.EmailAddressRepository,
	notifier AnalysisNotifier,
	store TokenStore,
	logger *slog.Logger,
) *ProfileService {
	return &ProfileService{
		profiles: profiles,
		emails:   emails,
		notifier: notifier,
		store:    store,
		logger:   logger,
	}
}

// CreateProfile validates the params, persists the profile, then fires
// the analysis trigger. Validation runs in full before anything is
// written; a profile is never created from partially valid input.
func (s *ProfileService) CreateProfile(ctx context.Context, params CreateProfileParams) (*CreateProfileResult, error) {
	var problems []string
	if !model.KnownProvider(params.Provider) {
		problems = append(problems, fmt.Sprintf("unknown provider %q", params.Provider))
	}
	if params.AccessToken == "" {
		problems = append(problems, "access token is required")
	}
	if params.Username == "" {
		problems = append(problems, "username is required")
	}
	if params.ProviderUID <= 0 {
		problems = append(problems, "provider uid is required")
	}
	if params.UserID == "" {
		problems = append(problems, "user id is required")
	}
	if len(problems) > 0 {
		return nil, apperror.ValidationFailures(problems)
	}

	existing, err := s.profiles.GetByProviderUsername(ctx, params.Provider, params.Username)
	if err != nil && !errors.Is(err, apperror.ErrNotFound) {
		return nil, fmt.Errorf("checking profile uniqueness: %w", err)
	}
	if existing != nil {
		return nil, apperror.ValidationFailed("username",
			fmt.Sprintf("A %s profile for %s already exists", params.Provider, params.Username))
	}

	profile := &model.Profile{
		Provider:    params.Provider,
		Username:    params.Username,
		ProviderUID: params.ProviderUID,
		AccessToken: params.AccessToken,
		UserID:      params.UserID,
	}
	if err := s.profiles.Create(ctx, profile); err != nil {
		return nil, fmt.Errorf("creating profile: %w", err)
	}

	return &CreateProfileResult{
		Profile:      profile,
		Notification: s.triggerAnalysis(ctx, profile),
	}, nil
}

// triggerAnalysis publishes the analysis request and writes the access
// token through to the analysis store. Failures are logged and reported
// in the outcome, never returned.
func (s *ProfileService) triggerAnalysis(ctx context.Context, profile *model.Profile) NotifyOutcome {
	if s.notifier == nil || s.store == nil {
		s.logger.Info("analysis trigger not configured, skipping",
			slog.String("user_id", profile.UserID))
		return NotifySkipped
	}

	outcome := NotifySent
	if err := s.notifier.Publish(ctx, profile.UserID, profile.AccessToken); err != nil {
		s.logger.Error("failed to publish analysis request",
			slog.String("user_id", profile.UserID),
			slog.String("error", err.Error()))
		outcome = NotifyFailed
	}
	if err := s.store.PutAccessToken(ctx, profile.UserID, profile.Provider, profile.AccessToken); err != nil {
		s.logger.Error("failed to store access token",
			slog.String("user_id", profile.UserID),
			slog.String("error", err.Error()))
		outcome = NotifyFailed
	}
	return outcome
}

// SaveEmails persists provider-reported email addresses for a profile.
// Each address is saved independently; one failure is logged and does not
// stop the rest.
func (s *ProfileService) SaveEmails(ctx context.Context, profileID string, emails []model.EmailAddress) {
	for _, email := range emails {
		email.ProfileID = profileID
		if err := s.emails.Create(ctx, &email); err != nil {
			s.logger.Warn("failed to save profile email",
				slog.String("profile_id", profileID),
				slog.String("email", email.Email),
				slog.String("error", err.Error()))
		}
	}
}

// ListProfiles returns all linked provider accounts for a user.
func (s *ProfileService) ListProfiles(ctx context.Context, userID string) ([]model.Profile, error) {
	return s.profiles.ListByUser(ctx, userID)
}
