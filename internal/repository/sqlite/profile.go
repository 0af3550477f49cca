package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"

	"github.com/hyperlog/hyperlog/internal/apperror"
	"github.com/hyperlog/hyperlog/internal/model"
	"github.com/hyperlog/hyperlog/internal/repository"
)

var (
	_ repository.ProfileRepository      = profiles{}
	_ repository.EmailAddressRepository = emailAddresses{}
)

// CreateProfile inserts a linked-provider profile row. Fills in ID and
// CreatedAt. A (provider, username) collision comes back as a validation
// error, matching what the connect flow reports to the user.
func (db *DB) CreateProfile(ctx context.Context, profile *model.Profile) error {
	if profile.ID == "" {
		profile.ID = xid.New().String()
	}
	profile.CreatedAt = time.Now().UTC()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO profiles (id, provider, username, provider_uid, access_token, user_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		profile.ID, string(profile.Provider), profile.Username,
		profile.ProviderUID, profile.AccessToken, profile.UserID,
		profile.CreatedAt,
	)
	if err != nil {
		if strings.Contains(err.Error(), "profiles.provider") ||
			strings.Contains(err.Error(), "profiles.username") {
			return apperror.ValidationFailed("username",
				fmt.Sprintf("A %s profile with username %s already exists", profile.Provider, profile.Username))
		}
		return fmt.Errorf("sqlite: inserting %s profile %s: %w", profile.Provider, profile.Username, err)
	}

	return nil
}

// GetProfileByProviderUsername looks up the one profile for a provider and
// provider-side username.
func (db *DB) GetProfileByProviderUsername(ctx context.Context, provider model.Provider, username string) (*model.Profile, error) {
	var p model.Profile
	var providerStr string
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, provider, username, provider_uid, access_token, user_id, created_at
		 FROM profiles WHERE provider = ? AND username = ?`,
		string(provider), username,
	).Scan(&p.ID, &providerStr, &p.Username, &p.ProviderUID, &p.AccessToken, &p.UserID, &p.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("profile", fmt.Sprintf("%s/%s", provider, username))
		}
		return nil, fmt.Errorf("sqlite: getting %s profile %s: %w", provider, username, err)
	}
	p.Provider = model.Provider(providerStr)
	return &p, nil
}

// ListProfilesByUser returns every linked profile owned by a user.
func (db *DB) ListProfilesByUser(ctx context.Context, userID string) ([]model.Profile, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, provider, username, provider_uid, access_token, user_id, created_at
		 FROM profiles WHERE user_id = ? ORDER BY created_at`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing profiles for %s: %w", userID, err)
	}
	defer rows.Close()

	var profiles []model.Profile
	for rows.Next() {
		var p model.Profile
		var providerStr string
		if err := rows.Scan(&p.ID, &providerStr, &p.Username, &p.ProviderUID,
			&p.AccessToken, &p.UserID, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning profile row: %w", err)
		}
		p.Provider = model.Provider(providerStr)
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

// CreateEmailAddress inserts one provider-reported email for a profile.
func (db *DB) CreateEmailAddress(ctx context.Context, email *model.EmailAddress) error {
	if email.ID == "" {
		email.ID = xid.New().String()
	}

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO email_addresses (id, email, profile_id, is_primary, verified)
		 VALUES (?, ?, ?, ?, ?)`,
		email.ID, email.Email, email.ProfileID, email.Primary, email.Verified,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting email %s: %w", email.Email, err)
	}
	return nil
}

// ListEmailAddressesByProfile returns the emails linked to a profile.
func (db *DB) ListEmailAddressesByProfile(ctx context.Context, profileID string) ([]model.EmailAddress, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, email, profile_id, is_primary, verified
		 FROM email_addresses WHERE profile_id = ?`,
		profileID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing emails for profile %s: %w", profileID, err)
	}
	defer rows.Close()

	var emails []model.EmailAddress
	for rows.Next() {
		var e model.EmailAddress
		if err := rows.Scan(&e.ID, &e.Email, &e.ProfileID, &e.Primary, &e.Verified); err != nil {
			return nil, fmt.Errorf("sqlite: scanning email row: %w", err)
		}
		emails = append(emails, e)
	}
	return emails, rows.Err()
}

// Profiles and EmailAddresses expose interface-shaped views of this DB
// for wiring into the service layer. One DB struct backs several
// repositories, so the entity-qualified methods above get adapted to the
// short interface names here.
func (db *DB) Profiles() repository.ProfileRepository { return profiles{db} }

func (db *DB) EmailAddresses() repository.EmailAddressRepository {
	return emailAddresses{db}
}

type profiles struct{ db *DB }

func (p profiles) Create(ctx context.Context, profile *model.Profile) error {
	return p.db.CreateProfile(ctx, profile)
}

func (p profiles) GetByProviderUsername(ctx context.Context, provider model.Provider, username string) (*model.Profile, error) {
	return p.db.GetProfileByProviderUsername(ctx, provider, username)
}

func (p profiles) ListByUser(ctx context.Context, userID string) ([]model.Profile, error) {
	return p.db.ListProfilesByUser(ctx, userID)
}

type emailAddresses struct{ db *DB }

func (e emailAddresses) Create(ctx context.Context, email *model.EmailAddress) error {
	return e.db.CreateEmailAddress(ctx, email)
}

func (e emailAddresses) ListByProfile(ctx context.Context, profileID string) ([]model.EmailAddress, error) {
	return e.db.ListEmailAddressesByProfile(ctx, profileID)
}
