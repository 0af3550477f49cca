package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/xid"

	"github.com/hyperlog/hyperlog/internal/apperror"
	"github.com/hyperlog/hyperlog/internal/model"
	"github.com/hyperlog/hyperlog/internal/repository"
)

// compile-time checks that the user-side interfaces are implemented
var (
	_ repository.UserRepository        = (*DB)(nil)
	_ repository.DeletedUserRepository = deletedUsers{}
)

const userColumns = `id, username, email, password_hash, first_name, last_name,
	tagline, about, theme_code, show_avatar, under_construction, new_user,
	setup_step, login_types, social_links, registered_at, updated_at`

// Create inserts a new user row. Fills in ID (UUID), RegisteredAt and
// UpdatedAt. Unique-index violations on username or email come back as
// validation errors with the same wording the registration form shows.
func (db *DB) Create(ctx context.Context, user *model.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	user.RegisteredAt = now
	user.UpdatedAt = now
	if user.LoginTypes == nil {
		user.LoginTypes = map[string]bool{"password": true}
	}
	if user.SocialLinks == nil {
		user.SocialLinks = map[string]string{}
	}

	loginTypes, socialLinks, err := marshalUserJSON(user)
	if err != nil {
		return err
	}

	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID, user.Username, user.Email, user.PasswordHash,
		user.FirstName, user.LastName, user.Tagline, user.About,
		user.ThemeCode, user.ShowAvatar, user.UnderConstruction, user.NewUser,
		user.SetupStep, loginTypes, socialLinks,
		user.RegisteredAt, user.UpdatedAt,
	)
	if err != nil {
		if ve := uniqueUserViolation(err); ve != nil {
			return ve
		}
		return fmt.Errorf("sqlite: inserting user %s: %w", user.Username, err)
	}

	return nil
}

// GetByID retrieves a user by internal UUID.
func (db *DB) GetByID(ctx context.Context, id string) (*model.User, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	user, err := scanUser(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("sqlite: getting user %s: %w", id, err)
	}
	return user, nil
}

// GetByUsername retrieves a user by username, case-insensitively.
func (db *DB) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = ?`, username)
	user, err := scanUser(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", username)
		}
		return nil, fmt.Errorf("sqlite: getting user by username %s: %w", username, err)
	}
	return user, nil
}

// Update persists mutable profile fields of an existing user.
func (db *DB) Update(ctx context.Context, user *model.User) error {
	user.UpdatedAt = time.Now().UTC()

	loginTypes, socialLinks, err := marshalUserJSON(user)
	if err != nil {
		return err
	}

	res, err := db.conn.ExecContext(ctx,
		`UPDATE users SET username = ?, email = ?, password_hash = ?,
			first_name = ?, last_name = ?, tagline = ?, about = ?,
			theme_code = ?, show_avatar = ?, under_construction = ?,
			new_user = ?, setup_step = ?, login_types = ?, social_links = ?,
			updated_at = ?
		 WHERE id = ?`,
		user.Username, user.Email, user.PasswordHash,
		user.FirstName, user.LastName, user.Tagline, user.About,
		user.ThemeCode, user.ShowAvatar, user.UnderConstruction,
		user.NewUser, user.SetupStep, loginTypes, socialLinks,
		user.UpdatedAt, user.ID,
	)
	if err != nil {
		if ve := uniqueUserViolation(err); ve != nil {
			return ve
		}
		return fmt.Errorf("sqlite: updating user %s: %w", user.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperror.NotFound("user", user.ID)
	}
	return nil
}

// Delete removes a user row. Profiles and their email addresses go with it
// via ON DELETE CASCADE.
func (db *DB) Delete(ctx context.Context, id string) error {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting user %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperror.NotFound("user", id)
	}
	return nil
}

// GetContactInfo returns the user's contact record, or NotFound if the
// user never added one. The read API turns NotFound into a JSON null.
func (db *DB) GetContactInfo(ctx context.Context, userID string) (*model.ContactInfo, error) {
	var ci model.ContactInfo
	err := db.conn.QueryRowContext(ctx,
		`SELECT user_id, email, phone, address FROM contact_info WHERE user_id = ?`,
		userID,
	).Scan(&ci.UserID, &ci.Email, &ci.Phone, &ci.Address)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("contact info", userID)
		}
		return nil, fmt.Errorf("sqlite: getting contact info for %s: %w", userID, err)
	}
	return &ci, nil
}

// UpsertContactInfo creates or replaces the user's contact record.
func (db *DB) UpsertContactInfo(ctx context.Context, ci *model.ContactInfo) error {
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO contact_info (user_id, email, phone, address)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (user_id) DO UPDATE SET
			email = excluded.email, phone = excluded.phone, address = excluded.address`,
		ci.UserID, ci.Email, ci.Phone, ci.Address,
	)
	if err != nil {
		return fmt.Errorf("sqlite: upserting contact info for %s: %w", ci.UserID, err)
	}
	return nil
}

// CreateDeletedUser writes the snapshot row for a removed account.
// The DeletedUsers view adapts this to repository.DeletedUserRepository.
func (db *DB) CreateDeletedUser(ctx context.Context, snapshot *model.DeletedUser) error {
	if snapshot.ID == "" {
		snapshot.ID = xid.New().String()
	}
	if snapshot.DeletedAt.IsZero() {
		snapshot.DeletedAt = time.Now().UTC()
	}

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO deleted_users (id, old_user_id, username, email,
			first_name, last_name, tagline, setup_step, registered_at, deleted_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		snapshot.ID, snapshot.OldUserID, snapshot.Username, snapshot.Email,
		snapshot.FirstName, snapshot.LastName, snapshot.Tagline,
		snapshot.SetupStep, snapshot.RegisteredAt, snapshot.DeletedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting deleted user %s: %w", snapshot.OldUserID, err)
	}
	return nil
}

// DeletedUsers exposes the DeletedUserRepository view of this DB.
func (db *DB) DeletedUsers() repository.DeletedUserRepository {
	return deletedUsers{db}
}

type deletedUsers struct{ db *DB }

func (d deletedUsers) Create(ctx context.Context, snapshot *model.DeletedUser) error {
	return d.db.CreateDeletedUser(ctx, snapshot)
}

// scanner covers both sql.Row and sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanUser(row scanner) (*model.User, error) {
	var (
		u           model.User
		loginTypes  string
		socialLinks string
	)
	err := row.Scan(
		&u.ID, &u.Username, &u.Email, &u.PasswordHash,
		&u.FirstName, &u.LastName, &u.Tagline, &u.About,
		&u.ThemeCode, &u.ShowAvatar, &u.UnderConstruction, &u.NewUser,
		&u.SetupStep, &loginTypes, &socialLinks,
		&u.RegisteredAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(loginTypes), &u.LoginTypes); err != nil {
		return nil, fmt.Errorf("sqlite: decoding login_types for %s: %w", u.ID, err)
	}
	if err := json.Unmarshal([]byte(socialLinks), &u.SocialLinks); err != nil {
		return nil, fmt.Errorf("sqlite: decoding social_links for %s: %w", u.ID, err)
	}

	return &u, nil
}

func marshalUserJSON(user *model.User) (loginTypes, socialLinks string, err error) {
	lt, err := json.Marshal(user.LoginTypes)
	if err != nil {
		return "", "", fmt.Errorf("sqlite: encoding login_types: %w", err)
	}
	sl, err := json.Marshal(user.SocialLinks)
	if err != nil {
		return "", "", fmt.Errorf("sqlite: encoding social_links: %w", err)
	}
	return string(lt), string(sl), nil
}

// uniqueUserViolation translates SQLite unique-index failures on the users
// table into field-level validation errors with user-facing wording.
func uniqueUserViolation(err error) *apperror.AppError {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "users.username"):
		return apperror.ValidationFailed("username", "A user with that username already exists")
	case strings.Contains(msg, "users.email"):
		return apperror.ValidationFailed("email", "A user with that email id already exists")
	}
	return nil
}
