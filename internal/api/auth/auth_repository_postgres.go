package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	database "github.com/FACorreiaa/cv-builder-api/app/db"
	"github.com/FACorreiaa/cv-builder-api/internal/types"
)

var _ AuthRepo = (*PostgresAuthRepo)(nil)

const userColumns = `id::text, username, email, COALESCE(password_hash, ''), contact, provider, COALESCE(google_id, ''), created_at, updated_at`

type PostgresAuthRepo struct {
	logger *slog.Logger
	db     database.Querier
}

func NewPostgresAuthRepo(db database.Querier, logger *slog.Logger) *PostgresAuthRepo {
	return &PostgresAuthRepo{
		logger: logger,
		db:     db,
	}
}

func scanUser(row pgx.Row) (*types.User, error) {
	var u types.User
	var provider string
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.Password, &u.Contact, &provider, &u.Social.GoogleID, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.ErrNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	u.Provider = types.Provider(provider)
	return &u, nil
}

func (r *PostgresAuthRepo) GetUserByID(ctx context.Context, userID string) (*types.User, error) {
	id, err := uuid.Parse(userID)
	if err != nil {
		return nil, types.ErrNotFound
	}
	return scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (r *PostgresAuthRepo) GetUserByEmail(ctx context.Context, email string) (*types.User, error) {
	return scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
}

func (r *PostgresAuthRepo) GetUserByUsername(ctx context.Context, username string) (*types.User, error) {
	return scanUser(r.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = $1 ORDER BY created_at LIMIT 1`, username))
}

func (r *PostgresAuthRepo) GetUserByGoogleID(ctx context.Context, googleID string) (*types.User, error) {
	return scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE google_id = $1`, googleID))
}

func (r *PostgresAuthRepo) CreateUser(ctx context.Context, user *types.User) (*types.User, error) {
	id := uuid.New()
	created, err := scanUser(r.db.QueryRow(ctx,
		`INSERT INTO users (id, username, email, password_hash, contact, provider, google_id)
		 VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, NULLIF($7, ''))
		 RETURNING `+userColumns,
		id, user.Username, user.Email, user.Password, user.Contact, string(user.Provider), user.Social.GoogleID))
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, fmt.Errorf("create user: %w", types.ErrConflict)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	r.logger.DebugContext(ctx, "User created", slog.String("userID", created.ID), slog.String("provider", string(created.Provider)))
	return created, nil
}

func (r *PostgresAuthRepo) LinkGoogleAccount(ctx context.Context, userID, googleID string) (*types.User, error) {
	id, err := uuid.Parse(userID)
	if err != nil {
		return nil, types.ErrNotFound
	}
	linked, err := scanUser(r.db.QueryRow(ctx,
		`UPDATE users SET provider = $2, google_id = $3, updated_at = now()
		 WHERE id = $1
		 RETURNING `+userColumns,
		id, string(types.ProviderGoogle), googleID))
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, fmt.Errorf("link google account: %w", types.ErrConflict)
		}
		return nil, fmt.Errorf("link google account: %w", err)
	}
	return linked, nil
}
