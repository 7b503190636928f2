package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"neon-nexus/internal/domain"
)

// UserRepository define el contrato de persistencia para usuarios.
type UserRepository interface {
	Create(ctx context.Context, user domain.User) error
	GetByID(ctx context.Context, id string) (domain.User, error)
	GetByEmail(ctx context.Context, email string) (domain.User, error)
	GetByAuth(ctx context.Context, provider, subject string) (domain.User, error)
	LinkOAuth(ctx context.Context, id, provider, subject, avatarURL string) error
}

// PgUserRepository implementa UserRepository usando pgxpool.
type PgUserRepository struct {
	pool *pgxpool.Pool
}

func NewPgUserRepository(pool *pgxpool.Pool) *PgUserRepository {
	return &PgUserRepository{pool: pool}
}

func (r *PgUserRepository) Create(ctx context.Context, user domain.User) error {
	const query = `
		INSERT INTO users (id, email, display_name, avatar_url, auth_provider, auth_subject, password_hash, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.pool.Exec(ctx, query,
		user.ID,
		user.Email,
		user.DisplayName,
		user.AvatarURL,
		user.AuthProvider,
		user.AuthSubject,
		user.PasswordHash,
		user.CreatedAt,
	)
	return err
}

func (r *PgUserRepository) GetByID(ctx context.Context, id string) (domain.User, error) {
	return r.getOne(ctx, `WHERE id = $1`, id)
}

func (r *PgUserRepository) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	return r.getOne(ctx, `WHERE email = $1`, email)
}

func (r *PgUserRepository) GetByAuth(ctx context.Context, provider, subject string) (domain.User, error) {
	return r.getOne(ctx, `WHERE auth_provider = $1 AND auth_subject = $2`, provider, subject)
}

func (r *PgUserRepository) LinkOAuth(ctx context.Context, id, provider, subject, avatarURL string) error {
	const query = `
		UPDATE users
		SET auth_provider = $2,
		    auth_subject = $3,
		    avatar_url = CASE WHEN $4 <> '' THEN $4 ELSE avatar_url END
		WHERE id = $1
	`
	_, err := r.pool.Exec(ctx, query, id, provider, subject, avatarURL)
	return err
}

func (r *PgUserRepository) getOne(ctx context.Context, where string, args ...any) (domain.User, error) {
	query := `
		SELECT id, email, display_name, avatar_url, auth_provider, auth_subject, password_hash, created_at
		FROM users
	` + where

	var (
		u            domain.User
		displayName  *string
		avatarURL    *string
		authProvider *string
		authSubject  *string
		passwordHash *string
		createdAt    time.Time
	)
	err := r.pool.QueryRow(ctx, query, args...).Scan(
		&u.ID,
		&u.Email,
		&displayName,
		&avatarURL,
		&authProvider,
		&authSubject,
		&passwordHash,
		&createdAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, err
	}
	if err != nil {
		return domain.User{}, err
	}

	if displayName != nil {
		u.DisplayName = *displayName
	}
	if avatarURL != nil {
		u.AvatarURL = *avatarURL
	}
	if authProvider != nil {
		u.AuthProvider = *authProvider
	}
	if authSubject != nil {
		u.AuthSubject = *authSubject
	}
	if passwordHash != nil {
		u.PasswordHash = *passwordHash
	}
	u.CreatedAt = createdAt
	return u, nil
}
