package patients

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type rowQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository stores directory entries in the relational database.
type Repository struct {
	pool rowQuerier
}

// NewRepository initializes a repo backed by pgxpool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	if pool == nil {
		panic("patients: pgx pool required")
	}
	return &Repository{pool: pool}
}

func newRepositoryWithQuerier(q rowQuerier) *Repository {
	if q == nil {
		panic("patients: querier required")
	}
	return &Repository{pool: q}
}

// Create inserts a new directory entry.
func (r *Repository) Create(ctx context.Context, req *CreateRequest) (*Person, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	id := uuid.New()
	query := `
		INSERT INTO people (id, name, phone, email, kind)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`
	var createdAt time.Time
	if err := r.pool.QueryRow(ctx, query,
		id,
		strings.TrimSpace(req.Name),
		strings.TrimSpace(req.Phone),
		normalizeEmail(req.Email),
		string(req.Kind),
	).Scan(&createdAt); err != nil {
		return nil, fmt.Errorf("patients: insert failed: %w", err)
	}

	return &Person{
		ID:        id.String(),
		Name:      strings.TrimSpace(req.Name),
		Phone:     strings.TrimSpace(req.Phone),
		Email:     normalizeEmail(req.Email),
		Kind:      req.Kind,
		CreatedAt: createdAt,
	}, nil
}

// GetByID fetches one entry by primary key.
func (r *Repository) GetByID(ctx context.Context, id string) (*Person, error) {
	return r.get(ctx, `WHERE id = $1`, id)
}

// GetByPhone fetches the entry holding the given phone number.
func (r *Repository) GetByPhone(ctx context.Context, phone string) (*Person, error) {
	return r.get(ctx, `WHERE phone = $1`, strings.TrimSpace(phone))
}

// GetByEmail fetches the entry holding the given email address.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*Person, error) {
	return r.get(ctx, `WHERE email = $1`, normalizeEmail(email))
}

// FindDoctorByEmail resolves a doctor for the portal login.
func (r *Repository) FindDoctorByEmail(ctx context.Context, email string) (*Person, error) {
	return r.get(ctx, `WHERE email = $1 AND kind = 'doctor'`, normalizeEmail(email))
}

func (r *Repository) get(ctx context.Context, where string, arg any) (*Person, error) {
	query := `
		SELECT id, name, phone, email, kind, created_at
		FROM people
	` + where
	row := r.pool.QueryRow(ctx, query, arg)

	var person Person
	var kind string
	if err := row.Scan(
		&person.ID,
		&person.Name,
		&person.Phone,
		&person.Email,
		&kind,
		&person.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("patients: select failed: %w", err)
	}
	person.Kind = Kind(kind)
	return &person, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
