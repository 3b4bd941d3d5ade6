package registrations

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kingscode/bootcamp-api/internal/models"
)

var (
	// ErrEmailTaken is returned when a registration with the same email exists.
	ErrEmailTaken = errors.New("email already registered")
	// ErrNotFound is returned when no registration matches.
	ErrNotFound = errors.New("registration not found")
)

const emailUniqueConstraint = "registrations_email_key"

const selectColumns = `id, first_name, middle_name, last_name, email, date_of_birth, course, has_laptop, status, COALESCE(qr_code, ''), created_at`

// ListFilter narrows List results. Limit <= 0 returns every row.
type ListFilter struct {
	Course string
	Limit  int
	Offset int
}

// Repository handles registration persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a registrations repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a registration and fills in ID, Status and CreatedAt.
// A unique violation on email is reported as ErrEmailTaken; the constraint is the authority under concurrent inserts.
func (r *Repository) Create(ctx context.Context, reg *models.Registration) error {
	const q = `INSERT INTO registrations (first_name, middle_name, last_name, email, date_of_birth, course, has_laptop)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, status, created_at`
	err := r.pool.QueryRow(ctx, q,
		reg.FirstName, reg.MiddleName, reg.LastName, reg.Email, reg.DateOfBirth, reg.Course, reg.HasLaptop,
	).Scan(&reg.ID, &reg.Status, &reg.CreatedAt)
	if err != nil {
		if isEmailTaken(err) {
			return ErrEmailTaken
		}
		return fmt.Errorf("insert registration: %w", err)
	}
	return nil
}

// SetQRCode stores the QR code data URL for a registration.
func (r *Repository) SetQRCode(ctx context.Context, id uuid.UUID, dataURL string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE registrations SET qr_code = $2 WHERE id = $1`, id, dataURL)
	if err != nil {
		return fmt.Errorf("update qr code: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// GetByEmail returns the registration for a normalized email.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*models.Registration, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+selectColumns+` FROM registrations WHERE email = $1`, email)
	return scanOne(row)
}

// GetByID returns a registration by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Registration, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+selectColumns+` FROM registrations WHERE id = $1`, id)
	return scanOne(row)
}

// List returns registrations, newest first.
func (r *Repository) List(ctx context.Context, f ListFilter) ([]models.Registration, error) {
	var (
		sb   strings.Builder
		args []interface{}
	)
	sb.WriteString(`SELECT ` + selectColumns + ` FROM registrations`)
	if f.Course != "" {
		args = append(args, f.Course)
		sb.WriteString(fmt.Sprintf(` WHERE course = $%d`, len(args)))
	}
	sb.WriteString(` ORDER BY created_at DESC`)
	if f.Limit > 0 {
		args = append(args, f.Limit)
		sb.WriteString(fmt.Sprintf(` LIMIT $%d`, len(args)))
	}
	if f.Offset > 0 {
		args = append(args, f.Offset)
		sb.WriteString(fmt.Sprintf(` OFFSET $%d`, len(args)))
	}

	rows, err := r.pool.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	defer rows.Close()
	var list []models.Registration
	for rows.Next() {
		reg, err := scanRow(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *reg)
	}
	return list, rows.Err()
}

// CountByCourse returns registration totals per course.
func (r *Repository) CountByCourse(ctx context.Context) ([]models.CourseCount, error) {
	const q = `SELECT course, COUNT(*), COUNT(*) FILTER (WHERE has_laptop) FROM registrations GROUP BY course ORDER BY course`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("count registrations: %w", err)
	}
	defer rows.Close()
	var out []models.CourseCount
	for rows.Next() {
		var cc models.CourseCount
		if err := rows.Scan(&cc.Course, &cc.Total, &cc.WithLaptop); err != nil {
			return nil, err
		}
		out = append(out, cc)
	}
	return out, rows.Err()
}

func scanOne(row pgx.Row) (*models.Registration, error) {
	reg, err := scanRow(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return reg, err
}

func scanRow(row pgx.Row) (*models.Registration, error) {
	var reg models.Registration
	err := row.Scan(&reg.ID, &reg.FirstName, &reg.MiddleName, &reg.LastName, &reg.Email,
		&reg.DateOfBirth, &reg.Course, &reg.HasLaptop, &reg.Status, &reg.QRCode, &reg.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &reg, nil
}

func isEmailTaken(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) &&
		pgErr.Code == pgerrcode.UniqueViolation &&
		pgErr.ConstraintName == emailUniqueConstraint
}
