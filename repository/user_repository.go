package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"mondesavoir/database"
	"mondesavoir/models"
	"mondesavoir/service"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// uniqueViolation is the PostgreSQL SQLSTATE for unique constraint failures
const uniqueViolation = "23505"

const userColumns = `
	id,
	username,
	score,
	badges,
	capital_score,
	flags_score,
	population_score,
	area_score,
	created_at,
	updated_at`

// UserRepository implements the UserRepository interface
type UserRepository struct {
	q Queryable
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{q: db.Pool}
}

// newUserRepositoryWithTx creates a new user repository with a transaction
func newUserRepositoryWithTx(tx Queryable) *UserRepository {
	return &UserRepository{q: tx}
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	query := `SELECT` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(r.q.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by ID %d: %w", id, err)
	}

	return user, nil
}

// GetByIDForUpdate retrieves a user by ID and holds a row lock until the
// surrounding transaction ends. Outside a transaction the lock is released
// as soon as the statement completes.
func (r *UserRepository) GetByIDForUpdate(ctx context.Context, id int64) (*models.User, error) {
	query := `SELECT` + userColumns + ` FROM users WHERE id = $1 FOR UPDATE`

	user, err := scanUser(r.q.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock user %d: %w", id, err)
	}

	return user, nil
}

// GetByUsername retrieves a user by username
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `SELECT` + userColumns + ` FROM users WHERE username = $1`

	user, err := scanUser(r.q.QueryRow(ctx, query, username))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by username %q: %w", username, err)
	}

	return user, nil
}

// GetAll returns all users ordered by ID
func (r *UserRepository) GetAll(ctx context.Context) ([]*models.User, error) {
	query := `SELECT` + userColumns + ` FROM users ORDER BY id`

	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get all users: %w", err)
	}
	defer rows.Close()

	users := []*models.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}

	return users, nil
}

// Create inserts a new user; every counter starts at zero and the badge set empty
func (r *UserRepository) Create(ctx context.Context, username string) (*models.User, error) {
	query := `
		INSERT INTO users (username)
		VALUES ($1)
		RETURNING` + userColumns

	user, err := scanUser(r.q.QueryRow(ctx, query, username))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, service.ErrDuplicateUsername
		}
		return nil, fmt.Errorf("failed to create user %q: %w", username, err)
	}

	return user, nil
}

// UpdateProgress writes score, badges and all four category scores in one
// statement. The column list is fixed; categories never reach the SQL text.
// updated_at uses clock_timestamp() so that writers serialized by the row lock
// get strictly increasing versions, which the user cache compares.
func (r *UserRepository) UpdateProgress(ctx context.Context, user *models.User) error {
	badgesJSON, err := encodeBadges(user.Badges)
	if err != nil {
		return err
	}

	query := `
		UPDATE users
		SET score = $1,
		    badges = $2,
		    capital_score = $3,
		    flags_score = $4,
		    population_score = $5,
		    area_score = $6,
		    updated_at = clock_timestamp()
		WHERE id = $7
		RETURNING updated_at
	`

	err = r.q.QueryRow(ctx, query,
		user.Score,
		badgesJSON,
		user.CapitalScore,
		user.FlagsScore,
		user.PopulationScore,
		user.AreaScore,
		user.ID,
	).Scan(&user.UpdatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("user with ID %d not found", user.ID)
	}
	if err != nil {
		return fmt.Errorf("failed to update progress for user %d: %w", user.ID, err)
	}

	return nil
}

// scanUser reads one row selected with userColumns
func scanUser(row pgx.Row) (*models.User, error) {
	var user models.User
	var badgesJSON string

	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Score,
		&badgesJSON,
		&user.CapitalScore,
		&user.FlagsScore,
		&user.PopulationScore,
		&user.AreaScore,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	badges, err := decodeBadges(badgesJSON)
	if err != nil {
		return nil, fmt.Errorf("user %d: %w", user.ID, err)
	}
	user.Badges = badges

	return &user, nil
}

// encodeBadges serializes the badge set as a JSON array
func encodeBadges(badges models.Badges) (string, error) {
	data, err := json.Marshal(badges)
	if err != nil {
		return "", fmt.Errorf("failed to marshal badges: %w", err)
	}
	return string(data), nil
}

// decodeBadges parses a stored JSON array; blank text is treated as no badges
func decodeBadges(raw string) (models.Badges, error) {
	badges := models.Badges{}
	if raw == "" {
		return badges, nil
	}
	if err := json.Unmarshal([]byte(raw), &badges); err != nil {
		return nil, fmt.Errorf("failed to unmarshal badges: %w", err)
	}
	if badges == nil {
		// A stored JSON null
		badges = models.Badges{}
	}
	return badges, nil
}
