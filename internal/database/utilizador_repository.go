package database

import (
	"database/sql"
	"fmt"

	"github.com/GoncaloGomes10/TP02-ISI-TurismoRural/internal/models"
)

// UtilizadorRepository handles database operations for the utilizadores table
type UtilizadorRepository struct {
	db DB
}

// NewUtilizadorRepository creates a new UtilizadorRepository
func NewUtilizadorRepository(db DB) *UtilizadorRepository {
	return &UtilizadorRepository{db: db}
}

const utilizadorColumns = `id, nome, email, telemovel, palavra_pass, is_support, created_at, updated_at`

// Create inserts a new account. passwordHash must already be bcrypt-hashed.
func (r *UtilizadorRepository) Create(nome, email, telemovel, passwordHash string) (*models.Utilizador, error) {
	query := `
		INSERT INTO utilizadores (nome, email, telemovel, palavra_pass)
		VALUES ($1, $2, NULLIF($3, ''), $4)
		RETURNING ` + utilizadorColumns

	var user models.Utilizador
	err := r.db.Get(&user, query, nome, email, telemovel, passwordHash)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return &user, nil
}

// GetByEmail retrieves an account by email, or nil when none exists
func (r *UtilizadorRepository) GetByEmail(email string) (*models.Utilizador, error) {
	query := `SELECT ` + utilizadorColumns + ` FROM utilizadores WHERE email = $1`

	var user models.Utilizador
	err := r.db.Get(&user, query, email)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	return &user, nil
}

// GetByID retrieves an account by id, or nil when none exists
func (r *UtilizadorRepository) GetByID(id int64) (*models.Utilizador, error) {
	query := `SELECT ` + utilizadorColumns + ` FROM utilizadores WHERE id = $1`

	var user models.Utilizador
	err := r.db.Get(&user, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}

	return &user, nil
}

// List retrieves all accounts ordered by id
func (r *UtilizadorRepository) List() ([]models.Utilizador, error) {
	query := `SELECT ` + utilizadorColumns + ` FROM utilizadores ORDER BY id`

	var users []models.Utilizador
	if err := r.db.Select(&users, query); err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	return users, nil
}

// UpdateProfile updates nome, email and telemovel
func (r *UtilizadorRepository) UpdateProfile(id int64, nome, email, telemovel string) (*models.Utilizador, error) {
	query := `
		UPDATE utilizadores
		SET nome = $2, email = $3, telemovel = NULLIF($4, ''), updated_at = NOW()
		WHERE id = $1
		RETURNING ` + utilizadorColumns

	var user models.Utilizador
	err := r.db.Get(&user, query, id, nome, email, telemovel)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to update user profile: %w", err)
	}

	return &user, nil
}

// UpdatePassword replaces the stored bcrypt hash
func (r *UtilizadorRepository) UpdatePassword(id int64, passwordHash string) error {
	query := `
		UPDATE utilizadores
		SET palavra_pass = $2, updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.db.Exec(query, id, passwordHash)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("user not found")
	}

	return nil
}

// Delete removes an account. Returns the number of rows deleted.
func (r *UtilizadorRepository) Delete(id int64) (int64, error) {
	result, err := r.db.Exec(`DELETE FROM utilizadores WHERE id = $1`, id)
	if err != nil {
		return 0, fmt.Errorf("failed to delete user: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected, nil
}
