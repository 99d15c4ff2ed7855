package store

import (
	"database/sql"
	"fmt"

	"github.com/mchalk/repset/internal/model"
)

type StaffStore struct {
	db *sql.DB
}

func NewStaffStore(db *sql.DB) *StaffStore {
	return &StaffStore{db: db}
}

func scanStaff(scanner interface{ Scan(...any) error }) (*model.StaffUser, error) {
	var u model.StaffUser
	err := scanner.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

const staffCols = `id, email, name, password_hash, role, created_at, updated_at`

func (s *StaffStore) Create(email, name, passwordHash, role string) (*model.StaffUser, error) {
	if role == "" {
		role = model.RoleStaff
	}
	result, err := s.db.Exec(
		`INSERT INTO staff_users (email, name, password_hash, role) VALUES (?, ?, ?, ?)`,
		email, name, passwordHash, role,
	)
	if err != nil {
		return nil, fmt.Errorf("insert staff user: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *StaffStore) GetByID(id int64) (*model.StaffUser, error) {
	row := s.db.QueryRow(`SELECT `+staffCols+` FROM staff_users WHERE id = ?`, id)
	u, err := scanStaff(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get staff user: %w", err)
	}
	return u, nil
}

func (s *StaffStore) GetByEmail(email string) (*model.StaffUser, error) {
	row := s.db.QueryRow(`SELECT `+staffCols+` FROM staff_users WHERE email = ?`, email)
	u, err := scanStaff(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get staff user by email: %w", err)
	}
	return u, nil
}
