package store

import (
	"database/sql"
	"fmt"

	"github.com/mchalk/repset/internal/model"
)

type MemberStore struct {
	db *sql.DB
}

func NewMemberStore(db *sql.DB) *MemberStore {
	return &MemberStore{db: db}
}

func scanMember(scanner interface{ Scan(...any) error }) (*model.Member, error) {
	var m model.Member
	err := scanner.Scan(
		&m.ID, &m.Name, &m.Email, &m.MembershipStatus, &m.MembershipTier,
		&m.StripeCustomerID, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

const memberCols = `id, name, email, membership_status, membership_tier, stripe_customer_id, created_at, updated_at`

func (s *MemberStore) Create(name, email, tier string) (*model.Member, error) {
	if tier == "" {
		tier = model.TierBasic
	}
	result, err := s.db.Exec(
		`INSERT INTO members (name, email, membership_tier) VALUES (?, ?, ?)`,
		name, email, tier,
	)
	if err != nil {
		return nil, fmt.Errorf("insert member: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *MemberStore) GetByID(id int64) (*model.Member, error) {
	row := s.db.QueryRow(`SELECT `+memberCols+` FROM members WHERE id = ?`, id)
	m, err := scanMember(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get member: %w", err)
	}
	return m, nil
}

func (s *MemberStore) GetByEmail(email string) (*model.Member, error) {
	row := s.db.QueryRow(`SELECT `+memberCols+` FROM members WHERE email = ?`, email)
	m, err := scanMember(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get member by email: %w", err)
	}
	return m, nil
}

func (s *MemberStore) GetByStripeCustomer(customerID string) (*model.Member, error) {
	if customerID == "" {
		return nil, nil
	}
	row := s.db.QueryRow(`SELECT `+memberCols+` FROM members WHERE stripe_customer_id = ?`, customerID)
	m, err := scanMember(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get member by stripe customer: %w", err)
	}
	return m, nil
}

func (s *MemberStore) List() ([]model.Member, error) {
	rows, err := s.db.Query(`SELECT ` + memberCols + ` FROM members ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()
	return collectMembers(rows)
}

// ListActive returns members whose membership is currently active. These are
// the members the retention batch processes.
func (s *MemberStore) ListActive() ([]model.Member, error) {
	rows, err := s.db.Query(
		`SELECT `+memberCols+` FROM members WHERE membership_status = ? ORDER BY id ASC`,
		model.MembershipActive,
	)
	if err != nil {
		return nil, fmt.Errorf("list active members: %w", err)
	}
	defer rows.Close()
	return collectMembers(rows)
}

func collectMembers(rows *sql.Rows) ([]model.Member, error) {
	var members []model.Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		members = append(members, *m)
	}
	return members, rows.Err()
}

func (s *MemberStore) Update(id int64, name, email string) (*model.Member, error) {
	_, err := s.db.Exec(
		`UPDATE members SET name = ?, email = ?, updated_at = datetime('now') WHERE id = ?`,
		name, email, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update member: %w", err)
	}
	return s.GetByID(id)
}

// SetMembership updates the membership status and tier, normally from the
// billing webhook.
func (s *MemberStore) SetMembership(id int64, status, tier string) error {
	_, err := s.db.Exec(
		`UPDATE members SET membership_status = ?, membership_tier = ?, updated_at = datetime('now') WHERE id = ?`,
		status, tier, id,
	)
	if err != nil {
		return fmt.Errorf("set membership: %w", err)
	}
	return nil
}

// LinkStripeCustomer associates a Stripe customer id with a member.
func (s *MemberStore) LinkStripeCustomer(id int64, customerID string) error {
	_, err := s.db.Exec(
		`UPDATE members SET stripe_customer_id = ?, updated_at = datetime('now') WHERE id = ?`,
		customerID, id,
	)
	if err != nil {
		return fmt.Errorf("link stripe customer: %w", err)
	}
	return nil
}

func (s *MemberStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM members WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete member: %w", err)
	}
	return nil
}
