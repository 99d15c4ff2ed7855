package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/mchalk/repset/internal/model"
)

// CampaignStore is the ledger of re-engagement interventions. The schema
// carries a UNIQUE(member_id, tier) constraint, so the one-record-per-tier
// invariant holds even under concurrent batch runs.
type CampaignStore struct {
	db *sql.DB
}

func NewCampaignStore(db *sql.DB) *CampaignStore {
	return &CampaignStore{db: db}
}

func scanCampaign(scanner interface{ Scan(...any) error }) (*model.CampaignRecord, error) {
	var c model.CampaignRecord
	var opened, clicked, converted sql.NullTime
	err := scanner.Scan(
		&c.ID, &c.MemberID, &c.Tier, &c.DaysInactive, &c.SentAt,
		&opened, &clicked, &converted,
	)
	if err != nil {
		return nil, err
	}
	if opened.Valid {
		c.OpenedAt = &opened.Time
	}
	if clicked.Valid {
		c.ClickedAt = &clicked.Time
	}
	if converted.Valid {
		c.ConvertedAt = &converted.Time
	}
	return &c, nil
}

const campaignCols = `id, member_id, tier, days_inactive, sent_at, opened_at, clicked_at, converted_at`

// Upsert records a send for (member, tier). A re-triggered tier refreshes
// sent_at and days_inactive; open/click/convert timestamps are preserved.
func (s *CampaignStore) Upsert(memberID int64, tier model.CampaignTier, daysInactive int, sentAt time.Time) (*model.CampaignRecord, error) {
	_, err := s.db.Exec(
		`INSERT INTO campaign_records (member_id, tier, days_inactive, sent_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(member_id, tier) DO UPDATE SET
		     days_inactive = excluded.days_inactive,
		     sent_at = excluded.sent_at`,
		memberID, tier, daysInactive, sentAt.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("upsert campaign record: %w", err)
	}
	return s.GetByMemberAndTier(memberID, tier)
}

func (s *CampaignStore) GetByID(id int64) (*model.CampaignRecord, error) {
	row := s.db.QueryRow(`SELECT `+campaignCols+` FROM campaign_records WHERE id = ?`, id)
	c, err := scanCampaign(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get campaign record: %w", err)
	}
	return c, nil
}

func (s *CampaignStore) GetByMemberAndTier(memberID int64, tier model.CampaignTier) (*model.CampaignRecord, error) {
	row := s.db.QueryRow(
		`SELECT `+campaignCols+` FROM campaign_records WHERE member_id = ? AND tier = ?`,
		memberID, tier,
	)
	c, err := scanCampaign(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get campaign record by tier: %w", err)
	}
	return c, nil
}

// CurrentTier returns the most severe tier recorded for the member, or
// TierNone if the member has never been targeted. Severity order (rather
// than recency) guarantees the classifier can never downgrade.
func (s *CampaignStore) CurrentTier(memberID int64) (model.CampaignTier, error) {
	rows, err := s.db.Query(`SELECT tier FROM campaign_records WHERE member_id = ?`, memberID)
	if err != nil {
		return model.TierNone, fmt.Errorf("list campaign tiers: %w", err)
	}
	defer rows.Close()

	current := model.TierNone
	for rows.Next() {
		var t model.CampaignTier
		if err := rows.Scan(&t); err != nil {
			return model.TierNone, fmt.Errorf("scan campaign tier: %w", err)
		}
		if t.Severity() > current.Severity() {
			current = t
		}
	}
	return current, rows.Err()
}

func (s *CampaignStore) ListByMember(memberID int64) ([]model.CampaignRecord, error) {
	rows, err := s.db.Query(
		`SELECT `+campaignCols+` FROM campaign_records WHERE member_id = ? ORDER BY sent_at DESC`,
		memberID,
	)
	if err != nil {
		return nil, fmt.Errorf("list campaign records: %w", err)
	}
	defer rows.Close()

	var records []model.CampaignRecord
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, fmt.Errorf("scan campaign record: %w", err)
		}
		records = append(records, *c)
	}
	return records, rows.Err()
}

// MarkOpened stamps the open timestamp. First occurrence wins; later calls
// are no-ops.
func (s *CampaignStore) MarkOpened(id int64, at time.Time) error {
	_, err := s.db.Exec(
		`UPDATE campaign_records SET opened_at = ? WHERE id = ? AND opened_at IS NULL`,
		at.UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("mark opened: %w", err)
	}
	return nil
}

// MarkClicked stamps the click timestamp. First occurrence wins.
func (s *CampaignStore) MarkClicked(id int64, at time.Time) error {
	_, err := s.db.Exec(
		`UPDATE campaign_records SET clicked_at = ? WHERE id = ? AND clicked_at IS NULL`,
		at.UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("mark clicked: %w", err)
	}
	return nil
}

// MarkConverted stamps every unconverted record for the member: a single
// return visit counts as conversion for all pending tiers.
func (s *CampaignStore) MarkConverted(memberID int64, at time.Time) error {
	_, err := s.db.Exec(
		`UPDATE campaign_records SET converted_at = ? WHERE member_id = ? AND converted_at IS NULL`,
		at.UTC(), memberID,
	)
	if err != nil {
		return fmt.Errorf("mark converted: %w", err)
	}
	return nil
}
