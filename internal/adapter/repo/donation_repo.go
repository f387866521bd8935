package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"donationhub/internal/domain"
	"donationhub/internal/infra"
	"donationhub/internal/sqlinline"
)

// DonationRepositoryPG implements domain.DonationRepository using PostgreSQL.
type DonationRepositoryPG struct {
	sql infra.SQLExecutor
}

// NewDonationRepository creates a new donation repo.
func NewDonationRepository(sql infra.SQLExecutor) *DonationRepositoryPG {
	return &DonationRepositoryPG{sql: sql}
}

// Create inserts a new Pending donation.
func (r *DonationRepositoryPG) Create(ctx context.Context, donation *domain.Donation) error {
	if donation.ID == "" {
		donation.ID = uuid.NewString()
	}
	items, err := json.Marshal(toItemDocs(donation.Items))
	if err != nil {
		return fmt.Errorf("encode items: %w", err)
	}
	donation.Status = domain.DonationStatusPending
	row := r.sql.QueryRow(ctx, sqlinline.QInsertDonation,
		donation.ID,
		donation.DonorID,
		items,
		donation.PickupAddress,
		string(donation.Pickup.Option),
		donation.Pickup.Date,
		donation.Pickup.Time,
		donation.Notes,
	)
	if err := row.Scan(&donation.CreatedAt, &donation.UpdatedAt); err != nil {
		return fmt.Errorf("insert donation: %w", err)
	}
	return nil
}

// GetByID fetches one donation.
func (r *DonationRepositoryPG) GetByID(ctx context.Context, id string) (*domain.Donation, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrNotFound
	}
	d, err := scanDonation(r.sql.QueryRow(ctx, sqlinline.QSelectDonationByID, id))
	if err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return d, nil
}

// List returns donations matching filter, newest first.
func (r *DonationRepositoryPG) List(ctx context.Context, filter domain.DonationFilter) ([]domain.Donation, error) {
	for _, id := range []string{filter.DonorID, filter.NGOID} {
		if id == "" {
			continue
		}
		if _, err := uuid.Parse(id); err != nil {
			return nil, domain.ErrNotFound
		}
	}
	rows, err := r.sql.Query(ctx, sqlinline.QListDonations,
		filter.DonorID,
		filter.NGOID,
		filter.IncludeOpen,
		string(filter.Status),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.Donation
	for rows.Next() {
		d, err := scanDonation(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// ApplyTransition runs the compare-and-set update. No returned row means the
// record moved on (or never existed) and is reported as ErrInvalidTransition.
func (r *DonationRepositoryPG) ApplyTransition(ctx context.Context, id string, t domain.Transition) (*domain.Donation, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrNotFound
	}
	if _, err := uuid.Parse(t.NGOID); err != nil {
		return nil, fmt.Errorf("%w: ngo id must be a UUID", domain.ErrValidation)
	}
	var reason *string
	if t.To == domain.DonationStatusRejected {
		reason = optionalString(t.RejectionReason)
	}
	row := r.sql.QueryRow(ctx, sqlinline.QTransitionDonation,
		id,
		string(t.From),
		string(t.To),
		t.NGOID,
		reason,
		t.CompletedAt,
		t.At,
	)
	d, err := scanDonation(row)
	if err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrInvalidTransition
		}
		return nil, fmt.Errorf("transition donation: %w", err)
	}
	return d, nil
}

func scanDonation(row pgx.Row) (*domain.Donation, error) {
	var (
		d            domain.Donation
		ngoID        *string
		items        []byte
		pickupOption string
		status       string
		reason       *string
	)
	if err := row.Scan(
		&d.ID, &d.DonorID, &ngoID, &items, &d.PickupAddress,
		&pickupOption, &d.Pickup.Date, &d.Pickup.Time, &d.Notes,
		&status, &reason, &d.CompletedAt, &d.CreatedAt, &d.UpdatedAt,
	); err != nil {
		return nil, err
	}
	d.NGOID = derefString(ngoID)
	d.Pickup.Option = domain.PickupOption(pickupOption)
	d.Status = domain.DonationStatus(status)
	d.RejectionReason = derefString(reason)
	if d.Pickup.Date != nil {
		day := time.Date(d.Pickup.Date.Year(), d.Pickup.Date.Month(), d.Pickup.Date.Day(), 0, 0, 0, 0, time.UTC)
		d.Pickup.Date = &day
	}
	var docs []itemDoc
	if len(items) > 0 {
		if err := json.Unmarshal(items, &docs); err != nil {
			return nil, fmt.Errorf("decode items: %w", err)
		}
	}
	d.Items = fromItemDocs(docs)
	return &d, nil
}

var _ domain.DonationRepository = (*DonationRepositoryPG)(nil)
