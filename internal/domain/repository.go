package domain

import "context"

// AccountRepository stores donor and NGO accounts in one keyspace with a
// unique email.
type AccountRepository interface {
	Create(ctx context.Context, account *Account) error
	GetByID(ctx context.Context, id string) (*Account, error)
	GetByEmail(ctx context.Context, email string) (*Account, error)
	UpdatePasswordHash(ctx context.Context, id, hash string) error
}

// DonationFilter selects donations for a dashboard. Zero fields do not filter.
type DonationFilter struct {
	DonorID string
	// NGOID returns donations assigned to the NGO; with IncludeOpen it also
	// returns every unassigned Pending donation.
	NGOID       string
	IncludeOpen bool
	Status      DonationStatus
}

// DonationRepository persists donations. ApplyTransition is a conditional
// update: when no stored record matches t it returns ErrInvalidTransition and
// leaves classification to the caller. Malformed ids yield ErrNotFound.
type DonationRepository interface {
	Create(ctx context.Context, donation *Donation) error
	GetByID(ctx context.Context, id string) (*Donation, error)
	List(ctx context.Context, filter DonationFilter) ([]Donation, error)
	ApplyTransition(ctx context.Context, id string, t Transition) (*Donation, error)
}

// Store bundles the repositories of one storage driver.
type Store struct {
	Accounts  AccountRepository
	Donations DonationRepository
	Ping      func(ctx context.Context) error
	Close     func(ctx context.Context) error
}
