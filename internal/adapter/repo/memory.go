package repo

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"donationhub/internal/domain"
)

// MemoryStore is an in-process store for local runs and tests. Records are
// copied on the way in and out so callers never share state with the map.
type MemoryStore struct {
	mu        sync.Mutex
	accounts  map[string]domain.Account
	emails    map[string]string
	donations map[string]domain.Donation
	now       func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		accounts:  make(map[string]domain.Account),
		emails:    make(map[string]string),
		donations: make(map[string]domain.Donation),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Store exposes the memory repositories through the driver-neutral bundle.
func (m *MemoryStore) Store() *domain.Store {
	return &domain.Store{
		Accounts:  memoryAccounts{m},
		Donations: memoryDonations{m},
		Ping:      func(context.Context) error { return nil },
		Close:     func(context.Context) error { return nil },
	}
}

type memoryAccounts struct{ m *MemoryStore }

func (r memoryAccounts) Create(_ context.Context, account *domain.Account) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	email := domain.NormalizeEmail(account.Email)
	if _, taken := r.m.emails[email]; taken {
		return domain.ErrDuplicateEmail
	}
	if account.ID == "" {
		account.ID = uuid.NewString()
	}
	now := r.m.now()
	account.Email = email
	account.CreatedAt = now
	account.UpdatedAt = now
	r.m.accounts[account.ID] = cloneAccount(*account)
	r.m.emails[email] = account.ID
	return nil
}

func (r memoryAccounts) GetByID(_ context.Context, id string) (*domain.Account, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	a, ok := r.m.accounts[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := cloneAccount(a)
	return &out, nil
}

func (r memoryAccounts) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	r.m.mu.Lock()
	id, ok := r.m.emails[domain.NormalizeEmail(email)]
	r.m.mu.Unlock()
	if !ok {
		return nil, domain.ErrNotFound
	}
	return r.GetByID(ctx, id)
}

func (r memoryAccounts) UpdatePasswordHash(_ context.Context, id, hash string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	a, ok := r.m.accounts[id]
	if !ok {
		return domain.ErrNotFound
	}
	a.PasswordHash = hash
	a.UpdatedAt = r.m.now()
	r.m.accounts[id] = a
	return nil
}

type memoryDonations struct{ m *MemoryStore }

func (r memoryDonations) Create(_ context.Context, donation *domain.Donation) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if donation.ID == "" {
		donation.ID = uuid.NewString()
	}
	now := r.m.now()
	donation.Status = domain.DonationStatusPending
	donation.NGOID = ""
	donation.RejectionReason = ""
	donation.CompletedAt = nil
	donation.CreatedAt = now
	donation.UpdatedAt = now
	r.m.donations[donation.ID] = cloneDonation(*donation)
	return nil
}

func (r memoryDonations) GetByID(_ context.Context, id string) (*domain.Donation, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	d, ok := r.m.donations[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := cloneDonation(d)
	return &out, nil
}

func (r memoryDonations) List(_ context.Context, f domain.DonationFilter) ([]domain.Donation, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	var out []domain.Donation
	for _, d := range r.m.donations {
		if matchesFilter(d, f) {
			out = append(out, cloneDonation(d))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r memoryDonations) ApplyTransition(_ context.Context, id string, t domain.Transition) (*domain.Donation, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	d, ok := r.m.donations[id]
	if !ok || !t.Matches(d) {
		return nil, domain.ErrInvalidTransition
	}
	t.Apply(&d)
	r.m.donations[id] = d
	out := cloneDonation(d)
	return &out, nil
}

func matchesFilter(d domain.Donation, f domain.DonationFilter) bool {
	if f.DonorID != "" && d.DonorID != f.DonorID {
		return false
	}
	if f.NGOID != "" && d.NGOID != f.NGOID {
		open := f.IncludeOpen && d.NGOID == "" && d.Status == domain.DonationStatusPending
		if !open {
			return false
		}
	}
	if f.Status != "" && d.Status != f.Status {
		return false
	}
	return true
}

func cloneAccount(a domain.Account) domain.Account {
	a.ItemsAccepted = append([]string(nil), a.ItemsAccepted...)
	return a
}

func cloneDonation(d domain.Donation) domain.Donation {
	items := make([]domain.DonationItem, len(d.Items))
	for i, it := range d.Items {
		it.Images = append([]domain.ItemImage(nil), it.Images...)
		items[i] = it
	}
	d.Items = items
	if d.Pickup.Date != nil {
		day := *d.Pickup.Date
		d.Pickup.Date = &day
	}
	if d.CompletedAt != nil {
		at := *d.CompletedAt
		d.CompletedAt = &at
	}
	return d
}
