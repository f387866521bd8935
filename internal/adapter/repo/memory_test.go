package repo

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"donationhub/internal/domain"
)

func TestMemoryAccountsUniqueEmail(t *testing.T) {
	store := NewMemoryStore().Store()
	ctx := context.Background()

	first := &domain.Account{Kind: domain.AccountKindDonor, Email: "Ana@Example.com", FirstName: "Ana"}
	require.NoError(t, store.Accounts.Create(ctx, first))
	assert.Equal(t, "ana@example.com", first.Email)

	dup := &domain.Account{Kind: domain.AccountKindNGO, Email: "ana@example.COM", Name: "Shelter"}
	assert.ErrorIs(t, store.Accounts.Create(ctx, dup), domain.ErrDuplicateEmail)

	got, err := store.Accounts.GetByEmail(ctx, " ANA@example.com")
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)
	assert.Equal(t, domain.AccountKindDonor, got.Kind)
}

func TestMemoryReturnsCopies(t *testing.T) {
	store := NewMemoryStore().Store()
	ctx := context.Background()

	d := &domain.Donation{DonorID: "donor-1", Items: []domain.DonationItem{{Name: "Rice", Quantity: 5}}}
	require.NoError(t, store.Donations.Create(ctx, d))

	got, err := store.Donations.GetByID(ctx, d.ID)
	require.NoError(t, err)
	got.Items[0].Name = "changed"

	again, err := store.Donations.GetByID(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, "Rice", again.Items[0].Name)
}

func TestMemoryListFilters(t *testing.T) {
	m := NewMemoryStore()
	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	m.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}
	store := m.Store()
	ctx := context.Background()

	create := func(donor string) string {
		d := &domain.Donation{DonorID: donor}
		require.NoError(t, store.Donations.Create(ctx, d))
		return d.ID
	}
	open := create("donor-1")
	mine := create("donor-1")
	theirs := create("donor-2")

	_, err := store.Donations.ApplyTransition(ctx, mine, domain.Transition{
		From: domain.DonationStatusPending, To: domain.DonationStatusAccepted, NGOID: "ngo-a", At: base,
	})
	require.NoError(t, err)
	_, err = store.Donations.ApplyTransition(ctx, theirs, domain.Transition{
		From: domain.DonationStatusPending, To: domain.DonationStatusAccepted, NGOID: "ngo-b", At: base,
	})
	require.NoError(t, err)

	ids := func(items []domain.Donation) []string {
		var out []string
		for _, d := range items {
			out = append(out, d.ID)
		}
		return out
	}

	withOpen, err := store.Donations.List(ctx, domain.DonationFilter{NGOID: "ngo-a", IncludeOpen: true})
	require.NoError(t, err)
	if diff := cmp.Diff([]string{mine, open}, ids(withOpen)); diff != "" {
		t.Fatalf("ngo list with open pool mismatch (-want +got):\n%s", diff)
	}

	assigned, err := store.Donations.List(ctx, domain.DonationFilter{NGOID: "ngo-a"})
	require.NoError(t, err)
	assert.Equal(t, []string{mine}, ids(assigned))

	donor, err := store.Donations.List(ctx, domain.DonationFilter{DonorID: "donor-1", Status: domain.DonationStatusPending})
	require.NoError(t, err)
	assert.Equal(t, []string{open}, ids(donor))
}

func TestMemoryConcurrentAcceptHasOneWinner(t *testing.T) {
	store := NewMemoryStore().Store()
	ctx := context.Background()
	d := &domain.Donation{DonorID: "donor-1"}
	require.NoError(t, store.Donations.Create(ctx, d))

	const contenders = 16
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		winners []string
		losses  int
	)
	for i := 0; i < contenders; i++ {
		ngo := string(rune('a'+i)) + "-ngo"
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.Donations.ApplyTransition(ctx, d.ID, domain.Transition{
				From: domain.DonationStatusPending, To: domain.DonationStatusAccepted, NGOID: ngo, At: time.Now(),
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				winners = append(winners, ngo)
			case errors.Is(err, domain.ErrInvalidTransition):
				losses++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	require.Len(t, winners, 1)
	assert.Equal(t, contenders-1, losses)

	got, err := store.Donations.GetByID(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, winners[0], got.NGOID)
	assert.Equal(t, domain.DonationStatusAccepted, got.Status)
}
