package donations

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"donationhub/internal/domain"
)

// Actor is the authenticated account performing an operation.
type Actor struct {
	ID   string
	Kind domain.AccountKind
}

// Service owns donation records and their status lifecycle.
type Service struct {
	donations domain.DonationRepository
	logger    zerolog.Logger
	now       func() time.Time
}

func NewService(donations domain.DonationRepository, logger zerolog.Logger) *Service {
	return &Service{
		donations: donations,
		logger:    logger.With().Str("component", "donations").Logger(),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// NewDonation is what a donor submits.
type NewDonation struct {
	Items         []domain.DonationItem
	PickupAddress string
	Pickup        domain.Pickup
	Notes         string
}

// Create stores a Pending donation owned by the acting donor.
func (s *Service) Create(ctx context.Context, actor Actor, in NewDonation) (*domain.Donation, error) {
	if actor.Kind != domain.AccountKindDonor {
		return nil, fmt.Errorf("%w: only donors can create donations", domain.ErrForbidden)
	}
	if err := s.validate(&in); err != nil {
		return nil, err
	}
	d := &domain.Donation{
		DonorID:       actor.ID,
		Items:         in.Items,
		PickupAddress: in.PickupAddress,
		Pickup:        in.Pickup,
		Notes:         in.Notes,
	}
	if err := s.donations.Create(ctx, d); err != nil {
		return nil, err
	}
	s.logger.Info().Str("donation_id", d.ID).Str("donor_id", actor.ID).Int("items", len(d.Items)).Msg("donation created")
	return d, nil
}

func (s *Service) validate(in *NewDonation) error {
	if len(in.Items) == 0 {
		return fmt.Errorf("%w: at least one item is required", domain.ErrValidation)
	}
	for i := range in.Items {
		it := &in.Items[i]
		it.Name = strings.TrimSpace(it.Name)
		it.Description = strings.TrimSpace(it.Description)
		if it.Name == "" {
			return fmt.Errorf("%w: item %d needs a name", domain.ErrValidation, i+1)
		}
		if it.Quantity < 1 {
			return fmt.Errorf("%w: item %d needs a positive quantity", domain.ErrValidation, i+1)
		}
	}
	in.PickupAddress = strings.TrimSpace(in.PickupAddress)
	if in.PickupAddress == "" {
		return fmt.Errorf("%w: pickup address is required", domain.ErrValidation)
	}
	in.Notes = strings.TrimSpace(in.Notes)
	in.Pickup.Time = strings.TrimSpace(in.Pickup.Time)

	switch in.Pickup.Option {
	case domain.PickupASAP:
		in.Pickup.Date = nil
		in.Pickup.Time = ""
	case domain.PickupScheduled:
		if in.Pickup.Date == nil {
			return fmt.Errorf("%w: scheduled pickup needs a date", domain.ErrValidation)
		}
		y, m, d := in.Pickup.Date.Date()
		day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
		in.Pickup.Date = &day
		if domain.PickupExpired(in.Pickup, s.now()) {
			return domain.ErrPickupDatePassed
		}
	default:
		return fmt.Errorf("%w: pickup option must be asap or scheduled", domain.ErrValidation)
	}
	return nil
}

// Get returns a donation to its donor or to any NGO.
func (s *Service) Get(ctx context.Context, actor Actor, id string) (*domain.Donation, error) {
	d, err := s.donations.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.Kind == domain.AccountKindNGO || d.DonorID == actor.ID {
		return d, nil
	}
	// Donors cannot learn whether other donors' ids exist.
	return nil, domain.ErrNotFound
}

// ListForDonor returns the donor's own donations, newest first.
func (s *Service) ListForDonor(ctx context.Context, actor Actor, donorID string) ([]domain.Donation, error) {
	if actor.Kind != domain.AccountKindDonor || actor.ID != donorID {
		return nil, domain.ErrForbidden
	}
	return s.donations.List(ctx, domain.DonationFilter{DonorID: donorID})
}

// ListForNGO returns the open Pending pool plus everything the NGO acted on.
func (s *Service) ListForNGO(ctx context.Context, actor Actor, ngoID string) ([]domain.Donation, error) {
	if actor.Kind != domain.AccountKindNGO || actor.ID != ngoID {
		return nil, domain.ErrForbidden
	}
	return s.donations.List(ctx, domain.DonationFilter{NGOID: ngoID, IncludeOpen: true})
}

// Summary is the dashboard view for one account.
type Summary struct {
	Kind    domain.AccountKind     `json:"kind"`
	Buckets domain.DonationBuckets `json:"buckets"`
	// Active is Pending plus Accepted, the donor's in-progress tab.
	Active int `json:"active"`
	Total  int `json:"total"`
}

// Dashboard counts the actor's donations per status. For NGOs the Pending
// bucket is the open pool they can still accept.
func (s *Service) Dashboard(ctx context.Context, actor Actor) (*Summary, error) {
	var (
		items []domain.Donation
		err   error
	)
	switch actor.Kind {
	case domain.AccountKindDonor:
		items, err = s.ListForDonor(ctx, actor, actor.ID)
	case domain.AccountKindNGO:
		items, err = s.ListForNGO(ctx, actor, actor.ID)
	default:
		return nil, domain.ErrForbidden
	}
	if err != nil {
		return nil, err
	}
	sum := &Summary{Kind: actor.Kind, Total: len(items)}
	for _, d := range items {
		sum.Buckets.Add(d.Status)
	}
	sum.Active = sum.Buckets.Pending + sum.Buckets.Accepted
	return sum, nil
}

func (s *Service) Accept(ctx context.Context, actor Actor, id string) (*domain.Donation, error) {
	return s.transition(ctx, actor, id, func(d domain.Donation, now time.Time) (domain.Transition, error) {
		return domain.PlanAccept(d, actor.ID, now)
	})
}

func (s *Service) Reject(ctx context.Context, actor Actor, id, reason string) (*domain.Donation, error) {
	return s.transition(ctx, actor, id, func(d domain.Donation, now time.Time) (domain.Transition, error) {
		return domain.PlanReject(d, actor.ID, reason, now)
	})
}

// Complete closes an accepted donation. completedAt is the client's pickup
// time and may be nil.
func (s *Service) Complete(ctx context.Context, actor Actor, id string, completedAt *time.Time) (*domain.Donation, error) {
	return s.transition(ctx, actor, id, func(d domain.Donation, now time.Time) (domain.Transition, error) {
		return domain.PlanComplete(d, actor.ID, completedAt, now)
	})
}

// ChangeStatus dispatches a status update request to the matching transition.
func (s *Service) ChangeStatus(ctx context.Context, actor Actor, id string, status domain.DonationStatus, reason string, completedAt *time.Time) (*domain.Donation, error) {
	switch status {
	case domain.DonationStatusAccepted:
		return s.Accept(ctx, actor, id)
	case domain.DonationStatusRejected:
		return s.Reject(ctx, actor, id, reason)
	case domain.DonationStatusCompleted:
		return s.Complete(ctx, actor, id, completedAt)
	case domain.DonationStatusPending:
		return nil, fmt.Errorf("%w: donations cannot return to Pending", domain.ErrInvalidTransition)
	}
	return nil, fmt.Errorf("%w: unknown status %q", domain.ErrValidation, status)
}

type planFunc func(d domain.Donation, now time.Time) (domain.Transition, error)

// transition plans against the current record and applies the plan as a
// conditional update. If another writer got there first the record is read
// again so the caller gets the error for the state that actually won.
func (s *Service) transition(ctx context.Context, actor Actor, id string, plan planFunc) (*domain.Donation, error) {
	if actor.Kind != domain.AccountKindNGO {
		return nil, fmt.Errorf("%w: only NGOs can change donation status", domain.ErrForbidden)
	}

	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		current, err := s.donations.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		t, err := plan(*current, s.now())
		if err != nil {
			return nil, err
		}
		updated, err := s.donations.ApplyTransition(ctx, id, t)
		if err == nil {
			s.logger.Info().
				Str("donation_id", id).
				Str("ngo_id", actor.ID).
				Str("from", string(t.From)).
				Str("to", string(t.To)).
				Msg("donation status changed")
			return updated, nil
		}
		if !errors.Is(err, domain.ErrInvalidTransition) {
			return nil, err
		}
		lastErr = err
		s.logger.Debug().Str("donation_id", id).Str("ngo_id", actor.ID).Msg("transition lost a race, re-reading")
	}
	return nil, lastErr
}
