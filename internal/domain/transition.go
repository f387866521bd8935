package domain

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// MinRejectionReasonLen is the minimum number of characters an NGO must give
// when turning a donation down.
const MinRejectionReasonLen = 10

// Transition is a single compare-and-set step on a donation. Stores apply it
// only when the stored record still matches From and, if already assigned,
// belongs to NGOID.
type Transition struct {
	From            DonationStatus
	To              DonationStatus
	NGOID           string
	RejectionReason string
	CompletedAt     *time.Time
	At              time.Time
}

// Matches reports whether d is still in the state the transition was planned against.
func (t Transition) Matches(d Donation) bool {
	if d.Status != t.From {
		return false
	}
	return d.NGOID == "" || d.NGOID == t.NGOID
}

// Apply mutates d into the post-transition state.
func (t Transition) Apply(d *Donation) {
	d.Status = t.To
	d.NGOID = t.NGOID
	d.UpdatedAt = t.At
	if t.To == DonationStatusRejected {
		d.RejectionReason = t.RejectionReason
	}
	if t.To == DonationStatusCompleted && t.CompletedAt != nil {
		at := *t.CompletedAt
		d.CompletedAt = &at
	}
}

// PlanAccept validates an accept request from ngoID against the current record.
func PlanAccept(d Donation, ngoID string, now time.Time) (Transition, error) {
	if d.Status != DonationStatusPending {
		return Transition{}, fmt.Errorf("%w: cannot accept a %s donation", ErrInvalidTransition, d.Status)
	}
	if PickupExpired(d.Pickup, now) {
		return Transition{}, ErrPickupDatePassed
	}
	return Transition{
		From:  DonationStatusPending,
		To:    DonationStatusAccepted,
		NGOID: ngoID,
		At:    now,
	}, nil
}

// PlanReject validates a reject request; the reason is normalized before it is stored.
func PlanReject(d Donation, ngoID, reason string, now time.Time) (Transition, error) {
	if d.Status != DonationStatusPending {
		return Transition{}, fmt.Errorf("%w: cannot reject a %s donation", ErrInvalidTransition, d.Status)
	}
	reason, err := NormalizeRejectionReason(reason)
	if err != nil {
		return Transition{}, err
	}
	return Transition{
		From:            DonationStatusPending,
		To:              DonationStatusRejected,
		NGOID:           ngoID,
		RejectionReason: reason,
		At:              now,
	}, nil
}

// PlanComplete validates a completion. requested is the client's completion
// time; it is ignored when missing or in the future.
func PlanComplete(d Donation, ngoID string, requested *time.Time, now time.Time) (Transition, error) {
	if d.Status != DonationStatusAccepted {
		return Transition{}, fmt.Errorf("%w: cannot complete a %s donation", ErrInvalidTransition, d.Status)
	}
	if d.NGOID != ngoID {
		return Transition{}, fmt.Errorf("%w: donation is assigned to another NGO", ErrForbidden)
	}
	at := now
	if requested != nil && !requested.IsZero() && !requested.After(now) {
		at = requested.UTC()
	}
	return Transition{
		From:        DonationStatusAccepted,
		To:          DonationStatusCompleted,
		NGOID:       ngoID,
		CompletedAt: &at,
		At:          now,
	}, nil
}

// NormalizeRejectionReason trims and NFC-normalizes reason and enforces the minimum length.
func NormalizeRejectionReason(reason string) (string, error) {
	reason = strings.TrimSpace(norm.NFC.String(reason))
	if n := utf8.RuneCountInString(reason); n < MinRejectionReasonLen {
		return "", fmt.Errorf("%w: rejection reason needs at least %d characters, got %d", ErrValidation, MinRejectionReasonLen, n)
	}
	return reason, nil
}

// PickupExpired reports whether a scheduled pickup falls on a day before now.
// A pickup scheduled for today is still acceptable.
func PickupExpired(p Pickup, now time.Time) bool {
	if p.Option != PickupScheduled || p.Date == nil {
		return false
	}
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	return p.Date.Before(today)
}
