package domain

import (
	"errors"
	"strings"
	"testing"
	"time"
)

var testNow = time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC)

func dayOffset(days int) *time.Time {
	d := time.Date(2025, 3, 10+days, 0, 0, 0, 0, time.UTC)
	return &d
}

func TestTransitionsFollowAllowedEdges(t *testing.T) {
	const ngo = "ngo-1"
	reason := "items are damaged beyond use"

	tests := []struct {
		from   DonationStatus
		action string
		want   error
	}{
		{DonationStatusPending, "accept", nil},
		{DonationStatusPending, "reject", nil},
		{DonationStatusPending, "complete", ErrInvalidTransition},
		{DonationStatusAccepted, "accept", ErrInvalidTransition},
		{DonationStatusAccepted, "reject", ErrInvalidTransition},
		{DonationStatusAccepted, "complete", nil},
		{DonationStatusRejected, "accept", ErrInvalidTransition},
		{DonationStatusRejected, "reject", ErrInvalidTransition},
		{DonationStatusRejected, "complete", ErrInvalidTransition},
		{DonationStatusCompleted, "accept", ErrInvalidTransition},
		{DonationStatusCompleted, "reject", ErrInvalidTransition},
		{DonationStatusCompleted, "complete", ErrInvalidTransition},
	}

	for _, tc := range tests {
		t.Run(string(tc.from)+"/"+tc.action, func(t *testing.T) {
			d := Donation{ID: "d1", Status: tc.from}
			if tc.from != DonationStatusPending {
				d.NGOID = ngo
			}
			var (
				tr  Transition
				err error
			)
			switch tc.action {
			case "accept":
				tr, err = PlanAccept(d, ngo, testNow)
			case "reject":
				tr, err = PlanReject(d, ngo, reason, testNow)
			case "complete":
				tr, err = PlanComplete(d, ngo, nil, testNow)
			}
			if tc.want != nil {
				if !errors.Is(err, tc.want) {
					t.Fatalf("err = %v, want %v", err, tc.want)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tr.Matches(d) {
				t.Fatalf("planned transition does not match its source record")
			}
			tr.Apply(&d)
			if d.NGOID != ngo {
				t.Fatalf("NGOID = %q, want %q", d.NGOID, ngo)
			}
			if d.Status.Terminal() && tc.action == "accept" {
				t.Fatalf("accept produced terminal status %s", d.Status)
			}
		})
	}
}

func TestCompleteOnPendingIsInvalid(t *testing.T) {
	_, err := PlanComplete(Donation{Status: DonationStatusPending}, "ngo-1", nil, testNow)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestCompleteByOtherNGOIsForbidden(t *testing.T) {
	d := Donation{Status: DonationStatusAccepted, NGOID: "ngo-1"}
	_, err := PlanComplete(d, "ngo-2", nil, testNow)
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestCompleteRecordsCompletionTime(t *testing.T) {
	d := Donation{Status: DonationStatusAccepted, NGOID: "ngo-1"}

	tr, err := PlanComplete(d, "ngo-1", nil, testNow)
	if err != nil {
		t.Fatalf("PlanComplete: %v", err)
	}
	tr.Apply(&d)
	if d.CompletedAt == nil || !d.CompletedAt.Equal(testNow) {
		t.Fatalf("CompletedAt = %v, want %v", d.CompletedAt, testNow)
	}

	earlier := testNow.Add(-2 * time.Hour)
	d = Donation{Status: DonationStatusAccepted, NGOID: "ngo-1"}
	tr, _ = PlanComplete(d, "ngo-1", &earlier, testNow)
	tr.Apply(&d)
	if !d.CompletedAt.Equal(earlier) {
		t.Fatalf("client completion time not kept: %v", d.CompletedAt)
	}

	future := testNow.Add(48 * time.Hour)
	d = Donation{Status: DonationStatusAccepted, NGOID: "ngo-1"}
	tr, _ = PlanComplete(d, "ngo-1", &future, testNow)
	tr.Apply(&d)
	if !d.CompletedAt.Equal(testNow) {
		t.Fatalf("future completion time should fall back to now, got %v", d.CompletedAt)
	}
}

// The web client required ten characters before enabling the reject button but
// the old API stored whatever arrived. The server now enforces it too.
func TestRejectRequiresReasonServerSide(t *testing.T) {
	d := Donation{Status: DonationStatusPending}
	for _, reason := range []string{"", "   ", "too short", "  short   "} {
		if _, err := PlanReject(d, "ngo-1", reason, testNow); !errors.Is(err, ErrValidation) {
			t.Fatalf("reason %q: expected ErrValidation, got %v", reason, err)
		}
	}

	tr, err := PlanReject(d, "ngo-1", "  not needed this month  ", testNow)
	if err != nil {
		t.Fatalf("PlanReject: %v", err)
	}
	tr.Apply(&d)
	if d.RejectionReason != "not needed this month" {
		t.Fatalf("reason not trimmed: %q", d.RejectionReason)
	}
	if d.Status != DonationStatusRejected {
		t.Fatalf("status = %s", d.Status)
	}
}

func TestRejectReasonCountsCharactersNotBytes(t *testing.T) {
	// nine runes, eighteen bytes
	if _, err := NormalizeRejectionReason(strings.Repeat("\u00e9", 9)); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for 9 characters, got %v", err)
	}
	got, err := NormalizeRejectionReason(strings.Repeat("e\u0301", 10))
	if err != nil {
		t.Fatalf("NormalizeRejectionReason: %v", err)
	}
	if got != strings.Repeat("\u00e9", 10) {
		t.Fatalf("reason not composed: %q", got)
	}
}

func TestAcceptRefusesPastScheduledPickup(t *testing.T) {
	yesterday := Donation{Status: DonationStatusPending, Pickup: Pickup{Option: PickupScheduled, Date: dayOffset(-1)}}
	if _, err := PlanAccept(yesterday, "ngo-1", testNow); !errors.Is(err, ErrPickupDatePassed) {
		t.Fatalf("expected ErrPickupDatePassed, got %v", err)
	}

	today := Donation{Status: DonationStatusPending, Pickup: Pickup{Option: PickupScheduled, Date: dayOffset(0)}}
	if _, err := PlanAccept(today, "ngo-1", testNow); err != nil {
		t.Fatalf("pickup today should be acceptable: %v", err)
	}

	asap := Donation{Status: DonationStatusPending, Pickup: Pickup{Option: PickupASAP}}
	if _, err := PlanAccept(asap, "ngo-1", testNow); err != nil {
		t.Fatalf("asap pickup should be acceptable: %v", err)
	}
}

func TestTransitionMatchesOnlyUnassignedOrOwner(t *testing.T) {
	tr := Transition{From: DonationStatusAccepted, To: DonationStatusCompleted, NGOID: "ngo-1"}
	if !tr.Matches(Donation{Status: DonationStatusAccepted, NGOID: "ngo-1"}) {
		t.Fatal("owner should match")
	}
	if tr.Matches(Donation{Status: DonationStatusAccepted, NGOID: "ngo-2"}) {
		t.Fatal("other NGO should not match")
	}
	if tr.Matches(Donation{Status: DonationStatusCompleted, NGOID: "ngo-1"}) {
		t.Fatal("stale status should not match")
	}
}

func TestNormalizeEmail(t *testing.T) {
	if got := NormalizeEmail("  Donor@Example.ORG "); got != "donor@example.org" {
		t.Fatalf("NormalizeEmail = %q", got)
	}
}

func TestDisplayNameByKind(t *testing.T) {
	donor := Account{Kind: AccountKindDonor, FirstName: "Asha", LastName: "Rao"}
	ngo := Account{Kind: AccountKindNGO, Name: "Food Bank"}
	if donor.DisplayName() != "Asha" || donor.FullName() != "Asha Rao" {
		t.Fatalf("donor names: %q %q", donor.DisplayName(), donor.FullName())
	}
	if ngo.DisplayName() != "Food Bank" {
		t.Fatalf("ngo name: %q", ngo.DisplayName())
	}
}
