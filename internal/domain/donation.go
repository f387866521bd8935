package domain

import "time"

// DonationStatus is the lifecycle stage of a donation record.
type DonationStatus string

const (
	DonationStatusPending   DonationStatus = "Pending"
	DonationStatusAccepted  DonationStatus = "Accepted"
	DonationStatusRejected  DonationStatus = "Rejected"
	DonationStatusCompleted DonationStatus = "Completed"
)

// Valid reports whether s is one of the four known statuses.
func (s DonationStatus) Valid() bool {
	switch s {
	case DonationStatusPending, DonationStatusAccepted, DonationStatusRejected, DonationStatusCompleted:
		return true
	}
	return false
}

// Terminal reports whether no transition leaves s.
func (s DonationStatus) Terminal() bool {
	return s == DonationStatusRejected || s == DonationStatusCompleted
}

// PickupOption tells the NGO when the items can be collected.
type PickupOption string

const (
	PickupASAP      PickupOption = "asap"
	PickupScheduled PickupOption = "scheduled"
)

// Pickup describes when the donor expects collection. Date is only set for
// scheduled pickups and holds a calendar day at UTC midnight; Time is the
// free-form slot the donor typed ("14:30", "afternoon").
type Pickup struct {
	Option PickupOption
	Date   *time.Time
	Time   string
}

// ItemImage is an uploaded photo of a donated item.
type ItemImage struct {
	URL      string
	Analysis string
}

// DonationItem is one line of a donation.
type DonationItem struct {
	Name        string
	Quantity    int
	Description string
	Images      []ItemImage
}

// Donation is owned by exactly one donor and, once an NGO acts on it, assigned
// to that NGO.
type Donation struct {
	ID              string
	DonorID         string
	NGOID           string
	Items           []DonationItem
	PickupAddress   string
	Pickup          Pickup
	Notes           string
	Status          DonationStatus
	RejectionReason string
	CompletedAt     *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// DonationBuckets counts donations per dashboard tab.
type DonationBuckets struct {
	Pending   int `json:"pending"`
	Accepted  int `json:"accepted"`
	Rejected  int `json:"rejected"`
	Completed int `json:"completed"`
}

// Add counts one donation in its status bucket.
func (b *DonationBuckets) Add(status DonationStatus) {
	switch status {
	case DonationStatusPending:
		b.Pending++
	case DonationStatusAccepted:
		b.Accepted++
	case DonationStatusRejected:
		b.Rejected++
	case DonationStatusCompleted:
		b.Completed++
	}
}
