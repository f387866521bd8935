package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"donationhub/internal/domain"
	"donationhub/internal/donations"
	"donationhub/internal/geo"
	"donationhub/internal/middleware"
)

type imageDTO struct {
	URL      string `json:"url"`
	Analysis string `json:"analysis,omitempty"`
}

type itemDTO struct {
	ItemName    string     `json:"itemName"`
	Quantity    int        `json:"quantity"`
	Description string     `json:"description,omitempty"`
	Images      []imageDTO `json:"images,omitempty"`
}

type donationRequest struct {
	Items         []itemDTO `json:"items"`
	PickupAddress string    `json:"pickupAddress"`
	PickupOption  string    `json:"pickupOption"`
	PickupDate    string    `json:"pickupDate"`
	PickupTime    string    `json:"pickupTime"`
	Notes         string    `json:"notes"`
}

type statusRequest struct {
	Status          domain.DonationStatus `json:"status"`
	RejectionReason string                `json:"rejectionReason"`
	CompletedDate   string                `json:"completedDate"`
}

type donationDTO struct {
	ID              string                `json:"id"`
	User            string                `json:"user"`
	NGO             string                `json:"ngo,omitempty"`
	Items           []itemDTO             `json:"items"`
	PickupAddress   string                `json:"pickupAddress"`
	PickupOption    domain.PickupOption   `json:"pickupOption"`
	PickupDate      string                `json:"pickupDate,omitempty"`
	PickupTime      string                `json:"pickupTime,omitempty"`
	Notes           string                `json:"notes,omitempty"`
	Status          domain.DonationStatus `json:"status"`
	RejectionReason string                `json:"rejectionReason,omitempty"`
	CompletedDate   *time.Time            `json:"completedDate,omitempty"`
	CreatedAt       time.Time             `json:"createdAt"`
	UpdatedAt       time.Time             `json:"updatedAt"`
	Distance        *geo.Distance         `json:"distance,omitempty"`
}

type donationListResponse struct {
	Items []donationDTO `json:"items"`
}

func toDonationDTO(d domain.Donation) donationDTO {
	out := donationDTO{
		ID:              d.ID,
		User:            d.DonorID,
		NGO:             d.NGOID,
		Items:           make([]itemDTO, 0, len(d.Items)),
		PickupAddress:   d.PickupAddress,
		PickupOption:    d.Pickup.Option,
		PickupTime:      d.Pickup.Time,
		Notes:           d.Notes,
		Status:          d.Status,
		RejectionReason: d.RejectionReason,
		CompletedDate:   d.CompletedAt,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	}
	if d.Pickup.Date != nil {
		out.PickupDate = d.Pickup.Date.Format("2006-01-02")
	}
	for _, it := range d.Items {
		dto := itemDTO{ItemName: it.Name, Quantity: it.Quantity, Description: it.Description}
		for _, img := range it.Images {
			dto.Images = append(dto.Images, imageDTO{URL: img.URL, Analysis: img.Analysis})
		}
		out.Items = append(out.Items, dto)
	}
	return out
}

func toDonationList(items []domain.Donation) donationListResponse {
	out := donationListResponse{Items: make([]donationDTO, 0, len(items))}
	for _, d := range items {
		out.Items = append(out.Items, toDonationDTO(d))
	}
	return out
}

func (a *App) CreateDonation(w http.ResponseWriter, r *http.Request) {
	actor, ok := a.actor(r)
	if !ok {
		a.Fail(w, r, domain.ErrUnauthorized)
		return
	}
	var req donationRequest
	if !a.decode(w, r, &req) {
		return
	}
	date, err := parseDay(req.PickupDate)
	if err != nil {
		a.Fail(w, r, fmt.Errorf("%w: pickupDate must be YYYY-MM-DD", domain.ErrValidation))
		return
	}
	in := donations.NewDonation{
		PickupAddress: req.PickupAddress,
		Pickup: domain.Pickup{
			Option: domain.PickupOption(req.PickupOption),
			Date:   date,
			Time:   req.PickupTime,
		},
		Notes: req.Notes,
	}
	for _, it := range req.Items {
		item := domain.DonationItem{Name: it.ItemName, Quantity: it.Quantity, Description: it.Description}
		for _, img := range it.Images {
			item.Images = append(item.Images, domain.ItemImage{URL: img.URL, Analysis: img.Analysis})
		}
		in.Items = append(in.Items, item)
	}
	d, err := a.Donations.Create(r.Context(), actor, in)
	if err != nil {
		a.Fail(w, r, err)
		return
	}
	a.json(w, http.StatusCreated, toDonationDTO(*d))
}

func (a *App) GetDonation(w http.ResponseWriter, r *http.Request) {
	actor, ok := a.actor(r)
	if !ok {
		a.Fail(w, r, domain.ErrUnauthorized)
		return
	}
	d, err := a.Donations.Get(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		a.Fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, toDonationDTO(*d))
}

func (a *App) ListDonorDonations(w http.ResponseWriter, r *http.Request) {
	actor, ok := a.actor(r)
	if !ok {
		a.Fail(w, r, domain.ErrUnauthorized)
		return
	}
	items, err := a.Donations.ListForDonor(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		a.Fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, toDonationList(items))
}

// ListNGODonations returns the open pool and the NGO's own donations. With an
// origin (lat/lng query or the client's GeoIP city) each entry carries the
// distance to its pickup address.
func (a *App) ListNGODonations(w http.ResponseWriter, r *http.Request) {
	actor, ok := a.actor(r)
	if !ok {
		a.Fail(w, r, domain.ErrUnauthorized)
		return
	}
	items, err := a.Donations.ListForNGO(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		a.Fail(w, r, err)
		return
	}
	resp := toDonationList(items)

	q := r.URL.Query()
	if origin, ok := a.Locator.Origin(q.Get("lat"), q.Get("lng"), middleware.ClientIP(r)); ok {
		addresses := make([]string, 0, len(items))
		for _, d := range items {
			addresses = append(addresses, d.PickupAddress)
		}
		distances := a.Locator.Distances(r.Context(), origin, addresses)
		for i := range resp.Items {
			if d, found := distances[resp.Items[i].PickupAddress]; found {
				resp.Items[i].Distance = &d
			}
		}
	}
	a.json(w, http.StatusOK, resp)
}

func (a *App) UpdateDonationStatus(w http.ResponseWriter, r *http.Request) {
	actor, ok := a.actor(r)
	if !ok {
		a.Fail(w, r, domain.ErrUnauthorized)
		return
	}
	var req statusRequest
	if !a.decode(w, r, &req) {
		return
	}
	completedAt, err := parseTimestamp(req.CompletedDate)
	if err != nil {
		a.Fail(w, r, fmt.Errorf("%w: completedDate must be an RFC 3339 timestamp", domain.ErrValidation))
		return
	}
	d, err := a.Donations.ChangeStatus(r.Context(), actor, chi.URLParam(r, "id"), req.Status, req.RejectionReason, completedAt)
	if err != nil {
		a.Fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, toDonationDTO(*d))
}

func (a *App) Dashboard(w http.ResponseWriter, r *http.Request) {
	actor, ok := a.actor(r)
	if !ok {
		a.Fail(w, r, domain.ErrUnauthorized)
		return
	}
	sum, err := a.Donations.Dashboard(r.Context(), actor)
	if err != nil {
		a.Fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, sum)
}
