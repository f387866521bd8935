package handlers

import (
	"net/http"
	"time"

	"donationhub/internal/auth"
	"donationhub/internal/domain"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Msg     string     `json:"msg"`
	Type    string     `json:"type"`
	Token   string     `json:"token"`
	Account accountDTO `json:"account"`
}

type donorSignupRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Mobile    string `json:"mobile"`
}

type ngoSignupRequest struct {
	Name               string   `json:"name"`
	RegistrationNumber string   `json:"registrationNumber"`
	Email              string   `json:"email"`
	Password           string   `json:"password"`
	Mobile             string   `json:"mobile"`
	Address            string   `json:"address"`
	ItemsAccepted      []string `json:"itemsAccepted"`
}

type messageResponse struct {
	Msg string `json:"msg"`
}

type signupResponse struct {
	Msg     string     `json:"msg"`
	Account accountDTO `json:"account"`
}

func (a *App) SignupDonor(w http.ResponseWriter, r *http.Request) {
	var req donorSignupRequest
	if !a.decode(w, r, &req) {
		return
	}
	sess, err := a.Auth.SignupDonor(r.Context(), auth.DonorSignup{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
		Mobile:    req.Mobile,
	})
	if err != nil {
		a.Fail(w, r, err)
		return
	}
	a.json(w, http.StatusCreated, signupResponse{Msg: "User signup successful", Account: toAccountDTO(sess.Account)})
}

func (a *App) SignupNGO(w http.ResponseWriter, r *http.Request) {
	var req ngoSignupRequest
	if !a.decode(w, r, &req) {
		return
	}
	sess, err := a.Auth.SignupNGO(r.Context(), auth.NGOSignup{
		Name:               req.Name,
		RegistrationNumber: req.RegistrationNumber,
		Email:              req.Email,
		Password:           req.Password,
		Mobile:             req.Mobile,
		Address:            req.Address,
		ItemsAccepted:      req.ItemsAccepted,
	})
	if err != nil {
		a.Fail(w, r, err)
		return
	}
	a.json(w, http.StatusCreated, signupResponse{Msg: "NGO signup successful", Account: toAccountDTO(sess.Account)})
}

// Login sets the session cookie and also returns the token for clients that
// prefer the Authorization header.
func (a *App) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !a.decode(w, r, &req) {
		return
	}
	sess, err := a.Auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		a.Fail(w, r, err)
		return
	}
	http.SetCookie(w, a.sessionCookie(sess.Token, a.Cookie.TTL))
	a.json(w, http.StatusOK, loginResponse{
		Msg:     "Login successful",
		Type:    string(sess.Account.Kind),
		Token:   sess.Token,
		Account: toAccountDTO(sess.Account),
	})
}

func (a *App) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, a.sessionCookie("", -1))
	a.json(w, http.StatusOK, messageResponse{Msg: "Logged out successfully"})
}

func (a *App) sessionCookie(value string, ttl time.Duration) *http.Cookie {
	c := &http.Cookie{
		Name:     a.Cookie.Name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   a.Cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	if a.Cookie.Secure {
		c.SameSite = http.SameSiteNoneMode
	}
	if ttl < 0 {
		c.MaxAge = -1
		c.Expires = time.Unix(0, 0)
	} else {
		c.MaxAge = int(ttl / time.Second)
	}
	return c
}

type accountDTO struct {
	ID                 string             `json:"id"`
	Type               domain.AccountKind `json:"type"`
	Email              string             `json:"email"`
	Mobile             string             `json:"mobile,omitempty"`
	FirstName          string             `json:"firstName,omitempty"`
	LastName           string             `json:"lastName,omitempty"`
	Name               string             `json:"name,omitempty"`
	RegistrationNumber string             `json:"registrationNumber,omitempty"`
	Address            string             `json:"address,omitempty"`
	ItemsAccepted      []string           `json:"itemsAccepted,omitempty"`
	CreatedAt          time.Time          `json:"createdAt"`
}

func toAccountDTO(acc domain.Account) accountDTO {
	return accountDTO{
		ID:                 acc.ID,
		Type:               acc.Kind,
		Email:              acc.Email,
		Mobile:             acc.Mobile,
		FirstName:          acc.FirstName,
		LastName:           acc.LastName,
		Name:               acc.Name,
		RegistrationNumber: acc.RegistrationNumber,
		Address:            acc.Address,
		ItemsAccepted:      acc.ItemsAccepted,
		CreatedAt:          acc.CreatedAt,
	}
}
