package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/davoseaworthui/referral-builder-next/pkg/httputil"
	"github.com/davoseaworthui/referral-builder-next/pkg/validator"
	"github.com/davoseaworthui/referral-builder-next/services/referral/internal/domain"
	"github.com/davoseaworthui/referral-builder-next/services/referral/internal/service"
)

// maxBodyBytes caps the size of a create request body.
const maxBodyBytes = 1 << 20

// ReferralHandler handles HTTP requests for referral endpoints.
type ReferralHandler struct {
	service *service.ReferralService
	logger  *slog.Logger
}

// NewReferralHandler creates a new referral HTTP handler.
func NewReferralHandler(svc *service.ReferralService, logger *slog.Logger) *ReferralHandler {
	return &ReferralHandler{
		service: svc,
		logger:  logger,
	}
}

// --- Request DTOs ---

// AddressRequest is the address part of a create request.
type AddressRequest struct {
	HomeNameOrNumber string `json:"homeNameOrNumber" validate:"notblank,max=100"`
	Street           string `json:"street" validate:"notblank,max=255"`
	Suburb           string `json:"suburb" validate:"notblank,max=100"`
	State            string `json:"state" validate:"notblank,max=100"`
	Postcode         string `json:"postcode" validate:"notblank,max=20"`
	Country          string `json:"country" validate:"notblank,max=100"`
}

// CreateReferralRequest is the JSON request body for creating a referral.
// Unknown fields such as "id" or "avatar" are ignored.
type CreateReferralRequest struct {
	GivenName string         `json:"givenName" validate:"notblank,max=100"`
	Surname   string         `json:"surname" validate:"notblank,max=100"`
	Email     string         `json:"email" validate:"notblank,email,max=255"`
	Phone     string         `json:"phone" validate:"notblank,max=50"`
	Address   AddressRequest `json:"address"`
}

func (req *CreateReferralRequest) toInput() *service.CreateReferralInput {
	return &service.CreateReferralInput{
		GivenName: req.GivenName,
		Surname:   req.Surname,
		Email:     req.Email,
		Phone:     req.Phone,
		Address: domain.Address{
			HomeNameOrNumber: req.Address.HomeNameOrNumber,
			Street:           req.Address.Street,
			Suburb:           req.Address.Suburb,
			State:            req.Address.State,
			Postcode:         req.Address.Postcode,
			Country:          req.Address.Country,
		},
	}
}

// --- Handlers ---

// ListReferrals handles GET /api/referrals
func (h *ReferralHandler) ListReferrals(w http.ResponseWriter, r *http.Request) {
	referrals, err := h.service.ListReferrals(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, referrals)
}

// CreateReferral handles POST /api/referrals
func (h *ReferralHandler) CreateReferral(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	req, err := validator.Decode[CreateReferralRequest](r)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httputil.WriteMessage(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		httputil.WriteValidationError(w, err)
		return
	}

	referral, err := h.service.CreateReferral(r.Context(), req.toInput())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, referral)
}

// GetReferral handles GET /api/referrals/{id}
func (h *ReferralHandler) GetReferral(w http.ResponseWriter, r *http.Request) {
	referral, err := h.service.GetReferral(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, referral)
}

// DeleteReferral handles DELETE /api/referrals/{id}
func (h *ReferralHandler) DeleteReferral(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteReferral(r.Context(), chi.URLParam(r, "id")); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteMessage(w, http.StatusOK, "Referral deleted successfully")
}
