package controllers

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fitdesk/gymportal-backend/api/middleware"
	"github.com/fitdesk/gymportal-backend/api/responses"
	"github.com/fitdesk/gymportal-backend/api/validators"
	"github.com/fitdesk/gymportal-backend/internal/memberships"
	"github.com/fitdesk/gymportal-backend/internal/trainers"
	"github.com/fitdesk/gymportal-backend/pkg/enums"
	pkgerrors "github.com/fitdesk/gymportal-backend/pkg/errors"
	"github.com/fitdesk/gymportal-backend/pkg/logger"
)

type purchaseRequest struct {
	PlanName       string          `json:"plan_name" validate:"required"`
	PlanType       string          `json:"plan_type" validate:"required,oneof=online in_gym"`
	DurationMonths int             `json:"duration_months" validate:"required,min=1,max=24"`
	BasePrice      decimal.Decimal `json:"base_price" validate:"required"`
}

// CreateMembership starts a purchase; the membership waits in
// awaiting_payment until a payment is submitted and verified.
func CreateMembership(svc *memberships.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req purchaseRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		planType, err := enums.ParsePlanType(req.PlanType)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid plan type"))
			return
		}

		dto, err := svc.RequestPurchase(r.Context(), middleware.UserIDFromContext(r.Context()), memberships.PurchaseInput{
			PlanName:       req.PlanName,
			PlanType:       planType,
			DurationMonths: req.DurationMonths,
			BasePrice:      req.BasePrice,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, dto)
	}
}

// ListMyMemberships returns every membership the caller owns.
func ListMyMemberships(svc *memberships.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.ListForUser(r.Context(), middleware.UserIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, items)
	}
}

// GetMembership returns one membership the caller owns.
func GetMembership(svc *memberships.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r, "membershipId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		membership, err := svc.GetOwned(r.Context(), middleware.UserIDFromContext(r.Context()), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, memberships.ToDTO(membership))
	}
}

type trainerEligibilityResponse struct {
	Eligible       bool   `json:"eligible"`
	Reason         string `json:"reason,omitempty"`
	MaxRenewalDays int    `json:"max_renewal_days"`
}

// TrainerEligibility reports whether the membership can take or renew a
// trainer right now, and for how long at most.
func TrainerEligibility(svc *memberships.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r, "membershipId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		membership, err := svc.GetOwned(r.Context(), middleware.UserIDFromContext(r.Context()), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		check := trainers.CheckRenewalEligibility(membership, time.Now().UTC())
		responses.WriteSuccess(w, trainerEligibilityResponse{
			Eligible:       check.Eligible,
			Reason:         check.Reason,
			MaxRenewalDays: check.MaxRenewalDays,
		})
	}
}
