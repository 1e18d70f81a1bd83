package controllers

import (
	"net/http"
	"strings"

	"github.com/fitdesk/gymportal-backend/api/responses"
	"github.com/fitdesk/gymportal-backend/api/validators"
	"github.com/fitdesk/gymportal-backend/internal/memberships"
	"github.com/fitdesk/gymportal-backend/pkg/enums"
	pkgerrors "github.com/fitdesk/gymportal-backend/pkg/errors"
	"github.com/fitdesk/gymportal-backend/pkg/logger"
)

// AdminReviewQueue lists memberships awaiting a verification decision.
func AdminReviewQueue(svc *memberships.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := limitParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params := memberships.ReviewQueueParams{
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, err := enums.ParseMembershipStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
				return
			}
			params.Status = status
		}

		result, err := svc.ReviewQueue(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// AdminApproveMembership verifies the most recent pending payment and
// activates the membership with its addons.
func AdminApproveMembership(svc *memberships.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r, "membershipId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		dto, err := svc.Approve(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

type rejectRequest struct {
	Reason string `json:"reason" validate:"required"`
}

// AdminRejectMembership rejects the pending submission with a reason
// the member will see.
func AdminRejectMembership(svc *memberships.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r, "membershipId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req rejectRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		dto, err := svc.Reject(r.Context(), id, req.Reason)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}
