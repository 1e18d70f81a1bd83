package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fitdesk/gymportal-backend/api/middleware"
	"github.com/fitdesk/gymportal-backend/api/responses"
	"github.com/fitdesk/gymportal-backend/api/validators"
	"github.com/fitdesk/gymportal-backend/internal/payments"
	pkgerrors "github.com/fitdesk/gymportal-backend/pkg/errors"
	"github.com/fitdesk/gymportal-backend/pkg/logger"
)

type trainerSelectionRequest struct {
	TrainerID      int64 `json:"trainer_id" validate:"required,min=1"`
	DurationMonths int   `json:"duration_months" validate:"required,min=1,max=24"`
}

type submitPaymentRequest struct {
	TransactionID  string                   `json:"transaction_id" validate:"required"`
	PaymentDate    string                   `json:"payment_date" validate:"required"`
	Amount         decimal.Decimal          `json:"amount" validate:"required"`
	ScreenshotPath string                   `json:"screenshot_path" validate:"required"`
	InGymAddon     bool                     `json:"in_gym_addon"`
	Trainer        *trainerSelectionRequest `json:"trainer"`
}

// SubmitPayment records a manual payment against the caller's
// membership together with any addon selection.
func SubmitPayment(svc *payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		membershipID, err := idParam(r, "membershipId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req submitPaymentRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		paymentDate, err := parsePaymentDate(req.PaymentDate)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := payments.SubmitInput{
			MembershipID:   membershipID,
			TransactionID:  req.TransactionID,
			PaymentDate:    paymentDate,
			Amount:         req.Amount,
			ScreenshotPath: req.ScreenshotPath,
			InGymAddon:     req.InGymAddon,
		}
		if req.Trainer != nil {
			input.Trainer = &payments.TrainerSelection{
				TrainerID:      req.Trainer.TrainerID,
				DurationMonths: req.Trainer.DurationMonths,
			}
		}

		result, err := svc.Submit(r.Context(), middleware.UserIDFromContext(r.Context()), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// ListMembershipPayments returns the caller's payment history for one
// membership, newest first.
func ListMembershipPayments(svc *payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		membershipID, err := idParam(r, "membershipId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := limitParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.ListForMembership(r.Context(), middleware.UserIDFromContext(r.Context()), payments.ListParams{
			MembershipID: membershipID,
			Limit:        limit,
			Cursor:       strings.TrimSpace(r.URL.Query().Get("cursor")),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func parsePaymentDate(raw string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, pkgerrors.New(pkgerrors.CodeValidation, "payment_date must be RFC 3339 or YYYY-MM-DD")
}
