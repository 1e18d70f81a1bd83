package controllers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/fitdesk/gymportal-backend/api/responses"
	"github.com/fitdesk/gymportal-backend/api/validators"
	"github.com/fitdesk/gymportal-backend/internal/fees"
	"github.com/fitdesk/gymportal-backend/pkg/logger"
)

// CurrentFees returns the operational fee schedule.
func CurrentFees(svc *fees.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, svc.Fees(r.Context()))
	}
}

type updateFeesRequest struct {
	AdmissionFee *decimal.Decimal `json:"admission_fee"`
	MonthlyFee   *decimal.Decimal `json:"monthly_fee"`
}

// AdminUpdateFees changes the admission or monthly fee.
func AdminUpdateFees(svc *fees.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req updateFeesRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.UpdateFees(r.Context(), fees.UpdateFeesInput{
			AdmissionFee: req.AdmissionFee,
			MonthlyFee:   req.MonthlyFee,
		}); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, svc.Fees(r.Context()))
	}
}
