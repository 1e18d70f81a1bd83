package controllers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/fitdesk/gymportal-backend/api/responses"
	"github.com/fitdesk/gymportal-backend/internal/trainers"
	pkgerrors "github.com/fitdesk/gymportal-backend/pkg/errors"
	"github.com/fitdesk/gymportal-backend/pkg/logger"
)

type trainerDTO struct {
	ID             int64           `json:"id"`
	Name           string          `json:"name"`
	Specialization *string         `json:"specialization,omitempty"`
	MonthlyRate    decimal.Decimal `json:"monthly_rate"`
}

// ListTrainers returns the active trainer roster members pick from.
func ListTrainers(repo trainers.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := repo.ListActiveTrainers(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list trainers"))
			return
		}
		items := make([]trainerDTO, 0, len(rows))
		for _, t := range rows {
			items = append(items, trainerDTO{
				ID:             t.ID,
				Name:           t.Name,
				Specialization: t.Specialization,
				MonthlyRate:    t.MonthlyRate,
			})
		}
		responses.WriteSuccess(w, items)
	}
}
