package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fitdesk/gymportal-backend/api/controllers"
	"github.com/fitdesk/gymportal-backend/api/middleware"
	"github.com/fitdesk/gymportal-backend/internal/fees"
	"github.com/fitdesk/gymportal-backend/internal/memberships"
	"github.com/fitdesk/gymportal-backend/internal/notifications"
	"github.com/fitdesk/gymportal-backend/internal/payments"
	"github.com/fitdesk/gymportal-backend/internal/trainers"
	"github.com/fitdesk/gymportal-backend/pkg/config"
	"github.com/fitdesk/gymportal-backend/pkg/db"
	"github.com/fitdesk/gymportal-backend/pkg/enums"
	"github.com/fitdesk/gymportal-backend/pkg/logger"
	pkgredis "github.com/fitdesk/gymportal-backend/pkg/redis"
)

// RouterParams carries everything the HTTP surface needs.
type RouterParams struct {
	Config        *config.Config
	Logger        *logger.Logger
	DB            db.Pinger
	Redis         pkgredis.Pinger
	Memberships   *memberships.Service
	Payments      *payments.Service
	Fees          *fees.Service
	Trainers      trainers.Repository
	Notifications notifications.Service
}

// NewRouter builds the HTTP handler for the portal API.
func NewRouter(params RouterParams) http.Handler {
	cfg := params.Config
	logg := params.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, params.DB, params.Redis))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Route("/memberships", func(r chi.Router) {
			r.Post("/", controllers.CreateMembership(params.Memberships, logg))
			r.Get("/", controllers.ListMyMemberships(params.Memberships, logg))
			r.Route("/{membershipId}", func(r chi.Router) {
				r.Get("/", controllers.GetMembership(params.Memberships, logg))
				r.Get("/trainer-eligibility", controllers.TrainerEligibility(params.Memberships, logg))
				r.Post("/payments", controllers.SubmitPayment(params.Payments, logg))
				r.Get("/payments", controllers.ListMembershipPayments(params.Payments, logg))
			})
		})

		r.Get("/trainers", controllers.ListTrainers(params.Trainers, logg))
		r.Get("/fees", controllers.CurrentFees(params.Fees, logg))

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(params.Notifications, logg))
			r.Post("/{notificationId}/read", controllers.MarkNotificationRead(params.Notifications, logg))
			r.Post("/read-all", controllers.MarkAllNotificationsRead(params.Notifications, logg))
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RequireRole(string(enums.MemberRoleAdmin), logg))

		r.Route("/memberships", func(r chi.Router) {
			r.Get("/", controllers.AdminReviewQueue(params.Memberships, logg))
			r.Post("/{membershipId}/approve", controllers.AdminApproveMembership(params.Memberships, logg))
			r.Post("/{membershipId}/reject", controllers.AdminRejectMembership(params.Memberships, logg))
		})
		r.Put("/fees", controllers.AdminUpdateFees(params.Fees, logg))
	})

	return r
}
