package http

import (
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/handler/http/middleware"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/actor"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/jwt"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
)

type Handlers struct {
	Schedule   ScheduleHandler
	Rule       RuleHandler
	Attendance AttendanceHandler
	Payroll    PayrollHandler
}

func NewRouter(jwtService jwt.Service, logger *slog.Logger, allowedOrigins []string, h Handlers) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id"},
		MaxAge:           300,
	}))

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  slog.LevelInfo,
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.AllowContentEncoding("application/json"))
	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/healthz"))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(jwtauth.Verifier(jwtService.JWTAuth()))
		r.Use(middleware.AuthRequired(jwtService))

		r.Route("/schedules", func(r chi.Router) {
			r.Use(middleware.RequireAdministrative)
			r.Post("/", h.Schedule.Create)
			r.Get("/employees/{employeeID}", h.Schedule.ListByEmployee)
			r.Get("/employees/{employeeID}/effective", h.Schedule.GetEffective)
		})

		r.Route("/rules", func(r chi.Router) {
			r.Use(middleware.RequireAdministrative)
			r.Get("/deduction", h.Rule.ListDeductionRules)
			r.Get("/overtime", h.Rule.ListOvertimeRules)

			// Rules are maintained by admins only.
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAdmin)
				r.Post("/deduction", h.Rule.CreateDeductionRule)
				r.Post("/deduction/{id}/deactivate", h.Rule.DeactivateDeductionRule)
				r.Post("/overtime", h.Rule.CreateOvertimeRule)
				r.Post("/overtime/{id}/deactivate", h.Rule.DeactivateOvertimeRule)
			})
		})

		r.Route("/attendance", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(actor.RoleAdmin, actor.RoleHR, actor.RoleEmployee, actor.RoleDevice))
				r.Post("/clock-in", h.Attendance.ClockIn)
				r.Post("/clock-out", h.Attendance.ClockOut)
			})
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(actor.RoleAdmin, actor.RoleHR, actor.RoleEmployee))
				r.Get("/", h.Attendance.ListAttendance)
				r.Get("/{id}", h.Attendance.GetAttendance)
			})
		})

		r.Route("/payroll", func(r chi.Router) {
			r.Use(middleware.RequireAdministrative)
			r.Post("/generate", h.Payroll.GeneratePayroll)
			r.Post("/generate/employee", h.Payroll.GenerateEmployeePayroll)
			r.Get("/summary", h.Payroll.GetPayrollSummary)
			r.Get("/", h.Payroll.ListPayrollRecords)
			r.Get("/{id}", h.Payroll.GetPayrollRecord)
			r.Put("/{id}", h.Payroll.UpdatePayrollRecord)
			r.Post("/{id}/approve", h.Payroll.ApprovePayrollRecord)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
	})

	return r
}
