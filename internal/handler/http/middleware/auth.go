package middleware

import (
	"net/http"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/handler/http/response"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/actor"
	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/jwt"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/jwtauth/v5"
)

// AuthRequired resolves the verified token into an actor.Actor on the request context.
// It must run after jwtauth.Verifier.
func AuthRequired(jwtService jwt.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		hfn := func(w http.ResponseWriter, r *http.Request) {
			token, claims, err := jwtauth.FromContext(r.Context())
			if err != nil {
				response.Unauthorized(w, err.Error())
				return
			}
			if token == nil {
				response.HandleError(w, jwt.ErrInvalidClaims)
				return
			}

			act, err := jwtService.ActorFromClaims(claims)
			if err != nil {
				response.HandleError(w, err)
				return
			}
			act.RequestID = chiMiddleware.GetReqID(r.Context())
			act.RemoteAddr = r.RemoteAddr

			next.ServeHTTP(w, r.WithContext(actor.WithActor(r.Context(), act)))
		}
		return http.HandlerFunc(hfn)
	}
}
