package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-payroll-engine/internal/pkg/actor"
	"github.com/go-chi/jwtauth/v5"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

var ErrInvalidClaims = errors.New("invalid token claims")

// Service verifies access tokens issued by the identity service. Issuing tokens is not
// this service's concern.
type Service interface {
	JWTAuth() *jwtauth.JWTAuth
	ActorFromClaims(claims map[string]interface{}) (actor.Actor, error)
}

type JWTService struct {
	tokenAuth *jwtauth.JWTAuth
}

func NewJWTService(secretKey string) Service {
	return &JWTService{
		tokenAuth: jwtauth.New("HS256", []byte(secretKey), nil, jwt.WithAcceptableSkew(30*time.Second)),
	}
}

func (j *JWTService) JWTAuth() *jwtauth.JWTAuth {
	return j.tokenAuth
}

// ActorFromClaims maps verified access-token claims to an Actor.
func (j *JWTService) ActorFromClaims(claims map[string]interface{}) (actor.Actor, error) {
	if tokenType, _ := claims["type"].(string); tokenType != "access" {
		return actor.Actor{}, fmt.Errorf("%w: token type %q", ErrInvalidClaims, tokenType)
	}

	userID, _ := claims["user_id"].(string)
	if userID == "" {
		return actor.Actor{}, fmt.Errorf("%w: missing user_id", ErrInvalidClaims)
	}

	role, _ := claims["role"].(string)
	switch actor.Role(role) {
	case actor.RoleAdmin, actor.RoleHR, actor.RoleEmployee, actor.RoleDevice:
	default:
		return actor.Actor{}, fmt.Errorf("%w: unknown role %q", ErrInvalidClaims, role)
	}

	a := actor.Actor{UserID: userID, Role: actor.Role(role)}
	if employeeID, ok := claims["employee_id"].(string); ok && employeeID != "" {
		a.EmployeeID = &employeeID
	}
	return a, nil
}
