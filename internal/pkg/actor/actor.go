// Package actor carries the identity of whoever triggered an operation. Handlers build
// an Actor from the verified token and pass it to services explicitly.
package actor

import (
	"context"
	"errors"
)

var ErrForbidden = errors.New("not allowed to perform this action")

type Role string

const (
	RoleAdmin    Role = "admin"
	RoleHR       Role = "hr"
	RoleEmployee Role = "employee"
	// RoleDevice is used by attendance terminals (QR, RFID, biometric readers).
	RoleDevice Role = "device"
)

type Actor struct {
	UserID     string
	EmployeeID *string
	Role       Role
	RequestID  string
	RemoteAddr string
}

func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

func (a Actor) IsAdministrative() bool {
	return a.Role == RoleAdmin || a.Role == RoleHR
}

// CanRecordFor reports whether the actor may clock in or out on behalf of employeeID.
// Employees may only record their own attendance.
func (a Actor) CanRecordFor(employeeID string) bool {
	switch a.Role {
	case RoleAdmin, RoleHR, RoleDevice:
		return true
	case RoleEmployee:
		return a.EmployeeID != nil && *a.EmployeeID == employeeID
	default:
		return false
	}
}

type ctxKey struct{}

func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, ctxKey{}, a)
}

func FromContext(ctx context.Context) (Actor, bool) {
	a, ok := ctx.Value(ctxKey{}).(Actor)
	return a, ok
}
