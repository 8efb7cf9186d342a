// Package auth decides whether a caller may perform an action on a
// resource. Identity is taken only from the authenticated caller context
// supplied by the upstream auth layer, never from request bodies.
package auth

import (
	"fmt"

	"github.com/Miguelburitica/serverless-localMarket/internal/domain"
)

type Action string

const (
	ActionRead   Action = "read"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Caller is the authenticated identity attached to a request. The zero
// value is an anonymous caller.
type Caller struct {
	ID    string
	Email string
	Role  domain.Role
}

func (c Caller) Anonymous() bool {
	return c.ID == ""
}

type Decision struct {
	Allowed bool
	Reason  string
}

var allow = Decision{Allowed: true}

func deny(reason string) Decision {
	return Decision{Reason: reason}
}

// DeniedError is returned by services when a policy check fails.
type DeniedError struct {
	Reason string
}

func (e *DeniedError) Error() string {
	return fmt.Sprintf("access denied: %s", e.Reason)
}

// Authorize applies the policy for one action on one resource. Pass a
// typed nil resource for create actions, where no entity exists yet.
func Authorize(caller Caller, action Action, resource any) Decision {
	switch res := resource.(type) {
	case *domain.Product:
		return authorizeProduct(caller, action, res)
	case *domain.Market:
		if action == ActionRead {
			return allow
		}
		return deny("markets are read-only")
	case *domain.Order:
		return authorizeOrder(caller, action, res)
	}
	return deny("unknown resource")
}

func authorizeProduct(caller Caller, action Action, p *domain.Product) Decision {
	switch action {
	case ActionRead:
		return allow
	case ActionCreate:
		if caller.Anonymous() {
			return deny("authentication required")
		}
		if !caller.Role.CanSell() {
			return deny("seller role required")
		}
		return allow
	case ActionUpdate, ActionDelete:
		if caller.Anonymous() {
			return deny("authentication required")
		}
		if p == nil || p.SellerID != caller.ID {
			return deny("not the product owner")
		}
		return allow
	}
	return deny("unsupported action")
}

func authorizeOrder(caller Caller, action Action, o *domain.Order) Decision {
	switch action {
	case ActionCreate:
		if caller.Anonymous() {
			return deny("authentication required")
		}
		if !caller.Role.CanBuy() {
			return deny("customer role required")
		}
		return allow
	case ActionRead:
		if caller.Anonymous() {
			return deny("authentication required")
		}
		if o == nil || (o.UserID != caller.ID && o.SellerID != caller.ID) {
			return deny("not a party to this order")
		}
		return allow
	}
	return deny("unsupported action")
}
