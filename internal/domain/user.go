package domain

import (
	"time"
)

type Role string

const (
	RoleCustomer Role = "customer"
	RoleSeller   Role = "seller"
	RoleBoth     Role = "both"
)

// CanSell reports whether the role may own and manage products.
func (r Role) CanSell() bool {
	return r == RoleSeller || r == RoleBoth
}

// CanBuy reports whether the role may place orders.
func (r Role) CanBuy() bool {
	return r == RoleCustomer || r == RoleBoth
}

// User records are created at registration by the auth provider and are
// read-only for this service.
type User struct {
	UserID    string    `dynamodbav:"user_id"    json:"user_id"`
	Email     string    `dynamodbav:"email"      json:"email"`
	Role      Role      `dynamodbav:"role"       json:"role"`
	CreatedAt time.Time `dynamodbav:"created_at" json:"created_at"`
	UpdatedAt time.Time `dynamodbav:"updated_at" json:"updated_at"`
}
