package models

import (
	"slices"

	"github.com/golang-jwt/jwt/v5"
)

// API permissions
const (
	PermissionTransactionRead  = "transaction:read"
	PermissionTransactionWrite = "transaction:write"
	PermissionBeneficiaryWrite = "beneficiary:write"
	PermissionReconcile        = "reconcile:run"
)

// Client roles
const (
	RolePayer    = "payer"
	RoleOperator = "operator"
)

// APIClaims identifies a caller of the transaction API: a payer device
// running the orchestrator, or an operator running reconciliation.
type APIClaims struct {
	jwt.RegisteredClaims
	ClientID    string   `json:"client_id"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
}

// HasPermission checks if the claims include a specific permission
func (c *APIClaims) HasPermission(permission string) bool {
	return slices.Contains(c.Permissions, permission)
}

// GetDefaultPermissions returns default permissions based on role
func GetDefaultPermissions(role string) []string {
	switch role {
	case RoleOperator:
		return []string{
			PermissionTransactionRead,
			PermissionTransactionWrite,
			PermissionBeneficiaryWrite,
			PermissionReconcile,
		}
	case RolePayer:
		return []string{
			PermissionTransactionRead,
			PermissionTransactionWrite,
		}
	default:
		return []string{}
	}
}
