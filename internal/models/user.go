package models

import "strings"

// UserRole represents the position of an account in the field-operations hierarchy.
type UserRole string

const (
	// RoleOrgAdmin owns units, each of which owns workers.
	RoleOrgAdmin UserRole = "ORG_ADMIN"
	// RoleUnitLead owns workers directly.
	RoleUnitLead UserRole = "UNIT_LEAD"
	// RoleWorker is a field technician and owns nothing.
	RoleWorker UserRole = "WORKER"
)

// Role identifiers as stored in usuario.rol_id.
const (
	RoleIDOrgAdmin = 1
	RoleIDUnitLead = 2
	RoleIDWorker   = 3
)

// RoleFromID maps a stored role id to its UserRole.
func RoleFromID(id int) (UserRole, bool) {
	switch id {
	case RoleIDOrgAdmin:
		return RoleOrgAdmin, true
	case RoleIDUnitLead:
		return RoleUnitLead, true
	case RoleIDWorker:
		return RoleWorker, true
	default:
		return "", false
	}
}

// Profile is a row of the usuario table.
type Profile struct {
	ID        string `db:"id" json:"id"`
	RoleID    int    `db:"rol_id" json:"role_id"`
	FirstName string `db:"nombres" json:"first_name"`
	LastName  string `db:"apellidos" json:"last_name"`
}

// Role resolves the profile's role. Unknown ids map to RoleWorker, which carries no export rights.
func (p Profile) Role() UserRole {
	if role, ok := RoleFromID(p.RoleID); ok {
		return role
	}
	return RoleWorker
}

// DisplayName joins first and last names.
func (p Profile) DisplayName() string {
	return JoinName(p.FirstName, p.LastName)
}

// JoinName renders "<first> <last>" without stray spaces when either part is missing.
func JoinName(first, last string) string {
	return strings.TrimSpace(strings.TrimSpace(first) + " " + strings.TrimSpace(last))
}

// Identity is the authenticated caller as seen by the export pipeline.
type Identity struct {
	ID          string   `json:"id"`
	Role        UserRole `json:"role"`
	DisplayName string   `json:"display_name"`
}

// IdentityFromProfile builds an Identity from a stored profile.
func IdentityFromProfile(p Profile) Identity {
	return Identity{ID: p.ID, Role: p.Role(), DisplayName: p.DisplayName()}
}
