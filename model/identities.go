package model

import "time"

// Role is a capability label grantable to an identity. Roles are
// non-exclusive; one identity may hold several.
type Role string

const (
	RoleProducer    Role = "producer"
	RoleDistributor Role = "distributor"
	RoleRetailer    Role = "retailer"
	RoleSensor      Role = "sensor"
	RoleInspector   Role = "inspector"
	RoleAuditor     Role = "auditor"
	RoleRegulator   Role = "regulator"
	RoleRegistrar   Role = "registrar"
	RoleAdmin       Role = "admin" // Bypasses individual role checks
)

// ValidRoles defines the set of permissible roles in the system.
var ValidRoles = map[Role]bool{
	RoleProducer:    true,
	RoleDistributor: true,
	RoleRetailer:    true,
	RoleSensor:      true,
	RoleInspector:   true,
	RoleAuditor:     true,
	RoleRegulator:   true,
	RoleRegistrar:   true,
	RoleAdmin:       true,
}

// AccessRecord stores the set of roles granted to one identity.
type AccessRecord struct {
	ObjectType    string    `json:"objectType"` // "Access"
	Identity      string    `json:"identity"`
	Roles         []Role    `json:"roles"`
	GrantedBy     string    `json:"grantedBy"` // Identity that performed the last grant/revoke
	LastUpdatedAt time.Time `json:"lastUpdatedAt"`
}

// HasRole reports whether the record carries the given role. A nil record
// carries no roles.
func (r *AccessRecord) HasRole(role Role) bool {
	if r == nil {
		return false
	}
	for _, held := range r.Roles {
		if held == role {
			return true
		}
	}
	return false
}

// HasAnyRole reports whether the record carries at least one of the roles.
func (r *AccessRecord) HasAnyRole(roles ...Role) bool {
	for _, role := range roles {
		if r.HasRole(role) {
			return true
		}
	}
	return false
}

// StakeholderRecord stores the organizational record of a registered
// participant. Records are never deleted, only deactivated.
type StakeholderRecord struct {
	ObjectType    string    `json:"objectType"` // "Stakeholder"
	Identity      string    `json:"identity"`
	Name          string    `json:"name"`
	Role          Role      `json:"role"` // Primary organizational role label
	KYCCompleted  bool      `json:"kycCompleted"`
	KYCReference  string    `json:"kycReference"` // External verification reference
	Active        bool      `json:"active"`
	RegisteredBy  string    `json:"registeredBy"`
	RegisteredAt  time.Time `json:"registeredAt"`
	LastUpdatedAt time.Time `json:"lastUpdatedAt"`
}
