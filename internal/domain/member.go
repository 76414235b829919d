package domain

import "time"

// Role is what a user may do within a company.
type Role string

const (
	RoleCompanyAdmin  Role = "company_admin"
	RoleRecruiter     Role = "recruiter"
	RoleHiringManager Role = "hiring_manager"
	RoleInterviewer   Role = "interviewer"
	RoleCandidate     Role = "candidate"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleCompanyAdmin, RoleRecruiter, RoleHiringManager, RoleInterviewer, RoleCandidate:
		return true
	}
	return false
}

// Staff reports whether r belongs to company staff.
func (r Role) Staff() bool {
	return r.Valid() && r != RoleCandidate
}

// Company is a tenant.
type Company struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// User is a person known to the platform.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Member is a user's membership in a company.
type Member struct {
	CompanyID string `json:"companyId"`
	UserID    string `json:"userId"`
	Role      Role   `json:"role"`
	Active    bool   `json:"active"`
}

// Actor identifies who performs an operation.
type Actor struct {
	UserID    string
	CompanyID string
	Role      Role
}

// Label is a short human readable identifier for logs and notifications.
func (a Actor) Label() string {
	if a.UserID == "" {
		return "system"
	}
	return string(a.Role) + ":" + a.UserID
}
