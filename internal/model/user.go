package model

// UserRole gates access to the audit and settings areas.
type UserRole string

const (
	RoleAdmin       UserRole = "ADMIN"
	RoleEngineer    UserRole = "ENGINEER"
	RoleCoordinator UserRole = "COORDINATOR"
	RoleQA          UserRole = "QA"
	RoleSupervisor  UserRole = "SUPERVISOR"
)

// Label returns the Indonesian role title.
func (r UserRole) Label() string {
	switch r {
	case RoleEngineer:
		return "Teknisi QA"
	case RoleCoordinator:
		return "Koordinator"
	case RoleSupervisor:
		return "Supervisor"
	case RoleQA:
		return "QA Admin"
	case RoleAdmin:
		return "Administrator"
	}
	return string(r)
}

// User is an operator of the system.
type User struct {
	ID   string   `gorm:"primaryKey;size:16" json:"id"`
	Name string   `gorm:"size:128;not null" json:"name"`
	Role UserRole `gorm:"size:16;not null" json:"role"`
}
