package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

type UserRole string

const (
	RoleAdmin    UserRole = "admin"
	RoleMaker    UserRole = "maker"
	RoleChecker1 UserRole = "checker1"
	RoleChecker2 UserRole = "checker2"
)

type User struct {
	ID                uint64         `gorm:"primarykey" json:"id"`
	Username          string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"username"`
	DisplayName       string         `gorm:"type:varchar(255);not null" json:"display_name"`
	Email             string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	PasswordHash      string         `gorm:"type:varchar(255);not null" json:"-"`
	Role              UserRole       `gorm:"type:varchar(20);not null" json:"role"`
	RolesCSV          string         `gorm:"column:roles;type:varchar(255);not null" json:"-"`
	PasswordExpiresAt time.Time      `json:"password_expires_at"`
	FirstLogin        bool           `gorm:"not null;default:true" json:"first_login"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	AssignedTasks []Task     `gorm:"foreignKey:AssignedToID" json:"-"`
	Approvals     []Approval `gorm:"foreignKey:UserID" json:"-"`
}

// Roles returns the user's role set. The set always contains the primary
// role even if the stored value predates it.
func (u *User) Roles() []UserRole {
	roles := []UserRole{u.Role}
	for _, raw := range strings.Split(u.RolesCSV, ",") {
		r := UserRole(strings.TrimSpace(raw))
		if r == "" || r == u.Role {
			continue
		}
		roles = append(roles, r)
	}
	return roles
}

// SetRoles stores the role set, forcing the primary role into it.
func (u *User) SetRoles(roles []UserRole) {
	seen := map[UserRole]struct{}{u.Role: {}}
	parts := []string{string(u.Role)}
	for _, r := range roles {
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		parts = append(parts, string(r))
	}
	u.RolesCSV = strings.Join(parts, ",")
}

// HasRole reports whether the role set contains r.
func (u *User) HasRole(r UserRole) bool {
	for _, have := range u.Roles() {
		if have == r {
			return true
		}
	}
	return false
}
