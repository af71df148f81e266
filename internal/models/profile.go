package models

import "time"

// Role values recognised by the platform.
const (
	RoleStudent = "student"
	RoleTeacher = "teacher"
	RoleHOD     = "hod"
)

// Profile represents an authenticated platform user.
type Profile struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	Email     string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Role      string    `gorm:"size:32;not null;default:student" json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsStaff reports whether the profile may grade submissions.
func (p Profile) IsStaff() bool {
	return p.Role == RoleTeacher || p.Role == RoleHOD
}
