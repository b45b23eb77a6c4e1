// AngelaMos | 2026
// entity.go

package user

import (
	"time"
)

type User struct {
	ID               string     `db:"id"`
	Email            string     `db:"email"`
	PasswordHash     string     `db:"password_hash"`
	Name             string     `db:"name"`
	Role             string     `db:"role"`
	ContactNumber    *string    `db:"contact_number"`
	WhatsAppNumber   *string    `db:"whats_app_number"`
	ViberNumber      *string    `db:"viber_number"`
	ProfilePicture   *string    `db:"profile_picture"`
	Verified         bool       `db:"verified"`
	VerificationCode *string    `db:"verification_code"`
	TokenVersion     int        `db:"token_version"`
	CreatedAt        time.Time  `db:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at"`
	DeletedAt        *time.Time `db:"deleted_at"`
}

func (u *User) IsDeleted() bool {
	return u.DeletedAt != nil
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)
