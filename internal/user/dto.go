// AngelaMos | 2026
// dto.go

package user

import (
	"time"
)

type CreateUserRequest struct {
	Email    string `json:"email"    validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8,max=128"`
	Name     string `json:"name"     validate:"required,min=1,max=100"`
}

type UpdateUserRequest struct {
	Name           *string `json:"name,omitempty"             validate:"omitempty,min=1,max=100"`
	ContactNumber  *string `json:"contact_number,omitempty"   validate:"omitempty,max=32"`
	WhatsAppNumber *string `json:"whats_app_number,omitempty" validate:"omitempty,max=32"`
	ViberNumber    *string `json:"viber_number,omitempty"     validate:"omitempty,max=32"`
	ProfilePicture *string `json:"profile_picture,omitempty"  validate:"omitempty,max=512"`
}

type UpdateUserRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=user admin"`
}

type UserResponse struct {
	ID             string    `json:"id"`
	Email          string    `json:"email"`
	Name           string    `json:"name"`
	Role           string    `json:"role"`
	ContactNumber  *string   `json:"contact_number,omitempty"`
	WhatsAppNumber *string   `json:"whats_app_number,omitempty"`
	ViberNumber    *string   `json:"viber_number,omitempty"`
	ProfilePicture *string   `json:"profile_picture,omitempty"`
	Verified       bool      `json:"verified"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type UserListResponse struct {
	Users []UserResponse `json:"users"`
}

type ListUsersParams struct {
	Page     int    `json:"page"`
	PageSize int    `json:"page_size"`
	Search   string `json:"search"`
	Role     string `json:"role"`
	Verified *bool  `json:"verified"`
}

func (p *ListUsersParams) Normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = 20
	}
	if p.PageSize > 100 {
		p.PageSize = 100
	}
}

func (p *ListUsersParams) Offset() int {
	return (p.Page - 1) * p.PageSize
}

func ToUserResponse(u *User) UserResponse {
	return UserResponse{
		ID:             u.ID,
		Email:          u.Email,
		Name:           u.Name,
		Role:           u.Role,
		ContactNumber:  u.ContactNumber,
		WhatsAppNumber: u.WhatsAppNumber,
		ViberNumber:    u.ViberNumber,
		ProfilePicture: u.ProfilePicture,
		Verified:       u.Verified,
		CreatedAt:      u.CreatedAt,
		UpdatedAt:      u.UpdatedAt,
	}
}

func ToUserResponseList(users []User) []UserResponse {
	responses := make([]UserResponse, 0, len(users))
	for _, u := range users {
		responses = append(responses, ToUserResponse(&u))
	}
	return responses
}
