package models

import "time"

// User is the profile record kept for every identity that has signed in.
type User struct {
	ID          string    `json:"uid"`
	Email       string    `json:"email"`
	DisplayName string    `json:"displayName"`
	PhotoURL    string    `json:"photoURL,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	LastLoginAt time.Time `json:"lastLoginAt"`
}

// UserPatch describes a partial profile update. Nil fields are left
// unchanged.
type UserPatch struct {
	DisplayName *string
	PhotoURL    *string
}
