package domain

import (
	"github.com/google/uuid"
)

type User struct {
	Record
	Email        string      `json:"email"`
	Username     string      `json:"username"`
	DisplayName  string      `json:"display_name"`
	PasswordHash string      `json:"password_hash"`
	AvatarURL    *string     `json:"avatar_url,omitempty"`
	Friends      []uuid.UUID `json:"friends"`
}

// Profile is the public projection of a user returned by list operations.
type Profile struct {
	ID          uuid.UUID `json:"id"`
	Username    string    `json:"username"`
	DisplayName string    `json:"display_name"`
	AvatarURL   *string   `json:"avatar_url,omitempty"`
}

// Account is what a user sees about themself.
type Account struct {
	Profile
	Email   string      `json:"email"`
	Friends []uuid.UUID `json:"friends"`
}

func (u *User) Profile() Profile {
	return Profile{
		ID:          u.ID,
		Username:    u.Username,
		DisplayName: u.DisplayName,
		AvatarURL:   u.AvatarURL,
	}
}

func (u *User) Account() Account {
	friends := u.Friends
	if friends == nil {
		friends = []uuid.UUID{}
	}
	return Account{Profile: u.Profile(), Email: u.Email, Friends: friends}
}
