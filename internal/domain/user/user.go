package user

import (
	"errors"
	"strings"
	"time"
)

var ErrInvalidRole = errors.New("invalid role")

// Role is a closed type so authorization checks stay exhaustive; a third
// role value can never sneak in through a request body.
type Role string

const (
	RoleCreator Role = "creator"
	RoleEditor  Role = "editor"
)

func (r Role) IsValid() bool {
	switch r {
	case RoleCreator, RoleEditor:
		return true
	default:
		return false
	}
}

func ParseRole(raw string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(raw)))

	if !r.IsValid() {
		return "", ErrInvalidRole
	}

	return r, nil
}

const DefaultAvatarURL = "https://img.freepik.com/premium-vector/man-avatar-profile-picture-vector-illustration_268834-538.jpg"

type User struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"` // never expose hash in JSON
	Name         string `json:"name"`
	AvatarURL    string `json:"avatarUrl"`
	Role         Role   `json:"role"`

	// creator-only
	YouTubeChannelID *string `json:"youtubeChannelId,omitempty"`

	// editor-only
	Speciality *string `json:"speciality,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// HasPassword reports whether the account can log in locally. Accounts
// created through Google sign-in carry no hash until the user sets one.
func (u User) HasPassword() bool {
	return u.PasswordHash != ""
}
