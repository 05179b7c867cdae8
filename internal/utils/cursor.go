package utils

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"time"
)

// VideoCursor is an opaque keyset cursor over (created_at DESC, id DESC).
type VideoCursor struct {
	CreatedAt time.Time `json:"createdAt"`
	ID        string    `json:"id"`
}

func EncodeVideoCursor(createdAt time.Time, id string) (string, error) {
	b, err := json.Marshal(VideoCursor{CreatedAt: createdAt, ID: id})
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func DecodeVideoCursor(cursor string) (VideoCursor, error) {
	if cursor == "" {
		return VideoCursor{}, errors.New("empty cursor")
	}

	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return VideoCursor{}, err
	}

	var c VideoCursor
	if err := json.Unmarshal(raw, &c); err != nil {
		return VideoCursor{}, err
	}
	if c.ID == "" || c.CreatedAt.IsZero() {
		return VideoCursor{}, errors.New("invalid cursor payload")
	}
	return c, nil
}
