package user

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestParseRole(t *testing.T) {
	cases := []struct {
		in      string
		want    Role
		wantErr bool
	}{
		{"creator", RoleCreator, false},
		{"editor", RoleEditor, false},
		{"  Creator ", RoleCreator, false},
		{"admin", "", true},
		{"", "", true},
	}

	for _, tc := range cases {
		got, err := ParseRole(tc.in)

		if tc.wantErr {
			if !errors.Is(err, ErrInvalidRole) {
				t.Errorf("ParseRole(%q): want ErrInvalidRole, got %v", tc.in, err)
			}
			continue
		}

		if err != nil || got != tc.want {
			t.Errorf("ParseRole(%q) = %v, %v; want %v", tc.in, got, err, tc.want)
		}
	}
}

func TestUserJSON_NeverLeaksPasswordHash(t *testing.T) {
	u := User{
		ID:           "u1",
		Email:        "sam@example.com",
		PasswordHash: "$2a$10$secret",
		Name:         "Sam",
		Role:         RoleCreator,
	}

	b, err := json.Marshal(u)

	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	if strings.Contains(string(b), "secret") {
		t.Fatalf("password hash leaked into json: %s", b)
	}
}

func TestHasPassword(t *testing.T) {
	if (User{}).HasPassword() {
		t.Fatalf("google-only account has no password")
	}

	if !(User{PasswordHash: "x"}).HasPassword() {
		t.Fatalf("account with hash should report a password")
	}
}
