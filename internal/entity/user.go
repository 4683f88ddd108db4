package entity

import (
	"strings"
	"time"
)

// User is the local record of an externally authenticated user. Subject is
// the opaque handle issued by the identity provider; this service never sees
// or stores credentials.
type User struct {
	ID        int64
	Subject   string
	Nickname  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Normalize ensures defaults & constraints before persistence.
func (u *User) Normalize(now time.Time) {
	u.Subject = strings.TrimSpace(u.Subject)
	u.Nickname = strings.TrimSpace(u.Nickname)
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
}

// Validate validates the user entity.
func (u *User) Validate() error {
	if strings.TrimSpace(u.Subject) == "" {
		return ErrInvalidUserSubject
	}
	return nil
}
