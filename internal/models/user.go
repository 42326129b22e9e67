package models

import (
	"fmt"
	"time"

	"github.com/desertthunder/rango/internal/shared"
)

// User is an account that can log in and add categories and pages.
//
// The password is only ever held as a hash.
type User struct {
	record
	username     string
	email        string
	passwordHash string
	active       bool
}

var _ Model = (*User)(nil)

// NewUser creates an active user.
func NewUser(sequence int, username, email, passwordHash string) *User {
	return &User{
		record:       newRecord(sequence),
		username:     username,
		email:        email,
		passwordHash: passwordHash,
		active:       true,
	}
}

func (u *User) Username() string     { return u.username }
func (u *User) Email() string        { return u.email }
func (u *User) PasswordHash() string { return u.passwordHash }
func (u *User) IsActive() bool       { return u.active }

func (u *User) SetEmail(email string)       { u.email = email }
func (u *User) SetPasswordHash(hash string) { u.passwordHash = hash }
func (u *User) SetActive(active bool)       { u.active = active }

// Validate checks username and password hash presence.
func (u *User) Validate() error {
	if u.username == "" {
		return fmt.Errorf("%w: username is required", shared.ErrInvalidInput)
	}
	if u.passwordHash == "" {
		return fmt.Errorf("%w: password hash is required", shared.ErrInvalidInput)
	}
	return nil
}

// UserProfile holds the optional extras collected at registration.
// Picture is a reference (path or URL) only; uploads are not stored by rango.
type UserProfile struct {
	userID    string
	website   string
	picture   string
	createdAt time.Time
	updatedAt time.Time
}

var _ Model = (*UserProfile)(nil)

// NewUserProfile creates the profile for userID.
func NewUserProfile(userID, website, picture string) *UserProfile {
	now := time.Now().UTC()
	return &UserProfile{userID: userID, website: website, picture: picture, createdAt: now, updatedAt: now}
}

// ID returns the owning user's ID; profiles are one-to-one with users.
func (p *UserProfile) ID() string           { return p.userID }
func (p *UserProfile) UserID() string       { return p.userID }
func (p *UserProfile) Website() string      { return p.website }
func (p *UserProfile) Picture() string      { return p.picture }
func (p *UserProfile) CreatedAt() time.Time { return p.createdAt }
func (p *UserProfile) UpdatedAt() time.Time { return p.updatedAt }

func (p *UserProfile) SetWebsite(website string) { p.website = website }
func (p *UserProfile) SetPicture(picture string) { p.picture = picture }
func (p *UserProfile) SetCreatedAt(t time.Time)  { p.createdAt = t }
func (p *UserProfile) SetUpdatedAt(t time.Time)  { p.updatedAt = t }

// Validate checks the user reference.
func (p *UserProfile) Validate() error {
	if p.userID == "" {
		return fmt.Errorf("%w: profile must belong to a user", shared.ErrInvalidInput)
	}
	return nil
}
