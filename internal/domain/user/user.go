package user

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"
)

var (
	ErrNotFound = errors.New("user: not found")
	ErrInvalid  = errors.New("user: invalid")
)

const (
	MinPasswordLen = 6
	MaxPasswordLen = 25
)

type User struct {
	ID        int64
	FirstName string
	LastName  string
	Email     string
	Age       int
	Password  string
	Sex       string
	Balance   float64
	// CartID is owned by the cart workflow; create and update payloads never set it.
	CartID *int64
}

// Summary is the short profile returned by list endpoints.
type Summary struct {
	ID        int64
	FirstName string
	LastName  string
	Email     string
}

type Patch struct {
	FirstName *string
	LastName  *string
	Email     *string
	Age       *int
	Password  *string
	Sex       *string
	Balance   *float64
}

func (u *User) Validate() error {
	if addr, err := mail.ParseAddress(u.Email); err != nil || addr.Address != strings.TrimSpace(u.Email) {
		return fmt.Errorf("%w: email %q is not a valid address", ErrInvalid, u.Email)
	}
	if u.Age < 0 {
		return fmt.Errorf("%w: age must be zero or greater", ErrInvalid)
	}
	if u.Password != "" {
		if n := len([]rune(u.Password)); n < MinPasswordLen || n > MaxPasswordLen {
			return fmt.Errorf("%w: password must be %d-%d characters", ErrInvalid, MinPasswordLen, MaxPasswordLen)
		}
	}
	if u.Balance < 0 {
		return fmt.Errorf("%w: balance must be zero or greater", ErrInvalid)
	}
	return nil
}

// Apply merges p into a copy of the user and validates the result. CartID is
// carried over untouched.
func (u *User) Apply(p Patch) (*User, error) {
	next := u.Clone()
	if p.FirstName != nil {
		next.FirstName = *p.FirstName
	}
	if p.LastName != nil {
		next.LastName = *p.LastName
	}
	if p.Email != nil {
		next.Email = *p.Email
	}
	if p.Age != nil {
		next.Age = *p.Age
	}
	if p.Password != nil {
		next.Password = *p.Password
	}
	if p.Sex != nil {
		next.Sex = *p.Sex
	}
	if p.Balance != nil {
		next.Balance = *p.Balance
	}
	if err := next.Validate(); err != nil {
		return nil, err
	}
	return next, nil
}

func (u *User) Summary() Summary {
	return Summary{ID: u.ID, FirstName: u.FirstName, LastName: u.LastName, Email: u.Email}
}

func (u *User) HasCart() bool { return u.CartID != nil }

func (u *User) AttachCart(cartID int64) { u.CartID = &cartID }

func (u *User) DetachCart() { u.CartID = nil }

func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	clone := *u
	if u.CartID != nil {
		id := *u.CartID
		clone.CartID = &id
	}
	return &clone
}
