package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Common validation errors for User
var (
	ErrEmptyUserID         = fmt.Errorf("%w: user ID cannot be empty", ErrValidation)
	ErrInvalidEmail        = fmt.Errorf("%w: invalid email format", ErrValidation)
	ErrEmptyEmail          = fmt.Errorf("%w: email cannot be empty", ErrValidation)
	ErrPasswordTooShort    = fmt.Errorf("%w: password must be at least 12 characters long", ErrValidation)
	ErrPasswordTooLong     = fmt.Errorf("%w: password must be at most 72 characters long", ErrValidation)
	ErrEmptyPassword       = fmt.Errorf("%w: password cannot be empty", ErrValidation)
	ErrEmptyHashedPassword = fmt.Errorf("%w: hashed password cannot be empty", ErrValidation)
)

// User represents a registered author account.
type User struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`

	// Password carries the plaintext only between the request and the
	// store's hashing step. It is empty on every read path.
	Password       string `json:"-"`
	HashedPassword string `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewUser builds a User with a fresh ID and timestamps and validates it.
// The plaintext password is carried as-is; hashing happens in the store.
func NewUser(email, password string) (*User, error) {
	now := time.Now().UTC()
	user := &User{
		ID:        uuid.New(),
		Email:     email,
		Password:  password,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := user.Validate(); err != nil {
		return nil, err
	}

	return user, nil
}

// Validate checks if the User has valid data.
// Returns an error if any field fails validation.
func (u *User) Validate() error {
	if u.ID == uuid.Nil {
		return ErrEmptyUserID
	}

	if u.Email == "" {
		return ErrEmptyEmail
	}

	if !validateEmailFormat(u.Email) {
		return ErrInvalidEmail
	}

	if u.Password != "" {
		// A plaintext password is present on create and on password change.
		if !validatePasswordLength(u.Password) {
			if len(u.Password) < minPasswordLength {
				return ErrPasswordTooShort
			}
			return ErrPasswordTooLong
		}
	} else {
		// Without a plaintext password the user must carry a hash, which is
		// the shape of every user loaded from the database.
		if u.HashedPassword == "" {
			return ErrEmptyPassword
		}
	}

	return nil
}

// validateEmailFormat performs a basic shape check on an email address:
// a non-empty local part, an @, and a domain with an interior dot.
//
// TODO: Replace this basic email validation with a more robust library.
func validateEmailFormat(email string) bool {
	at := strings.IndexByte(email, '@')
	if at <= 0 || at == len(email)-1 {
		return false
	}

	domain := email[at+1:]
	if len(domain) < 3 { // smallest plausible domain is "a.b"
		return false
	}

	dot := strings.IndexByte(domain, '.')
	return dot > 0 && dot < len(domain)-1
}

// Password length bounds. The upper bound is bcrypt's practical input limit.
const (
	minPasswordLength = 12
	maxPasswordLength = 72
)

// validatePasswordLength checks if a password meets the length requirements.
// Length is the requirement rather than character-class complexity: longer
// passwords beat shorter ones with special-character rules.
func validatePasswordLength(password string) bool {
	passLen := len(password)
	return passLen >= minPasswordLength && passLen <= maxPasswordLength
}
