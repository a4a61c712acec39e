package mocks

import "errors"

// MockPasswordVerifier is a hand-written auth.PasswordVerifier double. The
// zero value rejects every password; set ShouldSucceed to accept instead.
type MockPasswordVerifier struct {
	ShouldSucceed bool

	// LastHashedPassword and LastPassword hold the arguments from the most
	// recent Compare call. CompareCalls counts invocations.
	LastHashedPassword string
	LastPassword       string
	CompareCalls       int
}

// Compare records its arguments and answers according to ShouldSucceed.
func (m *MockPasswordVerifier) Compare(hashedPassword, password string) error {
	m.LastHashedPassword = hashedPassword
	m.LastPassword = password
	m.CompareCalls++

	if m.ShouldSucceed {
		return nil
	}
	return errors.New("password mismatch")
}
