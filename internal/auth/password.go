package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Matcher compares a submitted secret with a stored credential. Implementations
// must take the same time regardless of where the inputs first differ.
type Matcher interface {
	Matches(plain, stored string) bool
}

// Matches delegates the credential check to matcher. A nil matcher never matches.
func Matches(submitted, stored string, matcher Matcher) bool {
	if matcher == nil {
		return false
	}
	return matcher.Matches(submitted, stored)
}

// BcryptMatcher treats stored values as bcrypt hashes.
type BcryptMatcher struct{}

// Matches implements Matcher.
func (BcryptMatcher) Matches(plain, stored string) bool {
	return bcrypt.CompareHashAndPassword([]byte(stored), []byte(plain)) == nil
}

// PlainMatcher compares plaintext values. Both sides are hashed first so
// inputs of different length are compared in constant time too.
type PlainMatcher struct{}

// Matches implements Matcher.
func (PlainMatcher) Matches(plain, stored string) bool {
	a := sha256.Sum256([]byte(plain))
	b := sha256.Sum256([]byte(stored))
	return subtle.ConstantTimeCompare(a[:], b[:]) == 1
}

// Password storage schemes accepted by MatcherFor.
const (
	SchemeBcrypt = "bcrypt"
	SchemePlain  = "plain"
)

// MatcherFor returns the matcher for the storage scheme of user_info.password.
func MatcherFor(scheme string) (Matcher, error) {
	switch scheme {
	case SchemeBcrypt, "":
		return BcryptMatcher{}, nil
	case SchemePlain:
		return PlainMatcher{}, nil
	default:
		return nil, fmt.Errorf("unknown password scheme %q", scheme)
	}
}

// HashPassword hashes a plaintext password with configured cost.
func HashPassword(password string, cost int) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}
