package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type recordingMatcher struct {
	plain, stored string
	result        bool
}

func (m *recordingMatcher) Matches(plain, stored string) bool {
	m.plain, m.stored = plain, stored
	return m.result
}

func TestMatchesDelegatesToMatcher(t *testing.T) {
	m := &recordingMatcher{result: true}
	assert.True(t, Matches("submitted", "stored", m))
	assert.Equal(t, "submitted", m.plain)
	assert.Equal(t, "stored", m.stored)

	m.result = false
	assert.False(t, Matches("submitted", "stored", m))
}

func TestMatchesWithoutMatcher(t *testing.T) {
	assert.False(t, Matches("same", "same", nil))
}

func TestPlainMatcher(t *testing.T) {
	tests := []struct {
		name      string
		submitted string
		stored    string
		want      bool
	}{
		{name: "equal", submitted: "correct horse", stored: "correct horse", want: true},
		{name: "same length differs", submitted: "correct horsf", stored: "correct horse", want: false},
		{name: "differs in first byte", submitted: "Correct horse", stored: "correct horse", want: false},
		{name: "shorter", submitted: "correct", stored: "correct horse", want: false},
		{name: "longer", submitted: "correct horse battery", stored: "correct horse", want: false},
		{name: "both empty", submitted: "", stored: "", want: true},
		{name: "empty submitted", submitted: "", stored: "x", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Matches(tt.submitted, tt.stored, PlainMatcher{}))
		})
	}
}

func TestBcryptMatcher(t *testing.T) {
	hash, err := HashPassword("s3cret-pass", bcrypt.MinCost)
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret-pass", hash)

	tests := []struct {
		name      string
		submitted string
		stored    string
		want      bool
	}{
		{name: "matching", submitted: "s3cret-pass", stored: hash, want: true},
		{name: "same length wrong", submitted: "s3cret-pasS", stored: hash, want: false},
		{name: "different length wrong", submitted: "s3cret", stored: hash, want: false},
		{name: "stored not a hash", submitted: "s3cret-pass", stored: "s3cret-pass", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Matches(tt.submitted, tt.stored, BcryptMatcher{}))
		})
	}
}

func TestMatcherFor(t *testing.T) {
	m, err := MatcherFor(SchemeBcrypt)
	require.NoError(t, err)
	assert.IsType(t, BcryptMatcher{}, m)

	m, err = MatcherFor("")
	require.NoError(t, err)
	assert.IsType(t, BcryptMatcher{}, m)

	m, err = MatcherFor(SchemePlain)
	require.NoError(t, err)
	assert.IsType(t, PlainMatcher{}, m)
	assert.True(t, m.Matches("secret", "secret"))

	_, err = MatcherFor("md5")
	assert.Error(t, err)
}
