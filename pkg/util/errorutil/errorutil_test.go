package errorutil

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusOfTaxonomy(t *testing.T) {
	tests := map[Kind]int{
		KindIdentityNotFound:   http.StatusUnauthorized,
		KindCredentialMismatch: http.StatusUnauthorized,
		KindTokenInvalid:       http.StatusUnauthorized,
		KindWrongTokenKind:     http.StatusUnauthorized,
		KindIdentityGone:       http.StatusUnauthorized,
		KindInternalFailure:    http.StatusInternalServerError,
		KindValidationFailed:   http.StatusBadRequest,
		KindRateLimited:        http.StatusTooManyRequests,
		Kind("SOMETHING_NEW"):  http.StatusInternalServerError,
	}
	for kind, status := range tests {
		assert.Equal(t, status, StatusOf(kind), kind)
	}
}

func TestFormatMessage(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		related string
		code    string
		want    string
	}{
		{name: "with related and code", status: http.StatusUnauthorized, related: "alice", code: "AUTH001", want: "[AUTH001] Unauthorized access to resource alice"},
		{name: "without related", status: http.StatusUnauthorized, code: "AUTH004", want: "[AUTH004] Unauthorized access to resource"},
		{name: "without code", status: http.StatusInternalServerError, want: "Internal server error processing resource"},
		{name: "placeholder first word", status: http.StatusNotFound, code: "X1", want: "[X1] Resource with ID not found"},
		{name: "unknown status falls back", status: http.StatusTeapot, related: "bob", want: "Internal server error processing resource bob"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatMessage(tt.status, tt.related, tt.code))
		})
	}
}

func TestNewWrapsCause(t *testing.T) {
	cause := errors.New("db down")
	err := New(KindInternalFailure, "AUTH003", "", cause)

	assert.Equal(t, http.StatusInternalServerError, err.HTTPStatus)
	assert.Equal(t, "[AUTH003] Internal server error processing resource", err.Message)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "db down")
}

func TestToDomainError(t *testing.T) {
	assert.Nil(t, ToDomainError(nil))

	domainErr := New(KindCredentialMismatch, "AUTH002", "alice", nil)
	wrapped := errors.Join(errors.New("context"), domainErr)
	assert.Same(t, domainErr, ToDomainError(wrapped))

	generic := ToDomainError(errors.New("boom"))
	assert.Equal(t, KindInternalFailure, generic.Kind)
	assert.Equal(t, http.StatusInternalServerError, generic.HTTPStatus)
}

func TestNewEnvelope(t *testing.T) {
	now := time.Date(2025, 3, 4, 5, 6, 7, 8_000_000, time.UTC)
	err := New(KindIdentityGone, "AUTH008", "alice", nil)

	envelope := NewEnvelope(err, "/auth/refresh", "trace-123", now)
	require.Equal(t, http.StatusUnauthorized, envelope.Status)
	assert.Equal(t, "2025-03-04T05:06:07.008Z", envelope.Timestamp)
	assert.Equal(t, "Unauthorized", envelope.Error)
	assert.Equal(t, "trace-123", envelope.Trace)
	assert.Equal(t, "[AUTH008] Unauthorized access to resource alice", envelope.Message)
	assert.Equal(t, "/auth/refresh", envelope.Path)
}
