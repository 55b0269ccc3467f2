package errorutil

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Kind classifies failures surfaced by the auth service.
type Kind string

const (
	KindIdentityNotFound   Kind = "IDENTITY_NOT_FOUND"
	KindCredentialMismatch Kind = "CREDENTIAL_MISMATCH"
	KindTokenInvalid       Kind = "TOKEN_INVALID"
	KindWrongTokenKind     Kind = "WRONG_TOKEN_KIND"
	KindIdentityGone       Kind = "IDENTITY_GONE"
	KindInternalFailure    Kind = "INTERNAL_FAILURE"
	KindValidationFailed   Kind = "VALIDATION_FAILED"
	KindRateLimited        Kind = "RATE_LIMITED"
)

// kindStatus is the taxonomy: every kind has exactly one HTTP status.
var kindStatus = map[Kind]int{
	KindIdentityNotFound:   http.StatusUnauthorized,
	KindCredentialMismatch: http.StatusUnauthorized,
	KindTokenInvalid:       http.StatusUnauthorized,
	KindWrongTokenKind:     http.StatusUnauthorized,
	KindIdentityGone:       http.StatusUnauthorized,
	KindInternalFailure:    http.StatusInternalServerError,
	KindValidationFailed:   http.StatusBadRequest,
	KindRateLimited:        http.StatusTooManyRequests,
}

// statusTemplates renders messages by HTTP status. %s is the related identifier.
var statusTemplates = map[int]string{
	http.StatusNotFound:            "Resource with ID %s not found",
	http.StatusBadRequest:          "Invalid request for resource %s",
	http.StatusUnauthorized:        "Unauthorized access to resource %s",
	http.StatusForbidden:           "Access forbidden for resource %s",
	http.StatusInternalServerError: "Internal server error processing resource %s",
	http.StatusServiceUnavailable:  "Service temporarily unavailable for resource %s",
	http.StatusConflict:            "Conflict detected for resource %s",
	http.StatusUnprocessableEntity: "Unable to process resource %s",
	http.StatusTooManyRequests:     "Too many requests for resource %s",
}

// DomainError standardizes application errors.
type DomainError struct {
	Kind       Kind
	Code       string
	Message    string
	HTTPStatus int
	Related    string
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// StatusOf returns the HTTP status assigned to kind.
func StatusOf(kind Kind) int {
	if status, ok := kindStatus[kind]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// FormatMessage renders the status template for related and prefixes the code.
// An empty related value drops the placeholder.
func FormatMessage(status int, related, code string) string {
	template, ok := statusTemplates[status]
	if !ok {
		template = statusTemplates[http.StatusInternalServerError]
	}

	var base string
	if related == "" {
		base = strings.Replace(strings.Replace(template, " %s", "", 1), "%s ", "", 1)
	} else {
		base = fmt.Sprintf(template, related)
	}

	if strings.TrimSpace(code) != "" {
		return "[" + code + "] " + base
	}
	return base
}

// New constructs a DomainError for kind. related is the username or token
// subject involved and must never be a secret.
func New(kind Kind, code, related string, err error) *DomainError {
	status := StatusOf(kind)
	return &DomainError{
		Kind:       kind,
		Code:       code,
		Message:    FormatMessage(status, related, code),
		HTTPStatus: status,
		Related:    related,
		Err:        err,
	}
}

func NewValidationError(message string, details map[string]any) error {
	return &DomainError{
		Kind:       KindValidationFailed,
		Code:       "VALIDATION_FAILED",
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
		Details:    details,
	}
}

func NewInternalError(err error) error {
	return New(KindInternalFailure, "INTERNAL_ERROR", "", err)
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return New(KindInternalFailure, "INTERNAL_ERROR", "", err)
}

// Envelope is the JSON body returned for failed requests.
type Envelope struct {
	Timestamp string `json:"timestamp"`
	Status    int    `json:"status"`
	Error     string `json:"error"`
	Trace     string `json:"trace"`
	Message   string `json:"message"`
	Path      string `json:"path"`
}

// NewEnvelope renders err for the request at path. The caller supplies path
// and trace explicitly.
func NewEnvelope(err error, path, trace string, now time.Time) Envelope {
	domainErr := ToDomainError(err)
	return Envelope{
		Timestamp: now.Format("2006-01-02T15:04:05.000Z07:00"),
		Status:    domainErr.HTTPStatus,
		Error:     http.StatusText(domainErr.HTTPStatus),
		Trace:     trace,
		Message:   domainErr.Message,
		Path:      path,
	}
}
