// Package apperr defines the error kinds handlers translate into user-facing responses.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"gorm.io/gorm"
)

// Kind classifies an error for the HTTP boundary.
type Kind int

const (
	KindInternal Kind = iota
	KindAuthentication
	KindAuthorization
	KindNotFound
	KindValidation
	KindConflict
	KindStorage
)

func (k Kind) String() string {
	switch k {
	case KindAuthentication:
		return "authentication"
	case KindAuthorization:
		return "authorization"
	case KindNotFound:
		return "not_found"
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindStorage:
		return "storage"
	}
	return "internal"
}

// Error is a classified error. Msg is safe to show to users; Err is logged only.
type Error struct {
	Kind   Kind
	Msg    string
	Fields map[string]string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches on kind so errors.Is(err, &Error{Kind: KindNotFound}) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Msg == "" || t.Msg == e.Msg)
}

// Sentinels for errors.Is checks.
var (
	ErrNotFound      = &Error{Kind: KindNotFound}
	ErrValidation    = &Error{Kind: KindValidation}
	ErrUnauthorized  = &Error{Kind: KindAuthentication}
	ErrForbidden     = &Error{Kind: KindAuthorization}
	ErrConflict      = &Error{Kind: KindConflict}
	ErrStorageFailed = &Error{Kind: KindStorage}
)

func Authentication(msg string) error { return &Error{Kind: KindAuthentication, Msg: msg} }

func Authorization(msg string) error { return &Error{Kind: KindAuthorization, Msg: msg} }

func NotFound(what string) error { return &Error{Kind: KindNotFound, Msg: what + " not found"} }

func Conflict(msg string) error { return &Error{Kind: KindConflict, Msg: msg} }

// Storage wraps a database or file-system failure.
func Storage(op string, err error) error {
	return &Error{Kind: KindStorage, Msg: op, Err: err}
}

// DB maps gorm errors: ErrRecordNotFound becomes NotFound(what), anything else Storage(op).
func DB(op, what string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return NotFound(what)
	}
	return Storage(op, err)
}

// ValidationErrors accumulates per-field messages.
type ValidationErrors map[string]string

func (v ValidationErrors) Add(field, msg string) {
	if _, exists := v[field]; !exists {
		v[field] = msg
	}
}

// Err returns nil when empty, otherwise a KindValidation error carrying the fields.
func (v ValidationErrors) Err() error {
	if len(v) == 0 {
		return nil
	}
	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+v[k])
	}
	fields := make(map[string]string, len(v))
	for k, m := range v {
		fields[k] = m
	}
	return &Error{Kind: KindValidation, Msg: strings.Join(parts, "; "), Fields: fields}
}

// Validation builds a single-field validation error.
func Validation(field, msg string) error {
	return ValidationErrors{field: msg}.Err()
}

// KindOf returns the kind of the first *Error in the chain, KindInternal otherwise.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// FieldsOf returns validation field messages, or nil.
func FieldsOf(err error) map[string]string {
	var e *Error
	if errors.As(err, &e) {
		return e.Fields
	}
	return nil
}

// Status maps an error to its HTTP status code.
func Status(err error) int {
	switch KindOf(err) {
	case KindAuthentication:
		return http.StatusUnauthorized
	case KindAuthorization:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindValidation:
		return http.StatusUnprocessableEntity
	case KindConflict:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// PublicMessage is what the user sees. Storage and internal details never leak.
func PublicMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		switch e.Kind {
		case KindStorage, KindInternal:
			return "Terjadi kesalahan pada server. Silakan coba lagi."
		}
		return e.Msg
	}
	return "Terjadi kesalahan pada server. Silakan coba lagi."
}
