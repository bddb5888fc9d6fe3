package blog

import "strings"

// ErrorKind classifies a failed Result.
type ErrorKind string

const (
	KindValidation ErrorKind = "validation"
	KindNotFound   ErrorKind = "not_found"
	KindStore      ErrorKind = "store"
)

// MsgNotFound is the error message for unresolved IDs and slugs.
const MsgNotFound = "Post not found"

// Result is the envelope every Manager operation returns. Success is false
// exactly when Error is set.
type Result[T any] struct {
	Success bool      `json:"success"`
	Data    T         `json:"data"`
	Error   string    `json:"error,omitempty"`
	Errors  []string  `json:"errors,omitempty"`
	Kind    ErrorKind `json:"-"`
}

// Empty is the payload of operations that return nothing.
type Empty struct{}

func ok[T any](data T) Result[T] {
	return Result[T]{Success: true, Data: data}
}

func fail[T any](kind ErrorKind, msg string) Result[T] {
	return Result[T]{Kind: kind, Error: msg}
}

func invalid[T any](errs []string) Result[T] {
	return Result[T]{Kind: KindValidation, Error: strings.Join(errs, "; "), Errors: errs}
}
