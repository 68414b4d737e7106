// Package result provides the tagged success/failure value returned by every
// journal, store and retrieval operation.
//
// A [Result] is either Ok(value) or Err(kind, message). Expected failure
// paths (validation, not found, upstream outages) are reported through the
// [Kind] tag rather than panics or bare errors, so transport layers can map
// them to stable codes. Upstream causes are kept as a samber/oops chain whose
// code is the kind, which is what log lines and [KindOf] read back.
package result

import (
	"net/http"

	"github.com/samber/oops"
)

// Kind is the stable, machine-readable failure tag carried by an Err result.
type Kind string

const (
	KindEmptyFields       Kind = "EMPTY_FIELDS"
	KindTitleTooLong      Kind = "TITLE_TOO_LONG"
	KindContentTooLong    Kind = "CONTENT_TOO_LONG"
	KindMissingFields     Kind = "MISSING_FIELDS"
	KindMissingUserID     Kind = "MISSING_USER_ID"
	KindMissingJournalID  Kind = "MISSING_JOURNAL_ID"
	KindMissingParameters Kind = "MISSING_PARAMETERS"
	KindJournalNotFound   Kind = "JOURNAL_NOT_FOUND"
	KindEmbeddingError    Kind = "EMBEDDING_ERROR"
	KindSaveError         Kind = "SAVE_ERROR"
	KindRetrievalError    Kind = "RETRIEVAL_ERROR"
	KindSearchError       Kind = "SEARCH_ERROR"
	KindDeleteError       Kind = "DELETE_ERROR"
	KindUnauthorized      Kind = "UNAUTHORIZED"
	KindGenerationError   Kind = "GENERATION_ERROR"
)

// Result is the outcome of an operation: a value of type T or a tagged failure.
// The zero value is an Err with an empty kind and should not be relied upon.
type Result[T any] struct {
	value T
	ok    bool
	kind  Kind
	msg   string
	err   error
}

// Ok returns a successful result carrying v.
func Ok[T any](v T) Result[T] {
	return Result[T]{value: v, ok: true}
}

// Err returns a failed result. attrs are key/value pairs attached to the
// underlying oops error for structured logging.
func Err[T any](kind Kind, msg string, attrs ...any) Result[T] {
	return Result[T]{
		kind: kind,
		msg:  msg,
		err:  oops.Code(string(kind)).With(attrs...).New(msg),
	}
}

// Wrap returns a failed result whose cause chain includes cause.
// A nil cause behaves like [Err].
func Wrap[T any](kind Kind, msg string, cause error, attrs ...any) Result[T] {
	if cause == nil {
		return Err[T](kind, msg, attrs...)
	}
	return Result[T]{
		kind: kind,
		msg:  msg,
		err:  oops.Code(string(kind)).With(attrs...).Wrapf(cause, "%s", msg),
	}
}

// Fail re-types a failed result so it can be propagated from a function
// returning a different value type. Passing an Ok result panics.
func Fail[T, U any](r Result[U]) Result[T] {
	if r.ok {
		panic("result: Fail called on Ok result")
	}
	return Result[T]{kind: r.kind, msg: r.msg, err: r.err}
}

// IsOk reports whether r is a success.
func (r Result[T]) IsOk() bool { return r.ok }

// Value returns the success value, or the zero value of T for an Err.
func (r Result[T]) Value() T { return r.value }

// Kind returns the failure tag, or "" for an Ok result.
func (r Result[T]) Kind() Kind { return r.kind }

// Message returns the human-readable failure message, or "" for an Ok result.
func (r Result[T]) Message() string { return r.msg }

// Err returns the oops error behind a failed result, or nil for Ok.
func (r Result[T]) Err() error {
	if r.ok {
		return nil
	}
	return r.err
}

// Unwrap converts r into the conventional (value, error) pair.
func (r Result[T]) Unwrap() (T, error) {
	return r.value, r.Err()
}

// KindOf extracts the Kind from an error produced by a failed Result.
// It returns "" for errors that did not originate here.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return ""
	}
	code, ok := oopsErr.Code().(string)
	if !ok {
		return ""
	}
	return Kind(code)
}

// IsValidation reports whether k describes a caller-input problem.
func (k Kind) IsValidation() bool {
	switch k {
	case KindEmptyFields, KindTitleTooLong, KindContentTooLong, KindMissingFields,
		KindMissingUserID, KindMissingJournalID, KindMissingParameters:
		return true
	}
	return false
}

// IsUpstream reports whether k describes a failure of a dependency
// (embedding model, vector store, generator).
func (k Kind) IsUpstream() bool {
	switch k {
	case KindEmbeddingError, KindSaveError, KindRetrievalError, KindSearchError,
		KindDeleteError, KindGenerationError:
		return true
	}
	return false
}

// HTTPStatus maps a Kind to the status code used by the HTTP API.
func HTTPStatus(k Kind) int {
	switch {
	case k.IsValidation():
		return http.StatusBadRequest
	case k == KindJournalNotFound:
		return http.StatusNotFound
	case k == KindUnauthorized:
		return http.StatusForbidden
	case k == KindGenerationError:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
