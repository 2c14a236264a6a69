// ABOUTME: KernelError hierarchy for the orchestration kernel's error taxonomy.
// ABOUTME: Mirrors the llm package's SDKError/ProviderError embedding so errors.As/Is work end to end.
package core

import "fmt"

// Kind classifies a KernelError per the taxonomy in the error handling design.
type Kind string

const (
	KindBadRequest           Kind = "bad_request"
	KindUnauthenticated      Kind = "unauthenticated"
	KindForbidden            Kind = "forbidden"
	KindNotFound             Kind = "not_found"
	KindInvalidTransition    Kind = "invalid_transition"
	KindRetryBudgetExceeded  Kind = "retry_budget_exceeded"
	KindProviderTransient    Kind = "provider_transient"
	KindProviderFatal        Kind = "provider_fatal"
	KindStoreIntegrity       Kind = "store_integrity"
)

// KernelError is the base error type for all domain errors raised by the
// kernel. It carries a Kind so the API layer can translate it to an HTTP
// status without inspecting error strings.
type KernelError struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *KernelError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *KernelError) Unwrap() error {
	return e.Cause
}

// Is allows errors.Is(err, &KernelError{Kind: K}) to match on Kind alone.
func (e *KernelError) Is(target error) bool {
	t, ok := target.(*KernelError)
	if !ok {
		return false
	}
	if t.Kind == "" {
		return false
	}
	return e.Kind == t.Kind
}

func newKernelError(kind Kind, format string, args ...any) *KernelError {
	return &KernelError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func NewBadRequest(format string, args ...any) *KernelError {
	return newKernelError(KindBadRequest, format, args...)
}

func NewUnauthenticated(format string, args ...any) *KernelError {
	return newKernelError(KindUnauthenticated, format, args...)
}

func NewForbidden(format string, args ...any) *KernelError {
	return newKernelError(KindForbidden, format, args...)
}

func NewNotFound(format string, args ...any) *KernelError {
	return newKernelError(KindNotFound, format, args...)
}

func NewInvalidTransition(format string, args ...any) *KernelError {
	return newKernelError(KindInvalidTransition, format, args...)
}

func NewRetryBudgetExceeded(format string, args ...any) *KernelError {
	return newKernelError(KindRetryBudgetExceeded, format, args...)
}

func NewProviderTransient(cause error, format string, args ...any) *KernelError {
	e := newKernelError(KindProviderTransient, format, args...)
	e.Cause = cause
	return e
}

func NewProviderFatal(cause error, format string, args ...any) *KernelError {
	e := newKernelError(KindProviderFatal, format, args...)
	e.Cause = cause
	return e
}

func NewStoreIntegrity(cause error, format string, args ...any) *KernelError {
	e := newKernelError(KindStoreIntegrity, format, args...)
	e.Cause = cause
	return e
}

// KindOf extracts the Kind of a KernelError in the err chain, or "" if none
// is present.
func KindOf(err error) Kind {
	var ke *KernelError
	for err != nil {
		if k, ok := err.(*KernelError); ok {
			ke = k
			break
		}
		unwrapper, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = unwrapper.Unwrap()
	}
	if ke == nil {
		return ""
	}
	return ke.Kind
}
