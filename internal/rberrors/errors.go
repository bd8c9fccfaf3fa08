// Package rberrors provides the structured error type returned alongside
// the nil/none results the allocator's core contract (see SPEC_FULL.md §7)
// is specified in terms of.
package rberrors

import (
	"fmt"
	"runtime"
)

// Kind classifies why a top-level allocator operation failed.
type Kind string

const (
	// OutOfMemory means the heap-growth primitive refused to extend.
	OutOfMemory Kind = "OUT_OF_MEMORY"
	// BadRequest means the caller's arguments are outside the contract
	// (zero size, zero count, ...).
	BadRequest Kind = "BAD_REQUEST"
	// InvalidPointer means the caller handed back a pointer this
	// allocator did not hand out, or one already freed.
	InvalidPointer Kind = "INVALID_POINTER"
)

// Error is the structured error value the rbheap package attaches to a
// nil/none result. The nil result itself remains the primary signal per
// SPEC_FULL.md §6; Error is strictly additional information.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Caller  string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("[%s] %s: %s (caller: %s)", e.Kind, e.Op, e.Message, e.Caller)
}

// New builds an Error, capturing the immediate caller for diagnostics the
// same way the teacher's StandardError did.
func New(kind Kind, op, message string) *Error {
	caller := "unknown"

	if pc, _, _, ok := runtime.Caller(1); ok {
		if fn := runtime.FuncForPC(pc); fn != nil {
			caller = fn.Name()
		}
	}

	return &Error{Kind: kind, Op: op, Message: message, Caller: caller}
}

// Common constructors used by the policy layer.

func ZeroSize(op string) *Error {
	return New(BadRequest, op, "requested size is zero")
}

func ZeroCount(op string) *Error {
	return New(BadRequest, op, "element count is zero")
}

func HeapExhausted(op string, requested uintptr) *Error {
	return New(OutOfMemory, op, fmt.Sprintf("heap primitive refused to extend by %d bytes", requested))
}

func NotAllocated(op string) *Error {
	return New(InvalidPointer, op, "pointer does not reference a currently-allocated block")
}
