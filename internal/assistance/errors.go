package assistance

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// Code classifies workflow errors. Every failure of the engagement workflow
// is scoped to a single request; none is fatal to the process.
type Code string

const (
	CodeValidation         Code = "VALIDATION_ERROR"
	CodeInvalidState       Code = "INVALID_STATE"
	CodePreconditionFailed Code = "PRECONDITION_FAILED"
	CodeStaleOffer         Code = "STALE_OFFER"
	CodeConflict           Code = "CONFLICT"
	CodeForbidden          Code = "FORBIDDEN"
)

// WorkflowError is returned by the service layer; handlers translate it to
// an HTTP status, non-HTTP callers branch on the code.
type WorkflowError struct {
	Code    Code
	Message string
}

func (e *WorkflowError) Error() string { return e.Message }

// CodeOf extracts the workflow code from err, or "" for foreign errors.
func CodeOf(err error) Code {
	var we *WorkflowError
	if errors.As(err, &we) {
		return we.Code
	}
	return ""
}

func errValidation(format string, args ...any) error {
	return &WorkflowError{Code: CodeValidation, Message: fmt.Sprintf(format, args...)}
}

func errInvalidState(format string, args ...any) error {
	return &WorkflowError{Code: CodeInvalidState, Message: fmt.Sprintf(format, args...)}
}

func errPrecondition(format string, args ...any) error {
	return &WorkflowError{Code: CodePreconditionFailed, Message: fmt.Sprintf(format, args...)}
}

func errStaleOffer(format string, args ...any) error {
	return &WorkflowError{Code: CodeStaleOffer, Message: fmt.Sprintf(format, args...)}
}

func errConflict() error {
	return &WorkflowError{Code: CodeConflict, Message: "request was modified concurrently, please refresh"}
}

func errForbidden(format string, args ...any) error {
	return &WorkflowError{Code: CodeForbidden, Message: fmt.Sprintf(format, args...)}
}

// toHTTPError maps service errors onto Fiber errors for the global handler.
func toHTTPError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fiber.ErrNotFound
	}
	var we *WorkflowError
	if !errors.As(err, &we) {
		return fiber.ErrInternalServerError
	}
	switch we.Code {
	case CodeValidation:
		return fiber.NewError(fiber.StatusBadRequest, we.Message)
	case CodeForbidden:
		return fiber.NewError(fiber.StatusForbidden, we.Message)
	case CodeInvalidState, CodeConflict:
		return fiber.NewError(fiber.StatusConflict, we.Message)
	case CodePreconditionFailed, CodeStaleOffer:
		return fiber.NewError(fiber.StatusUnprocessableEntity, we.Message)
	default:
		return fiber.ErrInternalServerError
	}
}
