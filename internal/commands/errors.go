package commands

import (
	"context"
	"errors"

	goerrors "github.com/goliatone/go-errors"
)

const (
	validationFailedCode = "AGENDA_COMMAND_VALIDATION_FAILED"
	contextCanceledCode  = "AGENDA_COMMAND_CANCELED"
	contextTimeoutCode   = "AGENDA_COMMAND_TIMEOUT"
	contextErrorCode     = "AGENDA_COMMAND_CONTEXT_ERROR"
	executeFailedCode    = "AGENDA_COMMAND_FAILED"
)

// WrapValidationError tags a message validation failure.
func WrapValidationError(err error) error {
	if err == nil {
		return nil
	}
	if goerrors.IsWrapped(err) {
		return err
	}
	return goerrors.Wrap(err, goerrors.CategoryValidation, "command validation failed").
		WithTextCode(validationFailedCode)
}

// WrapContextError tags cancellation and deadline failures.
func WrapContextError(err error) error {
	if err == nil {
		return nil
	}
	if goerrors.IsWrapped(err) {
		return err
	}
	switch {
	case errors.Is(err, context.Canceled):
		return goerrors.Wrap(err, goerrors.CategoryCommand, "command execution cancelled").
			WithTextCode(contextCanceledCode)
	case errors.Is(err, context.DeadlineExceeded):
		return goerrors.Wrap(err, goerrors.CategoryCommand, "command execution deadline exceeded").
			WithTextCode(contextTimeoutCode)
	default:
		return goerrors.Wrap(err, goerrors.CategoryCommand, "command context error").
			WithTextCode(contextErrorCode)
	}
}

// WrapExecuteError tags a failure returned by the command body.
func WrapExecuteError(err error) error {
	if err == nil {
		return nil
	}
	if goerrors.IsWrapped(err) {
		return err
	}
	return goerrors.Wrap(err, goerrors.CategoryCommand, "command execution failed").
		WithTextCode(executeFailedCode)
}
