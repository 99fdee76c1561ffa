package sensor

import (
	"errors"
	"fmt"
)

var (
	// ErrTransient marks a recoverable acquisition hiccup. Consumers log
	// and retry indefinitely.
	ErrTransient = errors.New("sensor: transient acquisition error")

	// ErrFatal marks an unrecoverable source failure such as a device
	// disconnect. Consumers stop and release the source.
	ErrFatal = errors.New("sensor: fatal source error")
)

// Transient wraps err as a transient acquisition error.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrTransient, err)
}

// Fatal wraps err as a fatal source error.
func Fatal(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrFatal, err)
}

// IsFatal reports whether err was marked fatal.
// Pull errors that are not marked fatal are treated as transient.
func IsFatal(err error) bool {
	return errors.Is(err, ErrFatal)
}

// IsTransient reports whether err is a non-nil error that is not fatal.
func IsTransient(err error) bool {
	return err != nil && !IsFatal(err)
}
