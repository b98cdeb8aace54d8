package usecases

import (
	"errors"
	"fmt"
)

var (
	// ErrStorageUnavailable wraps every failure reported by the ledger or usage store.
	ErrStorageUnavailable = errors.New("storage unavailable")
	// ErrQuotaExhausted means the user has no requests left today.
	ErrQuotaExhausted = errors.New("daily quota exhausted")
	// ErrProviderFailure wraps errors returned by the AI provider.
	ErrProviderFailure = errors.New("ai provider failure")

	ErrPromptTooShort = errors.New("prompt too short")
	ErrPromptTooLong  = errors.New("prompt too long")
	ErrEmptyPrompt    = errors.New("prompt is empty")
)

func storageErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStorageUnavailable, err)
}
