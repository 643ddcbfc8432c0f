package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestErrors_Existence tests that all error variables exist and are not nil
func TestErrors_Existence(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"ErrNotFound", ErrNotFound},
		{"ErrInvalidInput", ErrInvalidInput},
		{"ErrUnknownEntityType", ErrUnknownEntityType},
		{"ErrInvalidAction", ErrInvalidAction},
		{"ErrTransport", ErrTransport},
		{"ErrRemoteNotConfigured", ErrRemoteNotConfigured},
		{"ErrRateLimited", ErrRateLimited},
		{"ErrApplyFailed", ErrApplyFailed},
		{"ErrAuthRequired", ErrAuthRequired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotNil(t, tt.err)
			assert.NotEmpty(t, tt.err.Error())
		})
	}
}

// TestErrors_Distinct tests that no two sentinel errors match each other
func TestErrors_Distinct(t *testing.T) {
	all := []error{
		ErrNotFound, ErrInvalidInput, ErrUnknownEntityType, ErrInvalidAction,
		ErrTransport, ErrRemoteNotConfigured, ErrRateLimited, ErrApplyFailed,
		ErrAuthRequired,
	}

	for i, a := range all {
		for j, b := range all {
			if i == j {
				continue
			}
			assert.False(t, errors.Is(a, b), "%v should not match %v", a, b)
		}
	}
}

// TestErrors_Wrapping tests that wrapped sentinels are still detected
func TestErrors_Wrapping(t *testing.T) {
	wrapped := fmt.Errorf("uploading batch: %w", ErrTransport)
	assert.True(t, errors.Is(wrapped, ErrTransport))
	assert.False(t, errors.Is(wrapped, ErrAuthRequired))
	assert.Contains(t, wrapped.Error(), "sync transport failed")
}
