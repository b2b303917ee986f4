package errors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestMap(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"gorm not found", gorm.ErrRecordNotFound, http.StatusNotFound},
		{"wrapped not found", fmt.Errorf("load user: %w", ErrNotFound), http.StatusNotFound},
		{"insufficient funds", ErrInsufficientFunds, http.StatusBadRequest},
		{"already claimed", ErrAlreadyClaimed, http.StatusBadRequest},
		{"unknown mission", ErrUnknownMission, http.StatusBadRequest},
		{"forbidden", ErrForbidden, http.StatusForbidden},
		{"upstream", fmt.Errorf("presign: %w", ErrUpstream), http.StatusBadGateway},
		{"deadline", context.DeadlineExceeded, http.StatusGatewayTimeout},
		{"other", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Map(tc.err)
			assert.Equal(t, tc.status, got.Status)
			assert.NotEmpty(t, got.Message)
		})
	}
}

func TestMap_Nil(t *testing.T) {
	assert.Nil(t, Map(nil))
}

func TestConstructorsKeepMessageAndCause(t *testing.T) {
	err := InvalidArgument("targetUserId is required")
	mapped := Map(err)
	assert.Equal(t, http.StatusBadRequest, mapped.Status)
	assert.Equal(t, "targetUserId is required", mapped.Message)
	assert.ErrorIs(t, err, ErrValidation)

	err = NotFound("user not found")
	assert.Equal(t, http.StatusNotFound, Map(err).Status)
	assert.ErrorIs(t, err, ErrNotFound)
}
