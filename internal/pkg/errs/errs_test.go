//go:build unit

package errs_test

import (
	"errors"
	"fmt"
	"testing"

	"nyumbani/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMark(t *testing.T) {
	t.Run("mark is visible to the stdlib errors.Is", func(t *testing.T) {
		cause := errs.New("start must be before end")
		err := errs.Mark(cause, errs.ErrValidation)

		assert.True(t, errors.Is(err, errs.ErrValidation))
	})

	t.Run("the cause chain survives", func(t *testing.T) {
		cause := errs.New("connection refused")
		err := errs.Wrap(errs.Mark(cause, errs.ErrGatewayUnavailable), "stk push")

		assert.True(t, errors.Is(err, errs.ErrGatewayUnavailable))
		assert.Contains(t, err.Error(), "connection refused")
	})

	t.Run("sentinels do not bleed into each other", func(t *testing.T) {
		err := errs.Mark(errs.New("boom"), errs.ErrValidation)

		assert.False(t, errors.Is(err, errs.ErrGatewayUnavailable))
		assert.False(t, errors.Is(err, errs.ErrBookingConflict))
	})

	t.Run("marking nil yields the bare sentinel", func(t *testing.T) {
		err := errs.Mark(nil, errs.ErrAlreadyFinalized)
		require.ErrorIs(t, err, errs.ErrAlreadyFinalized)
	})

	t.Run("verbose formatting keeps the cause", func(t *testing.T) {
		err := errs.Mark(errs.New("boom"), errs.ErrValidation)
		assert.Contains(t, fmt.Sprintf("%+v", err), "boom")
	})
}
