package apperr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorsIsMatchesKind(t *testing.T) {
	err := fmt.Errorf("turn failed: %w", New(KindModelCall, "tutor.level", errors.New("boom")))

	assert.ErrorIs(t, err, ErrModelCall)
	assert.NotErrorIs(t, err, ErrSynthesis)
	assert.Equal(t, KindModelCall, KindOf(err))
	assert.Equal(t, "turn failed: model_call: tutor.level: boom", err.Error())
}

func TestUnwrapReachesCause(t *testing.T) {
	err := New(KindTranscription, "transcribe", context.DeadlineExceeded)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestEnsureKeepsExistingKind(t *testing.T) {
	inner := New(KindInvalidSession, "tutor.evaluate", nil)
	assert.Same(t, inner, Ensure(KindModelCall, "outer", inner))

	wrapped := Ensure(KindModelCall, "partner", errors.New("x"))
	assert.ErrorIs(t, wrapped, ErrModelCall)
	assert.NoError(t, Ensure(KindModelCall, "partner", nil))
}

func TestHTTPStatus(t *testing.T) {
	cases := map[error]int{
		ErrInvalidSession:         http.StatusBadRequest,
		ErrUnsupportedProvider:    http.StatusBadRequest,
		ErrInvalidRequest:         http.StatusBadRequest,
		ErrTranscription:          http.StatusBadGateway,
		ErrModelCall:              http.StatusBadGateway,
		ErrSynthesis:              http.StatusBadGateway,
		errors.New("unclassified"): http.StatusInternalServerError,
	}
	for err, want := range cases {
		assert.Equal(t, want, HTTPStatus(err), err.Error())
	}
}
