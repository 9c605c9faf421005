package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasCode(t *testing.T) {
	t.Run("matches direct domain error", func(t *testing.T) {
		err := New(CodeTokenInvalid, "token rejected")
		assert.True(t, HasCode(err, CodeTokenInvalid))
		assert.False(t, HasCode(err, CodeWeakPassword))
	})

	t.Run("matches through fmt wrapping", func(t *testing.T) {
		inner := New(CodePMSNotFound, "no record")
		wrapped := fmt.Errorf("saga step: %w", inner)
		assert.True(t, HasCode(wrapped, CodePMSNotFound))
	})

	t.Run("plain errors carry no code", func(t *testing.T) {
		assert.False(t, HasCode(errors.New("boom"), CodeInternal))
	})
}

func TestWrap(t *testing.T) {
	t.Run("nil in, nil out", func(t *testing.T) {
		require.NoError(t, Wrap(nil, CodeInternal, "should vanish"))
	})

	t.Run("preserves the cause", func(t *testing.T) {
		cause := errors.New("connection reset")
		err := Wrap(cause, CodeUnavailable, "directory unreachable")
		assert.ErrorIs(t, err, cause)
		assert.True(t, HasCode(err, CodeUnavailable))
	})
}

func TestToHTTPStatus(t *testing.T) {
	cases := map[Code]int{
		CodeWeakPassword:   http.StatusBadRequest,
		CodeTokenInvalid:   http.StatusUnauthorized,
		CodePMSNotFound:    http.StatusBadGateway,
		CodePMSUnavailable: http.StatusServiceUnavailable,
		CodeConflict:       http.StatusConflict,
		Code("mystery"):    http.StatusInternalServerError,
	}
	for code, want := range cases {
		assert.Equal(t, want, ToHTTPStatus(code), string(code))
	}
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, CodeDirectoryFailed, CodeOf(New(CodeDirectoryFailed, "x")))
	assert.Equal(t, CodeInternal, CodeOf(errors.New("untyped")))
}
