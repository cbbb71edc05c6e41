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
	t.Run("matches direct error", func(t *testing.T) {
		err := New(CodeUnknownAsset, "asset not found")
		assert.True(t, HasCode(err, CodeUnknownAsset))
		assert.False(t, HasCode(err, CodeUnauthorized))
	})

	t.Run("matches through fmt wrapping", func(t *testing.T) {
		err := fmt.Errorf("lookup: %w", New(CodeUnknownAsset, "asset not found"))
		assert.True(t, HasCode(err, CodeUnknownAsset))
	})

	t.Run("matches inner code through Wrap", func(t *testing.T) {
		inner := New(CodeUnknownAsset, "asset not found")
		err := Wrap(inner, CodeInternal, "index read failed")
		assert.True(t, HasCode(err, CodeInternal))
		assert.True(t, HasCode(err, CodeUnknownAsset))
	})

	t.Run("plain errors carry no code", func(t *testing.T) {
		assert.False(t, HasCode(errors.New("boom"), CodeInternal))
		assert.False(t, HasCode(nil, CodeInternal))
	})
}

func TestWrapNil(t *testing.T) {
	require.NoError(t, Wrap(nil, CodeInternal, "ignored"))
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, CodeDuplicateAsset, CodeOf(New(CodeDuplicateAsset, "dup")))
	assert.Equal(t, CodeInternal, CodeOf(errors.New("boom")))
}

func TestToHTTPStatus(t *testing.T) {
	cases := map[Code]int{
		CodeUnauthorized:            http.StatusForbidden,
		CodeNotCurrentHolder:        http.StatusForbidden,
		CodeInvalidAsset:            http.StatusBadRequest,
		CodeInvalidCategory:         http.StatusBadRequest,
		CodeInvalidConditionsTarget: http.StatusBadRequest,
		CodeDuplicateAsset:          http.StatusConflict,
		CodeUnknownAsset:            http.StatusNotFound,
		CodeIndexOutOfRange:         http.StatusNotFound,
		CodeMissingConditions:       http.StatusPreconditionFailed,
		CodeInternal:                http.StatusInternalServerError,
	}
	for code, want := range cases {
		assert.Equal(t, want, ToHTTPStatus(code), string(code))
	}
}
