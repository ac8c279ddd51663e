package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorString(t *testing.T) {
	err := Transport("comment list fetch failed", stderrors.New("connection reset"), `{"partial`)
	assert.Equal(t, "transport error: comment list fetch failed: connection reset", err.Error())
	assert.Equal(t, `{"partial`, err.RawBody)

	noCause := Signing("evaluator returned empty signature", nil)
	assert.Equal(t, "signing error: evaluator returned empty signature", noCause.Error())
}

func TestUnwrap(t *testing.T) {
	cause := stderrors.New("vm panic")
	err := Signing("sign call failed", cause)
	assert.ErrorIs(t, err, cause)
}

func TestClassification(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorType
	}{
		{"signing", Signing("x", nil), ErrorTypeSigning},
		{"transport", Transport("x", nil, ""), ErrorTypeTransport},
		{"image", Image("x", nil), ErrorTypeImage},
		{"wrapped", fmt.Errorf("fetch aweme: %w", Transport("x", nil, "")), ErrorTypeTransport},
		{"plain", stderrors.New("x"), ErrorTypeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TypeOf(tt.err))
		})
	}
}

func TestIsLoginRequired(t *testing.T) {
	assert.True(t, IsLoginRequired(fmt.Errorf("pong: %w", ErrLoginRequired)))
	assert.False(t, IsLoginRequired(Signing("x", nil)))
}
