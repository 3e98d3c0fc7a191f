package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusOf(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{Validation("bad"), http.StatusBadRequest},
		{Conflict("dup"), http.StatusBadRequest},
		{SignatureMismatch("sig"), http.StatusBadRequest},
		{Auth("no token"), http.StatusUnauthorized},
		{Permission("nope"), http.StatusForbidden},
		{NotFound("gone"), http.StatusNotFound},
		{errors.New("boom"), http.StatusInternalServerError},
		{Wrap(errors.New("db down"), "Failed to load"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusOf(tt.err), tt.err.Error())
	}
}

func TestWrapKeepsTypedErrors(t *testing.T) {
	inner := NotFound("Order not found")
	wrapped := Wrap(fmt.Errorf("lookup: %w", inner), "ignored")

	assert.Equal(t, KindNotFound, KindOf(wrapped))
	assert.Equal(t, "Order not found", MessageOf(wrapped))
	assert.Nil(t, Wrap(nil, "x"))
}

func TestMessageOfHidesInternalCause(t *testing.T) {
	err := Wrap(errors.New("dial tcp 10.0.0.1: refused"), "Failed to create order")

	assert.Equal(t, "Failed to create order", MessageOf(err))
	assert.Contains(t, err.Error(), "refused")
	assert.Equal(t, "Internal server error", MessageOf(errors.New("raw")))
	assert.True(t, Is(err, KindInternal))
}

func TestFieldsOf(t *testing.T) {
	err := New(KindPermission, "Invalid admin secret key", FieldError{Field: "adminSecretKey", Message: "The admin secret key you entered is incorrect"})
	assert.Equal(t, http.StatusForbidden, StatusOf(err))
	assert.Equal(t, []FieldError{{Field: "adminSecretKey", Message: "The admin secret key you entered is incorrect"}}, FieldsOf(fmt.Errorf("register: %w", err)))
	assert.Nil(t, FieldsOf(errors.New("plain")))
}
