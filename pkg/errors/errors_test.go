package errors

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromErrorKeepsTypedErrors(t *testing.T) {
	wrapped := Wrap(errors.New("dial tcp"), ErrUpstream.Code, ErrUpstream.Status, "commitment lookup failed")
	got := FromError(wrapped)
	assert.Equal(t, http.StatusBadGateway, got.Status)
	assert.Equal(t, "commitment lookup failed: dial tcp", got.Error())
}

func TestFromErrorDefaultsToInternal(t *testing.T) {
	got := FromError(errors.New("boom"))
	assert.Equal(t, ErrInternal.Code, got.Code)
	assert.Nil(t, FromError(nil))
}

func TestCloneDoesNotMutateOriginal(t *testing.T) {
	clone := Clone(ErrNotFound, "session not found")
	assert.Equal(t, "session not found", clone.Message)
	assert.Equal(t, "resource not found", ErrNotFound.Message)
	assert.Nil(t, Clone(nil, "x"))
}
