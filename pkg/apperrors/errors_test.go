package apperrors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindValidation, KindOf(Validation("bad input")))
	assert.Equal(t, KindConflict, KindOf(Conflict("taken")))
	assert.Equal(t, KindForbidden, KindOf(Forbidden("not yours")))
	assert.Equal(t, KindNotFound, KindOf(NotFound("asset")))
	assert.Equal(t, Kind(""), KindOf(assert.AnError))
	assert.Equal(t, Kind(""), KindOf(nil))
}

func TestKindOfWrapped(t *testing.T) {
	wrapped := fmt.Errorf("creating assignment: %w", Conflict("User is already assigned"))
	assert.Equal(t, KindConflict, KindOf(wrapped))
}

func TestErrorMessage(t *testing.T) {
	assert.EqualError(t, NotFound("asset"), "asset: not found")
	assert.EqualError(t, Conflict("User is already assigned"), "User is already assigned")
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{Validation("bad"), http.StatusBadRequest},
		{Conflict("taken"), http.StatusConflict},
		{Forbidden("no"), http.StatusForbidden},
		{NotFound("user"), http.StatusNotFound},
		{assert.AnError, http.StatusInternalServerError},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.status, HTTPStatus(tc.err))
	}
}

func TestWrapDBError(t *testing.T) {
	t.Run("unique violation becomes a conflict", func(t *testing.T) {
		err := WrapDBError(&pq.Error{Code: "23505", Detail: "Key (username)=(binhnv) already exists."})
		assert.Equal(t, KindConflict, KindOf(err))
	})

	t.Run("foreign key violation becomes a conflict", func(t *testing.T) {
		err := WrapDBError(&pq.Error{Code: "23503", Detail: "Key (category_id)=(4) is still referenced."})
		assert.Equal(t, KindConflict, KindOf(err))
	})

	t.Run("other errors pass through", func(t *testing.T) {
		assert.Equal(t, assert.AnError, WrapDBError(assert.AnError))
		assert.NoError(t, WrapDBError(nil))
	})
}
