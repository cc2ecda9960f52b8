package error

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorsImplementGenericError(t *testing.T) {
	cases := []struct {
		err    GenericError
		code   string
		status int
	}{
		{ValidationError("bad"), "VALIDATION_ERROR", http.StatusBadRequest},
		{ForbiddenError("nope"), "FORBIDDEN", http.StatusForbidden},
		{NotFoundError("gone"), "NOT_FOUND_ERROR", http.StatusNotFound},
		{InternalServerError("boom"), "INTERNAL_SERVER_ERROR", http.StatusInternalServerError},
		{WebhookError("dropped"), "WEBHOOK_ERROR", http.StatusOK},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.code, tc.err.ErrCode())
		assert.Equal(t, tc.status, tc.err.StatusCode())
		assert.NotEmpty(t, tc.err.Error())
	}
}
