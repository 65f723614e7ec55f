package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusCodes(t *testing.T) {
	tests := []struct {
		err  *AppError
		want int
	}{
		{MalformedPayload("bad"), http.StatusBadRequest},
		{ValidationError("bad"), http.StatusBadRequest},
		{TenantUnresolved(fmt.Errorf("none")), http.StatusUnprocessableEntity},
		{ContentFetchFailed("/api/v3/repos/a/b/contents/x", fmt.Errorf("404")), http.StatusBadGateway},
		{DatabaseError(fmt.Errorf("locked")), http.StatusInternalServerError},
		{InternalError(fmt.Errorf("panic")), http.StatusInternalServerError},
		{Unavailable("shutting down"), http.StatusServiceUnavailable},
		{New(ErrorCode("UNKNOWN"), "x"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.err.Code), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.StatusCode)
		})
	}
}

func TestCodeOfAndUnwrap(t *testing.T) {
	cause := stderrors.New("no tenant found in declaration")
	err := fmt.Errorf("dispatch: %w", TenantUnresolved(cause))

	assert.Equal(t, ErrCodeTenantUnresolved, CodeOf(err))
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, ErrCodeInternalError, CodeOf(cause))
	assert.Equal(t, "TENANT_UNRESOLVED: Unable to resolve tenant from declaration (no tenant found in declaration)",
		TenantUnresolved(cause).Error())
}
