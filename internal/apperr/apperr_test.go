package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMessage(t *testing.T) {
	assert.Equal(t, "user not authenticated", Unauthenticated().Error())
	assert.Equal(t, "email not found", NotFound("email").Error())
	assert.Equal(t, "not authorized to delete this email", Forbidden("delete this email").Error())

	cause := errors.New("connection refused")
	assert.Equal(t, "failed to get OAuth token: connection refused", Upstream("failed to get OAuth token", cause).Error())
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := Upstream("upstream call failed", cause)
	assert.ErrorIs(t, err, cause)

	assert.Nil(t, errors.Unwrap(Invalid("bad input")))
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		err  error
		kind Kind
	}{
		{Unauthenticated(), KindUnauthenticated},
		{NotFound("candidate"), KindNotFound},
		{Forbidden("run filtering"), KindForbidden},
		{Upstream("gmail down", errors.New("503")), KindUpstream},
		{Consistency("re-read after create returned nothing"), KindConsistency},
		{Invalid("email_address is required"), KindInvalid},
	}
	for _, tt := range tests {
		k, ok := KindOf(tt.err)
		assert.True(t, ok)
		assert.Equal(t, tt.kind, k)
	}

	_, ok := KindOf(errors.New("plain"))
	assert.False(t, ok)
	_, ok = KindOf(nil)
	assert.False(t, ok)
}

func TestKindSurvivesWrapping(t *testing.T) {
	inner := NotFound("email")
	wrapped := fmt.Errorf("list triage: %w", inner)

	assert.True(t, IsKind(wrapped, KindNotFound))
	assert.False(t, IsKind(wrapped, KindForbidden))
}
