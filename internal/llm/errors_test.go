package llm

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"
)

func classify(t *testing.T, err error) *RemoteError {
	t.Helper()
	var re *RemoteError
	require.ErrorAs(t, Classify(err), &re)
	return re
}

func TestClassify_QuotaStatus(t *testing.T) {
	re := classify(t, &googleapi.Error{Code: 429, Message: "rate limited"})

	assert.Equal(t, KindTransient, re.Kind)
	assert.True(t, re.Quota)
	assert.Equal(t, 429, re.StatusCode)
}

func TestClassify_QuotaMessage(t *testing.T) {
	re := classify(t, errors.New("rpc error: code = ResourceExhausted desc = Quota exceeded"))

	assert.Equal(t, KindTransient, re.Kind)
	assert.True(t, re.Quota)
}

func TestClassify_FatalStatuses(t *testing.T) {
	for _, code := range []int{401, 402, 403, 413, 415} {
		t.Run(fmt.Sprint(code), func(t *testing.T) {
			re := classify(t, fmt.Errorf("wrapped: %w", &googleapi.Error{Code: code}))
			assert.Equal(t, KindFatal, re.Kind)
			assert.True(t, IsFatal(re))
		})
	}
}

func TestClassify_FatalMessage(t *testing.T) {
	re := classify(t, errors.New("rpc error: code = PermissionDenied desc = API key not valid"))

	assert.Equal(t, KindFatal, re.Kind)
}

type codedError struct{ code int }

func (e codedError) Error() string { return "coded" }
func (e codedError) HTTPCode() int { return e.code }

func TestClassify_HTTPCoder(t *testing.T) {
	assert.Equal(t, KindFatal, classify(t, codedError{code: 403}).Kind)
	assert.True(t, classify(t, codedError{code: 429}).Quota)
}

func TestClassify_Transient(t *testing.T) {
	re := classify(t, &googleapi.Error{Code: 503})

	assert.Equal(t, KindTransient, re.Kind)
	assert.False(t, re.Quota)
	assert.Contains(t, re.Error(), "HTTP 503")
}

func TestClassify_PassThrough(t *testing.T) {
	assert.Nil(t, Classify(nil))
	assert.ErrorIs(t, Classify(context.Canceled), context.Canceled)

	original := &RemoteError{Kind: KindFatal, Message: "x"}
	assert.Same(t, original, Classify(original))
}
