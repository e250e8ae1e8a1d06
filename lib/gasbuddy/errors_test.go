package gasbuddy

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassifyResponse(t *testing.T) {
	err := classifyResponse(map[string]any{"error": "Missing Token"})
	var libErr *LibraryError
	require.ErrorAs(t, err, &libErr)
	require.Equal(t, "Missing Token", libErr.Detail)

	err = classifyResponse(map[string]any{
		"errors": []any{map[string]any{"message": "Fake Error"}},
	})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, "Fake Error", apiErr.Message)

	err = classifyResponse(map[string]any{"data": map[string]any{}})
	require.NoError(t, err)
}

func TestGraphqlErrorMessage(t *testing.T) {
	cases := []struct {
		name     string
		raw      any
		expected string
	}{
		{
			name:     "object form",
			raw:      map[string]any{"message": "you shall not pass"},
			expected: "you shall not pass",
		},
		{
			name:     "list form",
			raw:      []any{map[string]any{"message": "first"}, map[string]any{"message": "second"}},
			expected: "first",
		},
		{
			name:     "empty list",
			raw:      []any{},
			expected: "Server side error occured.",
		},
		{
			name:     "unrecognized shape",
			raw:      42,
			expected: "Server side error occured.",
		},
		{
			name:     "object without message",
			raw:      map[string]any{"code": "INTERNAL"},
			expected: "Server side error occured.",
		},
	}

	for _, test := range cases {
		t.Run(test.name, func(t *testing.T) {
			require.Equal(t, test.expected, graphqlErrorMessage(test.raw))
		})
	}
}

func TestErrorMessages(t *testing.T) {
	require.Equal(
		t,
		"gasbuddy: request failed: Timeout while updating",
		(&LibraryError{Detail: "Timeout while updating"}).Error(),
	)
	require.Equal(
		t,
		"gasbuddy: api error: Fake Error",
		(&APIError{Message: "Fake Error"}).Error(),
	)
	require.False(t, errors.Is(ErrMissingSearchData, ErrTokenMissing))
}
