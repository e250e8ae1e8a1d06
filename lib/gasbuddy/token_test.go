package gasbuddy

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExtractToken(t *testing.T) {
	cases := []struct {
		name     string
		body     string
		expected string
	}{
		{
			name:     "full landing page",
			body:     landingFixture,
			expected: landingToken,
		},
		{
			name:     "raw script text",
			body:     `window.gbcsrf = "1.abcDEF123/xyz+0000";`,
			expected: "1.abcDEF123/xyz+0000",
		},
		{
			name:     "no whitespace around assignment",
			body:     `<script>window.gbcsrf="1.tight";</script>`,
			expected: "1.tight",
		},
		{
			name:     "token absent",
			body:     "<html><body><script>var x = 1;</script></body></html>",
			expected: "",
		},
		{
			name:     "empty body",
			body:     "",
			expected: "",
		},
	}

	for _, test := range cases {
		t.Run(test.name, func(t *testing.T) {
			require.Equal(t, test.expected, extractToken(test.body))
		})
	}
}
