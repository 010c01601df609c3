package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyProviderError(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "unauthenticated",
			raw:  "UNAUTHENTICATED: bad key",
			want: "Invalid or missing API credentials. Please check the server configuration.",
		},
		{
			name: "missing api key",
			raw:  "API_KEY_INVALID: API key not valid",
			want: "Invalid or missing API credentials. Please check the server configuration.",
		},
		{
			name: "quota exhausted",
			raw:  "RESOURCE_EXHAUSTED: quota exceeded for quota metric",
			want: "API quota exceeded. Please try again later.",
		},
		{
			name: "permission denied",
			raw:  "PERMISSION_DENIED: caller does not have permission",
			want: "The configured API credential lacks the required permission.",
		},
		{
			name: "video not found",
			raw:  "NOT_FOUND: requested entity was not found",
			want: "The video could not be found. It may be private or unavailable.",
		},
		{
			name: "invalid argument",
			raw:  "INVALID_ARGUMENT: unsupported file uri",
			want: "The video format or content is not supported for analysis.",
		},
		{
			name: "first match wins across categories",
			raw:  "QUOTA_EXCEEDED while resolving NOT_FOUND resource",
			want: "API quota exceeded. Please try again later.",
		},
		{
			name: "unmatched message passes through",
			raw:  "connection reset by peer",
			want: "connection reset by peer",
		},
		{
			name: "empty message falls back to generic",
			raw:  "",
			want: GenericFailureMessage,
		},
		{
			name: "whitespace message falls back to generic",
			raw:  "   ",
			want: GenericFailureMessage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyProviderError(tt.raw))
		})
	}
}
