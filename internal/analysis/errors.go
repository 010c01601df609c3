package analysis

import "strings"

// NoAnalysisMessage is recorded when the provider call succeeds but yields no
// usable text at all.
const NoAnalysisMessage = "No analysis could be generated. The video may be private, age-restricted, or otherwise unavailable for analysis."

// GenericFailureMessage is the fallback when the provider raised a failure
// without any message.
const GenericFailureMessage = "Video analysis failed due to an unexpected provider error."

// errorRule maps raw provider error signals onto a stable user-facing message.
type errorRule struct {
	signals []string
	message string
}

// Rules are checked in order and the first match wins; some raw errors carry
// more than one signal, so the order here is part of the contract.
var errorRules = []errorRule{
	{[]string{"API_KEY", "UNAUTHENTICATED"}, "Invalid or missing API credentials. Please check the server configuration."},
	{[]string{"QUOTA_EXCEEDED", "RESOURCE_EXHAUSTED"}, "API quota exceeded. Please try again later."},
	{[]string{"PERMISSION_DENIED"}, "The configured API credential lacks the required permission."},
	{[]string{"NOT_FOUND"}, "The video could not be found. It may be private or unavailable."},
	{[]string{"INVALID_ARGUMENT"}, "The video format or content is not supported for analysis."},
}

// ClassifyProviderError turns a raw provider failure into a stable
// user-facing message. Matching is substring-based over the raw text; an
// unmatched message is passed through as-is.
func ClassifyProviderError(raw string) string {
	for _, rule := range errorRules {
		for _, signal := range rule.signals {
			if strings.Contains(raw, signal) {
				return rule.message
			}
		}
	}
	if strings.TrimSpace(raw) == "" {
		return GenericFailureMessage
	}
	return raw
}
