// Package analysis holds the pure decision logic for video analysis jobs:
// the resolution-tier policy and the provider error classification table.
package analysis

// LowResolutionThreshold is the estimated duration, in seconds, above which
// videos are analyzed at low media resolution to stay inside the provider's
// context window.
const LowResolutionThreshold = 3600

// LowResolution decides the resolution tier for an analysis call.
// A caller override always wins; otherwise only videos longer than the
// threshold are downgraded. An unknown duration (zero or negative) never
// triggers a downgrade on its own.
func LowResolution(durationSeconds int64, force bool) bool {
	if force {
		return true
	}
	return durationSeconds > LowResolutionThreshold
}
