package unit

import (
	"fmt"
	"strings"
)

// Guard decides from static platform identity alone whether a unit runs.
// It reports skip=true with a reason to exclude the target.
type Guard func(platform string) (skip bool, reason string)

// Excluded reports whether platform is in the excluded set.
func Excluded(platform string, excluded []string) bool {
	for _, p := range excluded {
		if strings.EqualFold(p, platform) {
			return true
		}
	}
	return false
}

// SkipOnPlatforms skips targets whose platform is one of platforms.
func SkipOnPlatforms(platforms ...string) Guard {
	return func(platform string) (bool, string) {
		if Excluded(platform, platforms) {
			return true, fmt.Sprintf("test is not supported on %s", platform)
		}
		return false, ""
	}
}
