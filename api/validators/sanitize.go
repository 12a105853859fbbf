package validators

import "strings"

// MaxReasonLength bounds free-text reasons on cancel, reject and dispute actions.
const MaxReasonLength = 500

func SanitizeString(input string, maxLen int) string {
	trimmed := strings.TrimSpace(input)
	if maxLen > 0 && len(trimmed) > maxLen {
		return trimmed[:maxLen]
	}
	return trimmed
}
