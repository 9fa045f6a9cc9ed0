package masking

import "strings"

const maskToken = "****"

// sensitiveKeyMarkers flags a metadata key as naming a secret, independent
// of its value's shape; only keys matching one of these get rewritten to
// their prefix by maskKey.
var sensitiveKeyMarkers = []string{"key", "secret", "token", "password", "credential"}

func looksSensitive(key string) bool {
	lower := strings.ToLower(key)
	for _, marker := range sensitiveKeyMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// MaskSecret redacts a secret while keeping a minimal suffix for auditing.
func MaskSecret(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return ""
	}

	prefix, remainder := splitPrefix(trimmed)
	if len(remainder) <= 4 {
		return prefix + maskToken
	}

	return prefix + maskToken + remainder[len(remainder)-4:]
}

// MaskJSON returns a copy of the input with string values masked.
func MaskJSON(input map[string]any) map[string]any {
	if len(input) == 0 {
		return nil
	}

	// Count how many keys would collapse to the same prefix before
	// renaming any of them, so two distinct secrets that only differ
	// after their last underscore (e.g. "client_secret_primary" and
	// "client_secret_backup") don't overwrite each other in masked.
	prefixCounts := make(map[string]int, len(input))
	for key := range input {
		if prefix, remainder := maskableKeyPrefix(key); prefix != "" && remainder != "" {
			prefixCounts[prefix]++
		}
	}

	masked := make(map[string]any, len(input))
	for key, value := range input {
		trimmedKey := strings.TrimSpace(key)
		if trimmedKey == "" {
			continue
		}
		masked[maskKey(trimmedKey, prefixCounts)] = maskValue(value)
	}

	if len(masked) == 0 {
		return nil
	}
	return masked
}

// maskKey strips a secret-looking key's suffix the same way MaskSecret
// strips a value's, so a key like "api_key_secretvalue" is persisted as
// just its prefix, "api_key_", rather than leaking the secret through the
// metadata bag's key set. Keys that don't look sensitive (no "key",
// "secret", "token", "password", "credential" marker) pass through
// unchanged, so ordinary field names like "run_id" survive intact. A key
// whose prefix collides with another key's (per prefixCounts) is also
// left unchanged, so two distinct secrets never collapse onto the same
// masked key and silently drop one value.
func maskKey(key string, prefixCounts map[string]int) string {
	prefix, remainder := maskableKeyPrefix(key)
	if prefix == "" || remainder == "" || prefixCounts[prefix] > 1 {
		return key
	}
	return prefix
}

// maskableKeyPrefix returns key's prefix-before-last-underscore when key
// looks sensitive, or ("", "") otherwise.
func maskableKeyPrefix(key string) (prefix, remainder string) {
	if !looksSensitive(key) {
		return "", ""
	}
	return splitPrefix(key)
}

func maskValue(value any) any {
	switch cast := value.(type) {
	case string:
		return MaskSecret(cast)
	case map[string]any:
		return MaskJSON(cast)
	case []any:
		out := make([]any, 0, len(cast))
		for _, item := range cast {
			out = append(out, maskValue(item))
		}
		return out
	default:
		return value
	}
}

func splitPrefix(value string) (string, string) {
	lastUnderscore := strings.LastIndex(value, "_")
	if lastUnderscore == -1 || lastUnderscore == len(value)-1 {
		return "", value
	}
	return value[:lastUnderscore+1], value[lastUnderscore+1:]
}
