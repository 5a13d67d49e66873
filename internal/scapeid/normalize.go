package scapeid

import "strings"

// Normalize canonicalizes scape names and their common aliases so config
// files, flags, and stored telemetry all agree on one spelling.
func Normalize(name string) string {
	normalized := strings.TrimSpace(strings.ToLower(name))
	normalized = strings.ReplaceAll(normalized, "_", "-")
	normalized = strings.ReplaceAll(normalized, " ", "-")
	normalized = strings.Trim(normalized, "-")
	if normalized == "" {
		return ""
	}
	if canonical, ok := canonicalScapeName(normalized); ok {
		return canonical
	}
	return normalized
}

func canonicalScapeName(alias string) (string, bool) {
	alias = strings.TrimSuffix(alias, "-scape")

	switch alias {
	case "surrogate-walker", "walker", "surrogate", "creature":
		return "surrogate-walker", true
	}

	switch strings.ReplaceAll(alias, "-", "") {
	case "surrogatewalker", "walkersim":
		return "surrogate-walker", true
	default:
		return "", false
	}
}
