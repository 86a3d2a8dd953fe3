package pod

import (
	"strings"

	"github.com/gpuctl/rpctl/pkg/runpod"
)

// RedactedValue replaces hidden env values.
const RedactedValue = "***"

// RedactEnv returns a copy of env ("KEY=VALUE" entries) where the values of
// keys matching any pattern are replaced with RedactedValue.
// Matching is case-insensitive. Supported patterns:
//   - "prefix*" matches keys starting with "prefix"
//   - "*suffix" matches keys ending with "suffix"
//   - "*contains*" matches keys containing "contains"
//   - "exact" matches keys exactly
func RedactEnv(env []string, patterns []string) []string {
	if env == nil {
		return nil
	}

	out := make([]string, 0, len(env))
	for _, e := range env {
		key, _, hasValue := strings.Cut(e, "=")
		if hasValue && matchesAny(key, patterns) {
			out = append(out, key+"="+RedactedValue)
			continue
		}
		out = append(out, e)
	}
	return out
}

// RedactPod returns a copy of p with secret env values redacted.
func RedactPod(p *runpod.Pod, patterns []string) *runpod.Pod {
	if p == nil {
		return nil
	}
	cp := *p
	cp.Env = RedactEnv(p.Env, patterns)
	return &cp
}

// RedactPods applies RedactPod to every pod in the slice.
func RedactPods(pods []runpod.Pod, patterns []string) []runpod.Pod {
	out := make([]runpod.Pod, len(pods))
	for i := range pods {
		out[i] = *RedactPod(&pods[i], patterns)
	}
	return out
}

func matchesAny(key string, patterns []string) bool {
	for _, p := range patterns {
		if matchesPattern(strings.ToUpper(key), strings.ToUpper(p)) {
			return true
		}
	}
	return false
}

// matchesPattern checks if a key matches a wildcard pattern.
func matchesPattern(key, pattern string) bool {
	if !strings.Contains(pattern, "*") {
		return key == pattern
	}

	if strings.HasPrefix(pattern, "*") && strings.HasSuffix(pattern, "*") {
		return strings.Contains(key, strings.Trim(pattern, "*"))
	}

	if strings.HasPrefix(pattern, "*") {
		return strings.HasSuffix(key, strings.TrimPrefix(pattern, "*"))
	}

	if strings.HasSuffix(pattern, "*") {
		return strings.HasPrefix(key, strings.TrimSuffix(pattern, "*"))
	}

	return false
}
