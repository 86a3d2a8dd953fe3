package pod

import (
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/subosito/gotenv"

	rperrors "github.com/gpuctl/rpctl/pkg/errors"
	"github.com/gpuctl/rpctl/pkg/runpod"
)

// LookupFunc resolves a variable from the local environment.
type LookupFunc func(key string) (string, bool)

var envKeyPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// AWS credential variables forwarded by AWSPassThrough.
const (
	EnvAWSAccessKeyID     = "AWS_ACCESS_KEY_ID"
	EnvAWSSecretAccessKey = "AWS_SECRET_ACCESS_KEY"
	EnvAWSDefaultRegion   = "AWS_DEFAULT_REGION"
	EnvAWSSessionToken    = "AWS_SESSION_TOKEN"
)

// ValidEnvKey reports whether key is a legal environment variable name.
func ValidEnvKey(key string) bool {
	return envKeyPattern.MatchString(key)
}

// ParseEnv parses --env values.
//
// KEY=VALUE sets a literal value; the value may be empty, contain '=' or
// carry surrounding whitespace. Only the key is trimmed.
// A bare KEY copies the value from lookup and fails if it is unset.
// Repeated keys keep their first position and take the last value.
func ParseEnv(values []string, lookup LookupFunc) ([]runpod.EnvVar, error) {
	if lookup == nil {
		lookup = os.LookupEnv
	}

	out := make([]runpod.EnvVar, 0, len(values))
	for _, raw := range values {
		if strings.TrimSpace(raw) == "" {
			continue
		}

		key, value, hasValue := strings.Cut(raw, "=")
		key = strings.TrimSpace(key)
		if !ValidEnvKey(key) {
			return nil, rperrors.New(rperrors.ErrCodeInvalidRequest,
				fmt.Sprintf("invalid env %q: key must match [A-Za-z_][A-Za-z0-9_]*", raw))
		}

		if !hasValue {
			v, ok := lookup(key)
			if !ok {
				return nil, rperrors.New(rperrors.ErrCodeInvalidRequest,
					fmt.Sprintf("env %q has no value and is not set in the local environment", key))
			}
			value = v
		}

		out = Merge(out, runpod.EnvVar{Key: key, Value: value})
	}

	return out, nil
}

// Merge adds vars to env, replacing values of existing keys in place.
func Merge(env []runpod.EnvVar, vars ...runpod.EnvVar) []runpod.EnvVar {
	for _, v := range vars {
		replaced := false
		for i := range env {
			if env[i].Key == v.Key {
				env[i].Value = v.Value
				replaced = true
				break
			}
		}
		if !replaced {
			env = append(env, v)
		}
	}
	return env
}

// ParseEnvFile reads a dotenv file. Quoting, escapes, inline comments,
// "export" prefixes and ${VAR} expansion follow gotenv. Keys are returned
// sorted so the merge order does not depend on map iteration.
func ParseEnvFile(path string) ([]runpod.EnvVar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open env file %q: %w", path, err)
	}
	defer f.Close()

	vars, err := gotenv.StrictParse(f)
	if err != nil {
		return nil, rperrors.Wrap(rperrors.ErrCodeInvalidRequest,
			fmt.Sprintf("invalid env file %q", path), err)
	}

	keys := make([]string, 0, len(vars))
	for k := range vars {
		if !ValidEnvKey(k) {
			return nil, rperrors.New(rperrors.ErrCodeInvalidRequest,
				fmt.Sprintf("invalid env file %q: key %q must match [A-Za-z_][A-Za-z0-9_]*", path, k))
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]runpod.EnvVar, 0, len(keys))
	for _, k := range keys {
		out = append(out, runpod.EnvVar{Key: k, Value: vars[k]})
	}
	return out, nil
}

// AWSPassThrough returns the local AWS credentials as pod environment.
// The access key id and secret are required; region and session token are
// forwarded when set.
func AWSPassThrough(lookup LookupFunc) ([]runpod.EnvVar, error) {
	if lookup == nil {
		lookup = os.LookupEnv
	}

	var out []runpod.EnvVar
	var missing []string
	for _, key := range []string{EnvAWSAccessKeyID, EnvAWSSecretAccessKey} {
		v, ok := lookup(key)
		if !ok || v == "" {
			missing = append(missing, key)
			continue
		}
		out = append(out, runpod.EnvVar{Key: key, Value: v})
	}
	if len(missing) > 0 {
		return nil, rperrors.NewWithContext(rperrors.ErrCodeInvalidRequest,
			fmt.Sprintf("cannot pass AWS credentials, not set locally: %s", strings.Join(missing, ", ")),
			map[string]any{"missing": missing})
	}

	for _, key := range []string{EnvAWSDefaultRegion, EnvAWSSessionToken} {
		if v, ok := lookup(key); ok && v != "" {
			out = append(out, runpod.EnvVar{Key: key, Value: v})
		}
	}

	return out, nil
}
