package trace

import (
	"sort"
	"strings"

	"github.com/arthur-debert/appdirbuilder/pkg/errors"
	"github.com/joho/godotenv"
)

// MergeEnv returns base with every overlay applied in order. Overridden
// variables keep their position; new ones are appended in key order.
// base is not modified.
func MergeEnv(base []string, overlays ...map[string]string) []string {
	env := append([]string(nil), base...)
	index := make(map[string]int, len(env))
	for i, kv := range env {
		key, _, _ := strings.Cut(kv, "=")
		index[key] = i
	}

	for _, overlay := range overlays {
		keys := make([]string, 0, len(overlay))
		for k := range overlay {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		for _, k := range keys {
			kv := k + "=" + overlay[k]
			if i, ok := index[k]; ok {
				env[i] = kv
				continue
			}
			index[k] = len(env)
			env = append(env, kv)
		}
	}

	return env
}

// LoadEnvFile reads a dotenv file into a map without touching the process
// environment.
func LoadEnvFile(path string) (map[string]string, error) {
	values, err := godotenv.Read(path)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrConfig, "cannot read env file %s", path).
			WithDetail("path", path)
	}
	return values, nil
}
