package buildsys

import (
	"fmt"
	"sort"
	"strings"
)

// StepError reports a fatal lifecycle step: the step name and the exit
// status of the command that ran it. Err is set when the command could
// not be started at all.
type StepError struct {
	Step     string
	ExitCode int
	Err      error
}

func (e *StepError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s failed: %v", e.Step, e.Err)
	}
	return fmt.Sprintf("%s failed: exit status %d", e.Step, e.ExitCode)
}

func (e *StepError) Unwrap() error { return e.Err }

// MergeEnv returns base with every key in overrides replaced or added.
// The result is sorted so that identical inputs spawn identical environments.
func MergeEnv(base []string, overrides map[string]string) []string {
	envMap := make(map[string]string, len(base)+len(overrides))
	for _, kv := range base {
		if k, v, ok := strings.Cut(kv, "="); ok {
			envMap[k] = v
		}
	}
	for k, v := range overrides {
		envMap[k] = v
	}
	keys := make([]string, 0, len(envMap))
	for k := range envMap {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k+"="+envMap[k])
	}
	return out
}
