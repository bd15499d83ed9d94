package preflight

import (
	"errors"
	"strings"

	"vodsub/internal/config"
	"vodsub/internal/services"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// CheckDirectories verifies the work and results directories after
// config.EnsureDirectories has created them.
func CheckDirectories(cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}
	return []Result{
		CheckDirectoryAccess("Work directory", cfg.Paths.WorkDir),
		CheckDirectoryAccess("Results directory", cfg.Paths.ResultsDir),
	}
}

// RequireDirectories returns a configuration error naming every failed
// directory check.
func RequireDirectories(cfg *config.Config) error {
	var failures []string
	for _, result := range CheckDirectories(cfg) {
		if !result.Passed {
			failures = append(failures, result.Name+": "+result.Detail)
		}
	}
	if len(failures) == 0 {
		return nil
	}
	return services.Wrap(services.ErrConfiguration, "preflight", "check directories", strings.Join(failures, "; "), errors.New("directory not usable"))
}
