// Package deps resolves the external executables vodsub shells out to.
package deps

import (
	"errors"
	"fmt"
	"io/fs"
	"os/exec"
	"strings"
)

// Requirement names an executable vodsub needs and how to get it.
type Requirement struct {
	Name        string
	Command     string
	Description string
	// Hint tells the user how to make the dependency available.
	Hint string
}

// Status is a Requirement plus the outcome of looking it up.
type Status struct {
	Requirement
	Available bool
	// Path is the resolved executable location when Available is true.
	Path   string
	Detail string
}

// Check looks up a single requirement.
func Check(req Requirement) Status {
	req.Command = strings.TrimSpace(req.Command)
	req.Description = strings.TrimSpace(req.Description)
	req.Hint = strings.TrimSpace(req.Hint)
	status := Status{Requirement: req}

	if req.Command == "" {
		status.Detail = "command not configured"
		return status
	}
	path, err := exec.LookPath(req.Command)
	switch {
	case err == nil:
		status.Available = true
		status.Path = path
	case errors.Is(err, fs.ErrPermission):
		status.Detail = fmt.Sprintf("%q is not executable", req.Command)
	default:
		status.Detail = fmt.Sprintf("binary %q not found", req.Command)
	}
	return status
}

// CheckBinaries checks every requirement, preserving order.
func CheckBinaries(requirements []Requirement) []Status {
	out := make([]Status, len(requirements))
	for i, req := range requirements {
		out[i] = Check(req)
	}
	return out
}

// Missing filters statuses down to the unavailable ones.
func Missing(statuses []Status) []Status {
	var missing []Status
	for _, s := range statuses {
		if !s.Available {
			missing = append(missing, s)
		}
	}
	return missing
}
