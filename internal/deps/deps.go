// Package deps reports the availability of the external binaries romshelf
// shells out to for non-zip archive formats.
package deps

import (
	"fmt"
	"os/exec"
	"strings"

	"romshelf/internal/config"
)

// Requirement defines an external tool romshelf relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a tool.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// ArchiveTools lists the extraction binaries the current configuration can
// call. Zip needs no external tool.
func ArchiveTools(cfg *config.Config) []Requirement {
	var out []Requirement
	for _, ext := range cfg.ArchiveExtensions() {
		switch ext {
		case "7z":
			out = append(out, Requirement{
				Name:        "7-Zip",
				Command:     cfg.Scanner.SevenZipBinary,
				Description: "lists and extracts .7z archives",
				Optional:    true,
			})
		case "rar":
			out = append(out, Requirement{
				Name:        "unrar",
				Command:     cfg.Scanner.UnrarBinary,
				Description: "lists and extracts .rar archives",
				Optional:    true,
			})
		}
	}
	return out
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		if _, err := exec.LookPath(cmd); err != nil {
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Available = true
		results = append(results, status)
	}
	return results
}
