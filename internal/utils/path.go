package utils

import (
	"path/filepath"

	"github.com/charmbracelet/log"
)

// ResolveFile finds a user supplied file. It tries, in order:
// the path itself (absolute or relative to the working directory),
// then relative to each of dirs, then relative to the executable.
// When nothing exists path is returned unchanged for error reporting.
func ResolveFile(path string, dirs ...string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}

	candidates := []string{path}
	for _, dir := range dirs {
		if dir != "" {
			candidates = append(candidates, filepath.Join(dir, path))
		}
	}
	if execDir, err := GetExecutableDir(); err == nil {
		candidates = append(candidates, filepath.Join(execDir, path))
	}

	for _, c := range candidates {
		if FileExists(c) {
			log.Debugf("Resolved %s to %s", path, c)
			return c
		}
		log.Debugf("File candidate not found: %s", c)
	}
	return path
}
