// Package scaffold materializes the starter files for a new mstools
// working directory: a commented mstools.yaml and a .env example.
package scaffold

import (
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
)

//go:embed all:templates
var templatesFS embed.FS

const templateRoot = "templates/default"

// Scaffolder writes starter project files into a target directory.
type Scaffolder struct {
	logger *slog.Logger
}

// NewScaffolder creates a new Scaffolder. A nil logger discards log entries.
func NewScaffolder(logger *slog.Logger) *Scaffolder {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Scaffolder{logger: logger}
}

// InitProject writes the starter files into targetPath and returns the
// paths it created, relative to targetPath.
//
// The directory does not have to be empty: init is meant to run inside an
// existing repository. It refuses to touch any file that already exists,
// so a re-run can never clobber an edited configuration.
func (s *Scaffolder) InitProject(targetPath string) ([]string, error) {
	if err := os.MkdirAll(targetPath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create project directory: %w", err)
	}

	names, err := templateFiles()
	if err != nil {
		return nil, err
	}

	for _, name := range names {
		target := filepath.Join(targetPath, filepath.FromSlash(name))
		if _, err := os.Stat(target); err == nil {
			return nil, fmt.Errorf("refusing to overwrite existing file %s", target)
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to check %s: %w", target, err)
		}
	}

	var created []string
	for _, name := range names {
		content, err := templatesFS.ReadFile(path.Join(templateRoot, name))
		if err != nil {
			return created, fmt.Errorf("failed to read template %s: %w", name, err)
		}

		target := filepath.Join(targetPath, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return created, fmt.Errorf("failed to create directory for %s: %w", name, err)
		}
		if err := os.WriteFile(target, content, 0o644); err != nil {
			return created, fmt.Errorf("failed to write %s: %w", target, err)
		}

		s.logger.Debug("starter file written", "path", target)
		created = append(created, name)
	}

	return created, nil
}

// templateFiles lists the embedded starter files relative to the template
// root, directories excluded, in walk order.
func templateFiles() ([]string, error) {
	var names []string
	err := fs.WalkDir(templatesFS, templateRoot, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(templateRoot, p)
		if err != nil {
			return err
		}
		names = append(names, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate templates: %w", err)
	}
	return names, nil
}
