package scaffold

import (
	"embed"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/concepto-studio/concepto/internal/config"
	"github.com/concepto-studio/concepto/pkg/catalog"
)

//go:embed templates/*
var templatesFS embed.FS

// Paths created by Initialize, relative to the project directory
const (
	ConfigFile = "concepto.yml"
	SeedDir    = "seed"
	SeedFile   = "seed/example-show.yml"
)

// FileInfo represents a file to be created during initialization
type FileInfo struct {
	Path        string
	Content     []byte
	Permissions os.FileMode
}

// Initialize creates the Concepto project files in dir.
// If force is true, it removes an existing concepto.yml and seed/ directory
// first; otherwise existing files are an error.
func Initialize(dir string, force bool, out io.Writer) error {
	if force {
		if err := handleForce(dir, out); err != nil {
			return err
		}
	} else if err := CheckExisting(dir); err != nil {
		return err
	}

	files, err := getTemplateFiles()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Join(dir, SeedDir), 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", SeedDir, err)
	}

	for _, file := range files {
		path := filepath.Join(dir, file.Path)
		if err := os.WriteFile(path, file.Content, file.Permissions); err != nil {
			return fmt.Errorf("failed to write %s: %w", file.Path, err)
		}
	}

	return validateCreatedFiles(dir)
}

// handleForce removes existing files if --force was specified
func handleForce(dir string, out io.Writer) error {
	configPath := filepath.Join(dir, ConfigFile)
	if _, err := os.Stat(configPath); err == nil {
		fmt.Fprintf(out, "⚠️  Removing existing %s...\n", ConfigFile)
		if err := os.Remove(configPath); err != nil {
			return fmt.Errorf("failed to remove %s: %w", ConfigFile, err)
		}
	}

	seedPath := filepath.Join(dir, SeedDir)
	if info, err := os.Stat(seedPath); err == nil && info.IsDir() {
		fmt.Fprintf(out, "⚠️  Removing existing %s/ directory...\n", SeedDir)
		if err := os.RemoveAll(seedPath); err != nil {
			return fmt.Errorf("failed to remove %s/ directory: %w", SeedDir, err)
		}
	}

	return nil
}

// getTemplateFiles reads all template files
func getTemplateFiles() ([]FileInfo, error) {
	templates := []struct {
		name string
		path string
	}{
		{"concepto.yml.tmpl", ConfigFile},
		{"example-show.yml.tmpl", SeedFile},
	}

	files := make([]FileInfo, 0, len(templates))
	for _, tmpl := range templates {
		content, err := templatesFS.ReadFile("templates/" + tmpl.name)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s template: %w", tmpl.name, err)
		}
		files = append(files, FileInfo{Path: tmpl.path, Content: content, Permissions: 0644})
	}
	return files, nil
}

// validateCreatedFiles checks that the written config and seed parse
func validateCreatedFiles(dir string) error {
	if _, err := config.Load(filepath.Join(dir, ConfigFile)); err != nil {
		return fmt.Errorf("created %s is invalid: %w", ConfigFile, err)
	}

	seed, err := os.ReadFile(filepath.Join(dir, SeedFile))
	if err != nil {
		return fmt.Errorf("failed to read created %s: %w", SeedFile, err)
	}
	if _, err := catalog.ParseSeedYAML(seed); err != nil {
		return fmt.Errorf("created %s is invalid: %w", SeedFile, err)
	}

	return nil
}

// PrintSuccess prints the success message with created files
func PrintSuccess(out io.Writer) {
	fmt.Fprintln(out, "\n✅ Successfully initialized Concepto project!")
	fmt.Fprintln(out, "\nCreated:")
	fmt.Fprintf(out, "  ✓ %s\n", ConfigFile)
	fmt.Fprintf(out, "  ✓ %s\n", SeedFile)
	fmt.Fprintln(out, "\nNext steps:")
	fmt.Fprintln(out, "  1. Point store.redis_url at your Redis (or switch store.backend)")
	fmt.Fprintf(out, "  2. Run 'concepto seed %s' to load the example show\n", SeedFile)
	fmt.Fprintln(out, "  3. Run 'concepto browse' to explore it")
}
