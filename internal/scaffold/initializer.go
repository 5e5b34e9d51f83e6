package scaffold

import (
	"bytes"
	"embed"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/dyluth/modcat/internal/config"
	"gopkg.in/yaml.v3"
)

//go:embed templates/*
var templatesFS embed.FS

// Options fill in the generated configuration.
type Options struct {
	Force        bool   // Overwrite an existing configuration file
	ModulePath   string // Search path written to module_path
	ResourceName string // Written to resource_name, empty leaves the host name default
}

// templateData holds YAML-encoded scalars so arbitrary paths stay valid YAML.
type templateData struct {
	ModulePath   string
	ResourceName string
}

// Initialize writes a starter modcat.yml into dir and returns its path.
func Initialize(dir string, opts Options) (string, error) {
	path := filepath.Join(dir, config.DefaultFileName)

	if opts.Force {
		if err := handleForce(path); err != nil {
			return "", err
		}
	} else if err := CheckExisting(dir); err != nil {
		return "", err
	}

	content, err := render(opts)
	if err != nil {
		return "", err
	}

	if err := os.WriteFile(path, content, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}

	if err := validateCreatedFile(path); err != nil {
		return "", err
	}

	return path, nil
}

// handleForce removes an existing configuration file if --force was specified
func handleForce(path string) error {
	if _, err := os.Stat(path); err == nil {
		fmt.Printf("⚠️  Removing existing %s...\n", filepath.Base(path))
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("failed to remove %s: %w", path, err)
		}
	}
	return nil
}

func render(opts Options) ([]byte, error) {
	raw, err := templatesFS.ReadFile("templates/modcat.yml.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to read modcat.yml template: %w", err)
	}

	tmpl, err := template.New("modcat.yml").Parse(string(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to parse modcat.yml template: %w", err)
	}

	data := templateData{}
	if data.ModulePath, err = yamlScalar(opts.ModulePath); err != nil {
		return nil, err
	}
	if data.ResourceName, err = yamlScalar(opts.ResourceName); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to render modcat.yml: %w", err)
	}
	return buf.Bytes(), nil
}

// yamlScalar encodes s as a single-line YAML string.
func yamlScalar(s string) (string, error) {
	out, err := yaml.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("failed to encode %q: %w", s, err)
	}
	return strings.TrimSuffix(string(out), "\n"), nil
}

// validateCreatedFile checks that the written file loads as a valid configuration
func validateCreatedFile(path string) error {
	if _, err := config.Load(path); err != nil {
		return fmt.Errorf("created %s is not a valid configuration: %w", filepath.Base(path), err)
	}
	return nil
}

// PrintSuccess prints the success message with the created file
func PrintSuccess(w io.Writer, path string) {
	fmt.Fprintln(w, "\n✅ Successfully initialized modcat configuration!")
	fmt.Fprintln(w, "\nCreated:")
	fmt.Fprintf(w, "  ✓ %s\n", path)
	fmt.Fprintln(w, "\nNext steps:")
	fmt.Fprintln(w, "  1. Review module_path and strategy for your module tree layout")
	fmt.Fprintln(w, "  2. Run 'modcat scan' to preview the catalog")
	fmt.Fprintln(w, "  3. Run 'modcat scan --publish' to publish it to Redis")
}
