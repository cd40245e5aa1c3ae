package commands

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"text/template"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/cascade-orm/cascade/sqlstore"
)

//go:embed templates/*
var templatesFS embed.FS

var newDriverFlag string

// validateProjectName validates project name with security checks
func validateProjectName(name string) error {
	name = strings.TrimSpace(name)

	// Check length
	if len(name) == 0 || len(name) > 100 {
		return fmt.Errorf("project name must be 1-100 characters")
	}

	// Check for absolute paths
	if filepath.IsAbs(name) {
		return fmt.Errorf("project name cannot be an absolute path")
	}

	// Only allow alphanumeric, dash, and underscore
	matched, _ := regexp.MatchString(`^[a-zA-Z0-9_-]+$`, name)
	if !matched {
		return fmt.Errorf("project name can only contain letters, numbers, dashes, and underscores")
	}

	return nil
}

// NewNewCommand creates the new command
func NewNewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "new <project-name>",
		Short: "Create a new Cascade project",
		Long: `Create a new Cascade project with a starter manifest and configuration.

The generated entities.yml declares a Company/Employee pair showing scalar
properties, a relation in each direction, and cascade flags.`,
		Example: `  # New project backed by PostgreSQL
  cascade new my-app

  # New project backed by SQLite
  cascade new my-app --driver sqlite3`,
		Args: cobra.ExactArgs(1),
		RunE: runNew,
	}

	cmd.Flags().StringVar(&newDriverFlag, "driver", "pgx", "Database driver (pgx, sqlite3)")

	return cmd
}

func runNew(cmd *cobra.Command, args []string) error {
	projectName := args[0]

	if err := validateProjectName(projectName); err != nil {
		return err
	}

	if _, err := sqlstore.DialectFor(newDriverFlag); err != nil {
		return err
	}

	if _, err := os.Stat(projectName); err == nil {
		return fmt.Errorf("directory %s already exists", projectName)
	}

	if err := os.MkdirAll(projectName, 0755); err != nil {
		return fmt.Errorf("failed to create project directory: %w", err)
	}

	data := struct {
		ProjectName string
		Driver      string
	}{ProjectName: projectName, Driver: newDriverFlag}

	files := map[string]string{
		"templates/cascade.yml.tmpl":  "cascade.yml",
		"templates/entities.yml.tmpl": "entities.yml",
		"templates/gitignore.tmpl":    ".gitignore",
	}

	for src, dst := range files {
		if err := renderTemplate(src, filepath.Join(projectName, dst), data); err != nil {
			return err
		}
	}

	successColor := color.New(color.FgGreen, color.Bold)
	infoColor := color.New(color.FgCyan)

	successColor.Fprintf(cmd.OutOrStdout(), "✓ Created project %s\n", projectName)
	infoColor.Fprintln(cmd.OutOrStdout(), "\nNext steps:")
	fmt.Fprintf(cmd.OutOrStdout(), "  cd %s\n", projectName)
	fmt.Fprintln(cmd.OutOrStdout(), "  cascade validate")

	return nil
}

func renderTemplate(src, dst string, data any) error {
	content, err := templatesFS.ReadFile(src)
	if err != nil {
		return fmt.Errorf("failed to read template %s: %w", src, err)
	}

	tmpl, err := template.New(filepath.Base(src)).Parse(string(content))
	if err != nil {
		return fmt.Errorf("failed to parse template %s: %w", src, err)
	}

	f, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dst, err)
	}
	defer f.Close()

	if err := tmpl.Execute(f, data); err != nil {
		return fmt.Errorf("failed to render %s: %w", dst, err)
	}

	return nil
}
