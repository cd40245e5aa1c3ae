package commands

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/cascade-orm/cascade/internal/cli/config"
	"github.com/cascade-orm/cascade/internal/cli/ui"
	"github.com/cascade-orm/cascade/internal/manifest"
	"github.com/cascade-orm/cascade/internal/watch"
	"github.com/cascade-orm/cascade/schema"
)

var (
	validateManifestFlag string
	validateWatchFlag    bool
)

// NewValidateCommand creates the validate command
func NewValidateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate the entity manifest",
		Long: `Load the entity manifest, compile every definition, and print the
resulting table mapping.

Validation fails when a definition is inconsistent: a relation that names
an undeclared entity, a foreign key without a backing property, or a
duplicate property name.`,
		Example: `  # Validate the manifest configured in cascade.yml
  cascade validate

  # Validate a specific manifest
  cascade validate --manifest schema/entities.yml

  # Re-validate whenever the manifest changes
  cascade validate --watch`,
		RunE: runValidate,
	}

	cmd.Flags().StringVarP(&validateManifestFlag, "manifest", "m", "", "Path to the entity manifest")
	cmd.Flags().BoolVarP(&validateWatchFlag, "watch", "w", false, "Re-validate when the manifest changes")

	return cmd
}

func runValidate(cmd *cobra.Command, args []string) error {
	path, err := resolveManifest(validateManifestFlag)
	if err != nil {
		return err
	}

	if validateWatchFlag {
		return watchValidate(cmd, path)
	}

	return validateOnce(cmd, path)
}

func validateOnce(cmd *cobra.Command, path string) error {
	reg, err := loadRegistry(path)
	if err != nil {
		return err
	}

	table := ui.NewTable("ENTITY", "TABLE", "COLUMNS", "RELATIONS")
	for _, name := range reg.Names() {
		res, err := reg.Lookup(name)
		if err != nil {
			return err
		}
		table.AddRow(res.Name, res.Table, strings.Join(res.Columns(), ", "), relationList(res))
	}
	table.Render(cmd.OutOrStdout())

	successColor := color.New(color.FgGreen, color.Bold)
	successColor.Fprintf(cmd.OutOrStdout(), "\n✓ %d entities valid (%s)\n", reg.Len(), path)
	return nil
}

// watchValidate re-runs validation whenever the manifest changes. Failures
// are printed rather than returned so a broken edit can be fixed without
// restarting the command.
func watchValidate(cmd *cobra.Command, path string) error {
	errorColor := color.New(color.FgRed, color.Bold)
	run := func() {
		if err := validateOnce(cmd, path); err != nil {
			errorColor.Fprintf(cmd.ErrOrStderr(), "✗ %v\n", err)
		}
	}
	run()

	watcher, err := watch.New(path, run)
	if err != nil {
		return err
	}
	defer watcher.Stop()

	if err := watcher.Start(); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "\nWatching %s (ctrl-c to stop)\n", path)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	return nil
}

// resolveManifest picks the manifest to load: the flag when given, otherwise
// the configured path resolved against the project
func resolveManifest(flag string) (string, error) {
	if flag != "" {
		if _, err := os.Stat(flag); err != nil {
			return "", fmt.Errorf("manifest %s not found", flag)
		}
		return flag, nil
	}

	cfg, err := config.Load()
	if err != nil {
		return "", err
	}
	return config.FindManifest(cfg)
}

func loadRegistry(path string) (*schema.Registry, error) {
	m, err := manifest.Load(path)
	if err != nil {
		return nil, err
	}
	return m.Registry()
}

func relationList(res *schema.Resource) string {
	var parts []string
	for _, p := range res.Relations() {
		parts = append(parts, fmt.Sprintf("%s → %s", p.Name, p.Relation.Target))
	}
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, ", ")
}
