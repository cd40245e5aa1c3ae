package commands

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/cascade-orm/cascade/internal/cli/ui"
	"github.com/cascade-orm/cascade/schema"
)

var describeManifestFlag string

// NewDescribeCommand creates the describe command
func NewDescribeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "describe <entity>",
		Short: "Show the compiled mapping for one entity",
		Long: `Print every property of an entity: its kind, value type, backing
column, and relation wiring including cascade flags.`,
		Example: `  # Describe the Employee entity
  cascade describe Employee

  # Describe against a specific manifest
  cascade describe Employee --manifest schema/entities.yml`,
		Args: cobra.ExactArgs(1),
		RunE: runDescribe,
	}

	cmd.Flags().StringVarP(&describeManifestFlag, "manifest", "m", "", "Path to the entity manifest")

	return cmd
}

func runDescribe(cmd *cobra.Command, args []string) error {
	path, err := resolveManifest(describeManifestFlag)
	if err != nil {
		return err
	}

	reg, err := loadRegistry(path)
	if err != nil {
		return err
	}

	name := args[0]
	res, err := reg.Lookup(name)
	if err != nil {
		hint := ui.Hint{
			Problem:     fmt.Sprintf("unknown entity %q", name),
			Suggestions: ui.Suggest(name, reg.Names()),
			Commands:    []string{"cascade validate"},
		}
		fmt.Fprint(cmd.ErrOrStderr(), ui.FormatError(hint))
		return err
	}

	titleColor := color.New(color.FgCyan, color.Bold)
	titleColor.Fprint(cmd.OutOrStdout(), res.Name)
	fmt.Fprintf(cmd.OutOrStdout(), " (table %s)\n\n", res.Table)

	table := ui.NewTable("NAME", "KIND", "TYPE", "COLUMN", "DETAILS")
	for _, p := range res.Properties {
		table.AddRow(p.Name, p.Kind.String(), dash(propertyType(p)), dash(p.Column), dash(propertyDetails(p)))
	}
	table.Render(cmd.OutOrStdout())

	return nil
}

func propertyType(p schema.Property) string {
	if p.Kind.Relational() {
		return ""
	}
	return p.Type.String()
}

func propertyDetails(p schema.Property) string {
	if !p.Kind.Relational() {
		return ""
	}

	rel := p.Relation
	var b strings.Builder
	fmt.Fprintf(&b, "→ %s", rel.Target)
	switch rel.Kind {
	case schema.ManyToMany:
		fmt.Fprintf(&b, " via %s (%s, %s)", rel.JunctionTable, rel.OwnColumn, rel.OtherColumn)
	default:
		fmt.Fprintf(&b, " via %s", rel.TargetName)
	}
	if c := cascadeSummary(rel); c != "" {
		fmt.Fprintf(&b, ", cascades %s", c)
	}
	return b.String()
}

func cascadeSummary(rel *schema.Relation) string {
	switch {
	case rel.CascadeOnSave && rel.CascadeOnDelete:
		return "save+delete"
	case rel.CascadeOnSave:
		return "save"
	case rel.CascadeOnDelete:
		return "delete"
	default:
		return ""
	}
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
