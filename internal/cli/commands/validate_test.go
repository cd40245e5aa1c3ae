package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
)

const testManifest = `
entities:
  - name: Company
    properties:
      - name: id
        type: int
        primaryKey: true
      - name: name
        type: string
      - name: employees
        relation:
          kind: oneToMany
          target: Employee
          cascadeOnSave: true
          cascadeOnDelete: true
  - name: Employee
    properties:
      - name: id
        type: int
        primaryKey: true
      - name: name
        type: string
      - name: companyId
        type: int
      - name: company
        relation:
          kind: manyToOne
          target: Company
`

func writeTestManifest(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "entities.yml")
	if err := os.WriteFile(path, []byte(testManifest), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

// runCommand executes the root command with the given arguments and returns
// captured stdout, stderr, and the command error. Color is disabled so
// assertions see plain text.
func runCommand(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	prevColor := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = prevColor })

	cmd := NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestValidateCommand(t *testing.T) {
	path := writeTestManifest(t)

	out, _, err := runCommand(t, "validate", "--manifest", path)
	if err != nil {
		t.Fatalf("expected validate to succeed, got %v", err)
	}

	if !strings.Contains(out, "Company") {
		t.Errorf("expected output to list Company, got:\n%s", out)
	}
	if !strings.Contains(out, "companies") {
		t.Errorf("expected output to show the companies table, got:\n%s", out)
	}
	if !strings.Contains(out, "employees → Employee") {
		t.Errorf("expected output to show the employees relation, got:\n%s", out)
	}
	if !strings.Contains(out, "✓ 2 entities valid") {
		t.Errorf("expected success summary, got:\n%s", out)
	}
}

func TestValidateCommandFindsConfiguredManifest(t *testing.T) {
	// Without a flag the manifest comes from the config defaults, resolved
	// against the working directory
	tmpDir := t.TempDir()
	oldWd, _ := os.Getwd()
	os.Chdir(tmpDir)
	defer os.Chdir(oldWd)

	os.WriteFile("entities.yml", []byte(testManifest), 0644)

	out, _, err := runCommand(t, "validate")
	if err != nil {
		t.Fatalf("expected validate to succeed, got %v", err)
	}

	if !strings.Contains(out, "✓ 2 entities valid") {
		t.Errorf("expected success summary, got:\n%s", out)
	}
}

func TestValidateCommandMissingManifest(t *testing.T) {
	_, _, err := runCommand(t, "validate", "--manifest", filepath.Join(t.TempDir(), "nope.yml"))
	if err == nil {
		t.Error("expected error for missing manifest, got nil")
	}
}

func TestValidateCommandBadDefinition(t *testing.T) {
	// The relation targets an entity the manifest never declares
	badManifest := `
entities:
  - name: Company
    properties:
      - name: id
        type: int
        primaryKey: true
      - name: employees
        relation:
          kind: oneToMany
          target: Employee
`
	path := filepath.Join(t.TempDir(), "entities.yml")
	os.WriteFile(path, []byte(badManifest), 0644)

	_, _, err := runCommand(t, "validate", "--manifest", path)
	if err == nil {
		t.Error("expected error for undeclared relation target, got nil")
	}
}
