package main

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/jward/cppmodel"
	"github.com/jward/cppmodel/internal/store"
)

// formatEntitiesText formats entity views as aligned columns.
func formatEntitiesText(w io.Writer, views []cppmodel.EntityView) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tKIND\tNAME\tSIGNATURE\tLOCATION")
	for _, v := range views {
		loc := ""
		if v.File != "" {
			loc = fmt.Sprintf("%s:%d:%d", v.File, v.Line, v.Column)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", v.ID, v.Kind, v.QualifiedName+v.Specialisation, signature(v), loc)
	}
	tw.Flush()
}

// signature renders the type of a variable or the parameter list of a
// function, e.g. "double(const Point&, const Point&)".
func signature(v cppmodel.EntityView) string {
	if v.ReturnType == "" && v.Arguments == nil {
		return v.Type
	}
	args := make([]string, len(v.Arguments))
	for i, a := range v.Arguments {
		args[i] = a.Type
	}
	s := v.ReturnType + "(" + strings.Join(args, ", ") + ")"
	if v.Modifiers != "" {
		s += " [" + v.Modifiers + "]"
	}
	return s
}

func formatIndexText(w io.Writer, s CLIIndexSummary) {
	fmt.Fprintf(w, "Root: %s\n", s.Root)
	if s.Database != "" {
		fmt.Fprintf(w, "Database: %s\n", s.Database)
	}
	fmt.Fprintf(w, "Files: %d\nEntities: %d\nScopes: %d\n", s.Stats.Files, s.Stats.Entities, s.Stats.Scopes)
	if s.Stats.Skipped > 0 || s.Stats.Ambiguous > 0 {
		fmt.Fprintf(w, "Skipped declarations: %d\nAbandoned files: %d\n", s.Stats.Skipped, s.Stats.Ambiguous)
	}
}

func formatSnapshotText(w io.Writer, s CLISnapshot) {
	fmt.Fprintf(w, "Database: %s\n", s.Database)
	if s.ExportedAt != "" {
		fmt.Fprintf(w, "Exported: %s\n", s.ExportedAt)
	}
	if s.Skipped != "" && s.Skipped != "0" {
		fmt.Fprintf(w, "Skipped declarations: %s\n", s.Skipped)
	}
	if s.Ambiguous != "" && s.Ambiguous != "0" {
		fmt.Fprintf(w, "Abandoned files: %s\n", s.Ambiguous)
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TABLE\tROWS")
	for _, table := range store.Tables {
		if n, ok := s.Counts[table]; ok {
			fmt.Fprintf(tw, "%s\t%d\n", table, n)
		}
	}
	tw.Flush()
	for _, f := range s.Files {
		fmt.Fprintf(w, "  %s\n", f)
	}
}

func formatDetailText(w io.Writer, details []cppmodel.EntityDetail) {
	for i, d := range details {
		if i > 0 {
			fmt.Fprintln(w)
		}
		formatEntitiesText(w, []cppmodel.EntityView{d.Entity})
		if len(d.Children) > 0 {
			fmt.Fprintln(w, "\nMembers:")
			formatEntitiesText(w, d.Children)
		}
		formatTypeUsesText(w, "Uses", d.Uses)
		formatTypeUsesText(w, "Used by", d.UsedBy)
		if len(d.Overloads) > 0 {
			fmt.Fprintln(w, "\nOverloads:")
			formatEntitiesText(w, d.Overloads)
		}
		if len(d.Specialisations) > 0 {
			fmt.Fprintln(w, "\nSpecialisations:")
			formatEntitiesText(w, d.Specialisations)
		}
	}
}

func formatTypeUsesText(w io.Writer, title string, uses []cppmodel.TypeUseView) {
	if len(uses) == 0 {
		return
	}
	fmt.Fprintf(w, "\n%s:\n", title)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ENTITY\tROLE\tSPELLING\tTARGET")
	for _, u := range uses {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s %s\n", u.EntityID, u.Role, u.Spelling, u.TargetKind, u.TargetName)
	}
	tw.Flush()
}

func formatDependentsText(w io.Writer, d *cppmodel.Dependents) {
	formatEntitiesText(w, d.Entities)
	if len(d.Files) > 0 {
		fmt.Fprintln(w, "\nFiles:")
		for _, f := range d.Files {
			fmt.Fprintf(w, "  %s\n", f)
		}
	}
}

func formatScopeText(w io.Writer, s *cppmodel.ScopeView) {
	path := s.Path
	if path == "" {
		path = "::"
	}
	fmt.Fprintf(w, "Scope: %s\n", path)
	if s.Parent != "" {
		fmt.Fprintf(w, "Parent: %s\n", s.Parent)
	}
	for _, u := range s.Using {
		fmt.Fprintf(w, "using namespace %s;\n", u)
	}
}

// outputResultText dispatches to the text formatter for the result type.
func outputResultText(w io.Writer, result CLIResult) error {
	switch v := result.Results.(type) {
	case []cppmodel.EntityView:
		formatEntitiesText(w, v)
	case CLIIndexSummary:
		formatIndexText(w, v)
	case CLISnapshot:
		formatSnapshotText(w, v)
	case []cppmodel.EntityDetail:
		formatDetailText(w, v)
	case *cppmodel.Dependents:
		formatDependentsText(w, v)
	case *cppmodel.ScopeView:
		formatScopeText(w, v)
	case CLIScriptResult:
		fmt.Fprintln(w, v.Value)
	case nil:
	default:
		return fmt.Errorf("unsupported result type for text format: %T", v)
	}
	return nil
}

// validFormats lists accepted values for --format.
var validFormats = []string{"json", "text"}

// validateFormat checks that the --format flag value is recognized.
func validateFormat(format string) error {
	if slices.Contains(validFormats, format) {
		return nil
	}
	return fmt.Errorf("invalid format %q: must be %s", format, strings.Join(validFormats, " or "))
}
