package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jward/cppmodel"
)

var typeCmd = &cobra.Command{
	Use:   "type NAME [path]",
	Short: "Resolve a type name from the global namespace",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runQuery(cmd, "type", args, func(q *cppmodel.QueryBuilder, name string) (any, error) {
			v, err := q.FindType(name)
			if err != nil {
				return nil, err
			}
			return []cppmodel.EntityView{*v}, nil
		})
	},
}

var contentCmd = &cobra.Command{
	Use:   "content NAME [path]",
	Short: "List every entity a possibly qualified name denotes",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runQuery(cmd, "content", args, func(q *cppmodel.QueryBuilder, name string) (any, error) {
			return q.FindContent(name)
		})
	},
}

var overloadsCmd = &cobra.Command{
	Use:   "overloads NAME [path]",
	Short: "List the overload family of a function",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runQuery(cmd, "overloads", args, func(q *cppmodel.QueryBuilder, name string) (any, error) {
			return q.Overloads(name)
		})
	},
}

var specialisationsCmd = &cobra.Command{
	Use:     "specialisations NAME [path]",
	Aliases: []string{"specializations"},
	Short:   "List the specialisations of a template",
	Args:    cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runQuery(cmd, "specialisations", args, func(q *cppmodel.QueryBuilder, name string) (any, error) {
			return q.Specialisations(name)
		})
	},
}

// runQuery indexes the directory in args[1:] and runs one name query.
func runQuery(cmd *cobra.Command, command string, args []string, query func(*cppmodel.QueryBuilder, string) (any, error)) error {
	engine, _, _, err := buildEngine(cmd.Context(), cmd.ErrOrStderr(), args[1:])
	if err != nil {
		return outputError(cmd, command, err)
	}
	results, err := query(engine.Query(), args[0])
	if err != nil {
		return outputError(cmd, command, err)
	}
	return outputResult(cmd, CLIResult{Command: command, Results: results})
}

var scriptCmd = &cobra.Command{
	Use:   "script FILE [path]",
	Short: "Run a Risor script against the model",
	Long:  "Indexes path, then runs FILE with find_type, find_content, entities, children, overloads, specialisations, namespaces_chain, type_target and log in scope. The script's last value is printed.",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, _, _, err := buildEngine(cmd.Context(), cmd.ErrOrStderr(), args[1:])
		if err != nil {
			return outputError(cmd, "script", err)
		}
		src, err := os.ReadFile(args[0])
		if err != nil {
			return outputError(cmd, "script", err)
		}
		result, err := engine.RunSource(cmd.Context(), string(src), nil)
		if err != nil {
			return outputError(cmd, "script", err)
		}
		return outputResult(cmd, CLIResult{Command: "script", Results: CLIScriptResult{Value: result}})
	},
}

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Summarise a snapshot, or list its entities by kind or file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSnapshot(cmd, "show", func(s *cppmodel.Snapshot) (any, error) {
			switch {
			case flagShowKind != "" && flagShowFile != "":
				return nil, fmt.Errorf("--kind and --file are exclusive")
			case flagShowKind != "":
				return s.Entities(flagShowKind)
			case flagShowFile != "":
				return s.FileEntities(flagShowFile)
			}
			sum, err := s.Summary()
			if err != nil {
				return nil, err
			}
			return CLISnapshot{Database: flagSnapshotDB, SnapshotSummary: sum}, nil
		})
	},
}

var detailCmd = &cobra.Command{
	Use:   "detail NAME",
	Short: "Show a stored entity with its members, type uses and families",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSnapshot(cmd, "detail", func(s *cppmodel.Snapshot) (any, error) {
			return s.Detail(args[0])
		})
	},
}

var dependentsCmd = &cobra.Command{
	Use:   "dependents NAME",
	Short: "List the entities and files whose types name NAME",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSnapshot(cmd, "dependents", func(s *cppmodel.Snapshot) (any, error) {
			return s.Dependents(args[0])
		})
	},
}

var scopeCmd = &cobra.Command{
	Use:   "scope [PATH]",
	Short: "Show a stored scope and its using directives",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := ""
		if len(args) == 1 {
			path = args[0]
		}
		return runSnapshot(cmd, "scope", func(s *cppmodel.Snapshot) (any, error) {
			return s.Scope(path)
		})
	},
}

// runSnapshot opens the --db snapshot and runs one read against it.
func runSnapshot(cmd *cobra.Command, command string, read func(*cppmodel.Snapshot) (any, error)) error {
	if flagSnapshotDB == "" {
		return outputError(cmd, command, fmt.Errorf("--db is required"))
	}
	s, err := cppmodel.OpenSnapshot(flagSnapshotDB)
	if err != nil {
		return outputError(cmd, command, err)
	}
	defer s.Close()
	results, err := read(s)
	if err != nil {
		return outputError(cmd, command, err)
	}
	return outputResult(cmd, CLIResult{Command: command, Results: results})
}

var (
	flagSnapshotDB string
	flagShowKind   string
	flagShowFile   string
)

func init() {
	for _, c := range []*cobra.Command{showCmd, detailCmd, dependentsCmd, scopeCmd} {
		c.Flags().StringVar(&flagSnapshotDB, "db", "", "snapshot database path")
	}
	showCmd.Flags().StringVar(&flagShowKind, "kind", "", "list entities of this kind, e.g. struct")
	showCmd.Flags().StringVar(&flagShowFile, "file", "", "list entities declared in this file")
}

func outputResult(cmd *cobra.Command, result CLIResult) error {
	if flagFormat == "text" {
		return outputResultText(cmd.OutOrStdout(), result)
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(result)
}

// outputError writes an error in the selected format and returns it so RunE
// can propagate it to Cobra. In JSON mode the error is written to stdout as a
// CLIResult envelope. In text mode it goes to stderr.
func outputError(cmd *cobra.Command, command string, err error) error {
	errorHandled = true
	if flagFormat == "text" {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: %s\n", err)
		return err
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	_ = enc.Encode(CLIResult{Command: command, Error: err.Error()})
	return err
}
