package main

import "github.com/jward/cppmodel"

// CLIResult is the top-level JSON envelope for all commands.
type CLIResult struct {
	Command string `json:"command"`
	Results any    `json:"results,omitempty"`
	Error   string `json:"error,omitempty"`
}

// CLIIndexSummary is the result of "index".
type CLIIndexSummary struct {
	Root     string         `json:"root"`
	Database string         `json:"database,omitempty"`
	Stats    cppmodel.Stats `json:"stats"`
}

// CLIScriptResult wraps the last value of a script.
type CLIScriptResult struct {
	Value any `json:"value"`
}

// CLISnapshot is the result of "show" without a listing flag.
type CLISnapshot struct {
	Database string `json:"database"`
	*cppmodel.SnapshotSummary
}
