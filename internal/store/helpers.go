package store

import (
	"encoding/json"
	"strings"
)

// placeholderList returns "?,?,?" for n placeholders.
func placeholderList(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("?,", n-1) + "?"
}

// int64sToArgs converts []int64 to []any for use with database/sql.
func int64sToArgs(ids []int64) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}

// marshalModifiers converts []string to JSON text for storage.
func marshalModifiers(mods []string) string {
	if len(mods) == 0 {
		return "[]"
	}
	b, _ := json.Marshal(mods)
	return string(b)
}

// unmarshalModifiers converts JSON text back to []string.
func unmarshalModifiers(s string) []string {
	if s == "" || s == "null" {
		return nil
	}
	var mods []string
	_ = json.Unmarshal([]byte(s), &mods)
	return mods
}

// remap rewrites a fake (negative) ID through fakeToReal.
func remap(id *int64, fakeToReal map[int64]int64) *int64 {
	if id == nil || *id >= 0 {
		return id
	}
	r := fakeToReal[*id]
	return &r
}

// prefixed qualifies each column of a column list with a table alias.
func prefixed(alias, cols string) string {
	parts := strings.Split(cols, ",")
	for i, p := range parts {
		parts[i] = alias + "." + strings.TrimSpace(p)
	}
	return strings.Join(parts, ", ")
}
