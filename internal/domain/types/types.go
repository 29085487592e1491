// Package types contains common types used across the application
package types

// Entry is one row of a ranking table.
type Entry struct {
	Position int    `json:"position"`
	Name     string `json:"name"`
	Value    int    `json:"value"`
}
