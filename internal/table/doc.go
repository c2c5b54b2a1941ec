// Package table provides row sources for settings tables. A source yields one
// record of string fields per call and io.EOF when exhausted; CSV files are
// the reference encoding.
package table
