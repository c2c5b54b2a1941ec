// Package settings turns a settings table into a populated handler registry.
//
// Row 0 of the table names its columns. Columns 0-3 hold the handler type and
// its three parameters; every further column holds the values for one
// environment. Parameters written as {{a|b|c}} fan out into one handler per
// combination, environment cells left blank fall back to the default column,
// ###ENV:NAME### placeholders are replaced with process environment variables
// and the literal --empty-- forces an empty value.
package settings
