// Package config loads the tool's runtime configuration from multiple sources
// (YAML files, ENVSETTINGS_* environment variables, CLI flags) with
// precedence: CLI flags > YAML config > Environment variables > Defaults. It
// decides which settings table is read, for which environment, and how.
package config
