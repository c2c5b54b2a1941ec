// Package application provides application initialization and dependency wiring.
// It builds the handler catalog and settings loader from the resolved
// configuration, loads the settings table and applies the resulting handlers,
// keeping the main package focused on CLI parsing and orchestration.
package application
