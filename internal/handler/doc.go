// Package handler defines the capability contract every configuration handler
// implements and the Catalog that maps type identifiers used in settings tables
// to the factories that build them.
package handler
