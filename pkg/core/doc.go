// Package core defines the shared domain types for chauffeur: tagged
// scalar values, run/instance state records, and the state Store
// interface. It imports only the standard library so that every other
// package can depend on it without cycles.
package core
