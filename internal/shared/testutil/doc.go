// Package testutil holds helpers shared by package tests: a slog handler that
// captures records for assertions and writers for small raw league datasets.
package testutil
