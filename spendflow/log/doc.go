// Package log defines the logging abstraction used across spendflow-core.
//
// Logger is the package interface; GoLogger is the built-in implementation on
// the standard library logger and NopLogger drops everything. The zap
// subpackage provides the production implementation.
//
// All string arguments are sanitized to prevent log injection (CWE-117).
package log
