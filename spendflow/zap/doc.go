// Package zap provides the zap-backed implementation of the log.Logger
// interface, with an environment-profiled baseline configuration: console
// output at debug level for development and local, JSON at info level
// elsewhere.
package zap
