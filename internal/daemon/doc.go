// Package daemon runs pipeline cycles on an interval with flock-based
// locking to prevent multiple concurrent instances from sharing the
// state file.
package daemon
