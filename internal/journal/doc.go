// Package journal persists a per-attempt delivery history in SQLite.
//
// The journal is advisory: delivery correctness depends only on the
// state store, so journal failures never abort a pipeline run.
package journal
