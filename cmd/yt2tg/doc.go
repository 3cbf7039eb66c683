// Package main hosts the yt2tg CLI entrypoint and command graph.
//
// The Cobra-based command tree covers one-shot and continuous pipeline
// runs, delivery state inspection, journal history, and configuration
// scaffolding. It centralizes configuration resolution and structured
// logging setup so subcommands can focus on user experience instead of
// wiring.
//
// Keep this package lean: add new functionality by extending the
// internal packages first, then surface it through dedicated commands
// or flags here.
package main
