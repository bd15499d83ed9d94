// Package main hosts the vodsub CLI entrypoint and command graph.
//
// The root command runs the subtitle pipeline for one recording. Subcommands
// report tool availability (deps), list past runs (history), sweep abandoned
// workspaces (clean) and scaffold configuration (config init). Exit statuses
// come from services.ExitCode so a failing tool's status reaches the shell
// unchanged.
package main
