// Package trace runs a program under a syscall tracer and turns the raw
// tracer log into the set of files the program opened.
//
// The Tracer never touches the process environment: every run gets an
// explicit environment built with MergeEnv. Raw logs can be archived with
// SaveLog (zstd when the name ends in .zst) and replayed with LoadLog.
package trace
