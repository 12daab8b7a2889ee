// Package testutil provides helpers shared by the package tests.
//
// The helpers build real trees under t.TempDir(): source files that a traced
// program would open, pre-existing AppDir content, executables and fake tracer
// scripts. All helpers fail the test on error.
package testutil
