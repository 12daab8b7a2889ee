// Package filesystem provides the filesystem abstraction used to build AppDirs.
//
// This package contains the FS interface, the standard OS implementation and an
// afero-backed implementation that tests use with an in-memory filesystem.
// Walk visits a tree in lexical order through any FS.
package filesystem
