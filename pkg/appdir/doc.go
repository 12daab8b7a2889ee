// Package appdir materializes traced files into an AppDir and reconciles
// the tree afterwards.
//
// Materializer copies classified files to their destinations. KeepSet
// records every destination that must survive, and Pruner deletes every
// other file unless an include fragment protects it. Directories are never
// deleted. All destinations are AppDir-relative paths starting with "/".
package appdir
