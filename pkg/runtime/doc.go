// Package runtime prepares a language runtime inside the AppDir before the
// trace runs and tells the build what to trace instead of the command line
// executable.
package runtime
