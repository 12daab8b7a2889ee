// Package emit writes everything an AppDir needs besides the traced files:
// the copied executable, the binary patch for hard-coded /usr paths, the
// desktop entry, icons, AppStream metainfo and the AppRun launcher.
package emit
