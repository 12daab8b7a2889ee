// Package exclude removes system files that must never be bundled into an
// AppDir: kernel and device paths, caches, locale and font data, and every
// library named by the AppImage community exclude list.
package exclude
