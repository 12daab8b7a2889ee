package emit

import (
	"path/filepath"
	"strings"

	"github.com/arthur-debert/appdirbuilder/pkg/config"
)

// DesktopFileName is the name of the desktop entry file at the AppDir root.
func DesktopFileName(reverseDNS string) string {
	return reverseDNS + ".desktop"
}

// RenderDesktopEntry renders the [Desktop Entry] section. Exec values with
// a space run through "sh -c", and every "$" is written as `\\$` so it
// survives the desktop entry escaping rules.
func RenderDesktopEntry(d config.DesktopEntry) string {
	var b strings.Builder
	b.WriteString("[Desktop Entry]\n")

	for _, e := range d.Entries() {
		value := e.Value
		if e.Key == "Exec" && strings.Contains(value, " ") {
			value = `sh -c "` + value + `"`
		}
		value = strings.ReplaceAll(value, "$", `\\$`)
		b.WriteString(e.Key + "=" + value + "\n")
	}

	return b.String()
}

// IconName is the file name icons are installed under: the desktop entry
// Icon value, or the lowercased last component of reverseDNS, followed by
// the extension of the source image.
func IconName(p config.Policy) string {
	name := p.DesktopEntry.Get("Icon")
	if name == "" {
		parts := strings.Split(p.Runtime.ReverseDNS, ".")
		name = strings.ToLower(parts[len(parts)-1])
	}

	base := filepath.Base(p.Icon.SourcePath)
	if i := strings.LastIndex(base, "."); i >= 0 {
		return name + base[i:]
	}
	return name
}

// IconDests are the AppDir destinations of the icon.
func IconDests(name string) []string {
	return []string{
		"/usr/share/icons/scalable/apps/" + name,
		"/" + name,
	}
}
