package config

import (
	"strings"

	"github.com/go-ini/ini"
)

// Section names as they appear in the policy file.
const (
	SectionFiles        = "Files"
	SectionRuntime      = "Runtime"
	SectionDesktopEntry = "Desktop Entry"
	SectionIcon         = "Icon"
	SectionPython       = "Python"
)

// iniDocument is a parsed policy file flattened for koanf, plus the
// desktop entry keys in the order the file declares them.
type iniDocument struct {
	values      map[string]interface{}
	desktopKeys []string
}

// loadINI parses path with Python-style multi-line values and without
// inline comments, so values such as "$@" or "a # b" survive untouched.
func loadINI(path string) (*iniDocument, error) {
	f, err := ini.LoadSources(ini.LoadOptions{
		AllowPythonMultilineValues: true,
		IgnoreInlineComment:        true,
		SpaceBeforeInlineComment:   false,
	}, path)
	if err != nil {
		return nil, err
	}

	doc := &iniDocument{values: make(map[string]interface{})}
	for _, section := range f.Sections() {
		if len(section.Keys()) == 0 {
			continue
		}
		name := koanfSection(section.Name())
		values, ok := doc.values[name].(map[string]interface{})
		if !ok {
			values = make(map[string]interface{})
			doc.values[name] = values
		}
		for _, key := range section.Keys() {
			values[strings.ToLower(key.Name())] = key.Value()
			if name == koanfSection(SectionDesktopEntry) {
				doc.desktopKeys = append(doc.desktopKeys, key.Name())
			}
		}
	}

	return doc, nil
}

// koanfSection maps an INI section name to its koanf key.
func koanfSection(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// splitLines turns a multi-line value into its non-blank trimmed lines.
func splitLines(value string) []string {
	lines := []string{}
	for _, line := range strings.Split(value, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
