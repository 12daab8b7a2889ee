package config

import (
	"fmt"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// RenderINI renders p in the policy file format. Multi-line values use
// indented continuation lines.
func RenderINI(p Policy) string {
	var b strings.Builder

	section := func(name string) {
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "[%s]\n", name)
	}
	lines := func(key string, values []string) {
		fmt.Fprintf(&b, "%s =", key)
		for _, v := range values {
			fmt.Fprintf(&b, "\n    %s", v)
		}
		b.WriteString("\n")
	}
	kv := func(key, value string) {
		fmt.Fprintf(&b, "%s = %s\n", key, value)
	}

	section(SectionFiles)
	lines("exclude", p.ExcludeFragments())
	lines("include", p.IncludeFragments())
	kv("patchHardCodedBinaryPaths", fmt.Sprint(p.Files.PatchHardCodedBinaryPaths))

	section(SectionPython)
	kv("version", p.Python.Version)
	kv("runWithPython", p.Python.RunWithPython)
	kv("pythonPath", p.Python.PythonPath)
	kv("pipenvInstall", fmt.Sprint(p.Python.PipenvInstall))
	kv("pipInstall", fmt.Sprint(p.Python.PipInstall))
	kv("entryfile", p.Python.Entryfile)

	section(SectionRuntime)
	kv("uuid", p.Runtime.UUID)
	kv("reverseDNS", p.Runtime.ReverseDNS)
	kv("execPath", p.Runtime.ExecPath)
	kv("execArgs", p.Runtime.ExecArgs)
	kv("libraryPath", p.Runtime.LibraryPath)

	section(SectionDesktopEntry)
	for _, e := range p.DesktopEntry.Entries() {
		kv(e.Key, e.Value)
	}

	section(SectionIcon)
	kv("sourcePath", p.Icon.SourcePath)

	return b.String()
}

// GenerateTemplate returns a policy file with every default value
// commented out.
func GenerateTemplate() (string, error) {
	p, err := Defaults()
	if err != nil {
		return "", err
	}
	return commentOutConfigValues(RenderINI(p)), nil
}

// commentOutConfigValues comments out every line that is not blank, a
// comment or a section header
func commentOutConfigValues(content string) string {
	lines := strings.Split(content, "\n")
	var result []string

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)

		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			result = append(result, line)
			continue
		}

		if strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]") {
			result = append(result, line)
			continue
		}

		result = append(result, "# "+line)
	}

	return strings.Join(result, "\n")
}

// tomlPolicy is the TOML view of a policy. The desktop entry becomes a
// table, so key order is not preserved there.
type tomlPolicy struct {
	Files        filesDoc          `toml:"Files"`
	Python       Python            `toml:"Python"`
	Runtime      Runtime           `toml:"Runtime"`
	DesktopEntry map[string]string `toml:"Desktop Entry"`
	Icon         Icon              `toml:"Icon"`
}

// MarshalTOML renders the effective policy as TOML.
func MarshalTOML(p Policy) ([]byte, error) {
	desktop := make(map[string]string, p.DesktopEntry.Len())
	for _, e := range p.DesktopEntry.Entries() {
		desktop[e.Key] = e.Value
	}
	doc := docFrom(p)
	return toml.Marshal(tomlPolicy{
		Files:        doc.Files,
		Python:       doc.Python,
		Runtime:      doc.Runtime,
		DesktopEntry: desktop,
		Icon:         doc.Icon,
	})
}
