package config

import "strings"

// DefaultFileName is the policy file looked up in the working directory.
const DefaultFileName = "AppDirBuilder.ini"

// Policy is the fully defaulted build policy. It is a value type: the
// file lists are only reachable through copies, and the With methods
// return modified copies.
type Policy struct {
	Files        Files
	Runtime      Runtime
	Icon         Icon
	Python       Python
	DesktopEntry DesktopEntry
}

// Files controls which discovered files end up in the AppDir.
type Files struct {
	// base names removed from the keep set
	exclude []string
	// substrings that protect a file from pruning
	include []string

	PatchHardCodedBinaryPaths bool
}

// Runtime configures the AppRun launcher.
type Runtime struct {
	UUID        string `koanf:"uuid" toml:"uuid"`
	ReverseDNS  string `koanf:"reversedns" toml:"reverseDNS"`
	ExecPath    string `koanf:"execpath" toml:"execPath"`
	ExecArgs    string `koanf:"execargs" toml:"execArgs"`
	LibraryPath string `koanf:"librarypath" toml:"libraryPath"`
}

type Icon struct {
	SourcePath string `koanf:"sourcepath" toml:"sourcePath"`
}

// Python configures the bundled interpreter installer. It is disabled
// while Version is empty.
type Python struct {
	Version       string `koanf:"version" toml:"version"`
	RunWithPython string `koanf:"runwithpython" toml:"runWithPython"`
	PythonPath    string `koanf:"pythonpath" toml:"pythonPath"`
	Entryfile     string `koanf:"entryfile" toml:"entryfile"`
	PipenvInstall bool   `koanf:"pipenvinstall" toml:"pipenvInstall"`
	PipInstall    bool   `koanf:"pipinstall" toml:"pipInstall"`
}

// ExcludeFragments returns a copy of the exclude list.
func (p Policy) ExcludeFragments() []string {
	return append([]string(nil), p.Files.exclude...)
}

// IncludeFragments returns a copy of the include list.
func (p Policy) IncludeFragments() []string {
	return append([]string(nil), p.Files.include...)
}

// WithExclude returns a copy of p excluding exactly the given base names.
func (p Policy) WithExclude(names ...string) Policy {
	p.Files.exclude = append([]string(nil), names...)
	return p
}

// WithInclude returns a copy of p protecting exactly the given fragments.
func (p Policy) WithInclude(fragments ...string) Policy {
	p.Files.include = append([]string(nil), fragments...)
	return p
}

// Entry is one key of the [Desktop Entry] section.
type Entry struct {
	Key   string
	Value string
}

// DesktopEntry is the ordered [Desktop Entry] section. Keys keep the casing
// they were first declared with; lookups ignore case.
type DesktopEntry struct {
	entries []Entry
}

// NewDesktopEntry builds a section from entries, later duplicates replacing
// the value of earlier ones.
func NewDesktopEntry(entries ...Entry) DesktopEntry {
	var d DesktopEntry
	for _, e := range entries {
		d = d.With(e.Key, e.Value)
	}
	return d
}

// Get returns the value of key, or "" when the key is absent.
func (d DesktopEntry) Get(key string) string {
	if i := d.index(key); i >= 0 {
		return d.entries[i].Value
	}
	return ""
}

// Has reports whether key is present.
func (d DesktopEntry) Has(key string) bool {
	return d.index(key) >= 0
}

// With returns a copy of d with key set to value. A new key is appended.
func (d DesktopEntry) With(key, value string) DesktopEntry {
	entries := d.Entries()
	if i := d.index(key); i >= 0 {
		entries[i].Value = value
	} else {
		entries = append(entries, Entry{Key: key, Value: value})
	}
	return DesktopEntry{entries: entries}
}

// Entries returns a copy of the entries in order.
func (d DesktopEntry) Entries() []Entry {
	return append([]Entry(nil), d.entries...)
}

// Len returns the number of keys.
func (d DesktopEntry) Len() int {
	return len(d.entries)
}

func (d DesktopEntry) index(key string) int {
	for i, e := range d.entries {
		if strings.EqualFold(e.Key, key) {
			return i
		}
	}
	return -1
}

// defaultDesktopKeys lists the default [Desktop Entry] keys with their
// canonical casing and order.
var defaultDesktopKeys = []string{
	"X-AppImage-Arch",
	"X-AppImage-Version",
	"X-AppImage-Name",
	"Name",
	"Exec",
	"Icon",
	"Type",
	"Terminal",
	"Categories",
	"Comment",
}
