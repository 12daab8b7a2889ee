package pipeline

import (
	"os"
	"path/filepath"

	"github.com/arthur-debert/appdirbuilder/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Exclusion is a filtered path and the rule that matched it.
type Exclusion struct {
	Path string `yaml:"path"`
	Rule string `yaml:"rule"`
}

// Report summarizes a build. Every path it lists is a host path.
type Report struct {
	AppDir     string   `yaml:"appDir"`
	WorkDir    string   `yaml:"workDir"`
	Executable string   `yaml:"executable,omitempty"`
	Command    []string `yaml:"command,omitempty"`
	Replayed   bool     `yaml:"replayed"`

	Existing   int         `yaml:"existing"`
	Candidates int         `yaml:"candidates"`
	Excluded   []Exclusion `yaml:"excluded,omitempty"`
	AppLocal   int         `yaml:"appLocal"`
	External   int         `yaml:"external"`
	Copied     []string    `yaml:"copied,omitempty"`

	Kept               int      `yaml:"kept"`
	Deleted            []string `yaml:"deleted,omitempty"`
	IncludedByFragment []string `yaml:"includedByFragment,omitempty"`

	CopiedExecutable string   `yaml:"copiedExecutable,omitempty"`
	Patched          string   `yaml:"patched,omitempty"`
	Replacements     int      `yaml:"replacements,omitempty"`
	Artifacts        []string `yaml:"artifacts,omitempty"`
	AppRunWritten    bool     `yaml:"appRunWritten"`

	Digest string `yaml:"digest"`
}

// WriteReport writes r to path as YAML.
func WriteReport(path string, r *Report) error {
	data, err := yaml.Marshal(r)
	if err != nil {
		return errors.Wrap(err, errors.ErrInternal, "failed to encode report")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrapf(err, errors.ErrFileSystem, "cannot create directory for %s", path)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Wrapf(err, errors.ErrFileSystem, "cannot write report %s", path)
	}
	return nil
}
