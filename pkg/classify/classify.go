// Package classify decides where each traced file lands in the AppDir.
//
// Files under the working directory belong to the application and move to
// /app with the working directory stripped. Every other file is external and
// keeps its absolute path below the AppDir root.
package classify

import (
	"path"

	"github.com/arthur-debert/appdirbuilder/pkg/utils"
)

// AppPrefix is where application-local files are placed inside the AppDir.
const AppPrefix = "/app"

// Kind tells application files from system files.
type Kind int

const (
	External Kind = iota
	AppLocal
)

func (k Kind) String() string {
	switch k {
	case AppLocal:
		return "app-local"
	case External:
		return "external"
	default:
		return "unknown"
	}
}

// File is a traced file with its destination relative to the AppDir root.
// Dest always starts with "/".
type File struct {
	Source string
	Kind   Kind
	Dest   string
}

// Classifier classifies paths against a working directory.
type Classifier struct {
	WorkDir string
}

// New returns a classifier for workDir, which should be canonical.
func New(workDir string) *Classifier {
	return &Classifier{WorkDir: workDir}
}

// Classify maps every path to a File, keeping input order.
func (c *Classifier) Classify(paths []string) []File {
	files := make([]File, 0, len(paths))
	for _, p := range paths {
		files = append(files, c.classify(p))
	}
	return files
}

func (c *Classifier) classify(p string) File {
	if rest, ok := utils.TrimRoot(p, c.WorkDir); ok {
		return File{Source: p, Kind: AppLocal, Dest: path.Join(AppPrefix, rest)}
	}
	return File{Source: p, Kind: External, Dest: p}
}

// Partition splits files by kind, keeping their relative order.
func Partition(files []File) (appLocal, external []File) {
	for _, f := range files {
		if f.Kind == AppLocal {
			appLocal = append(appLocal, f)
		} else {
			external = append(external, f)
		}
	}
	return appLocal, external
}

// Dests returns the destinations of files in order.
func Dests(files []File) []string {
	dests := make([]string, 0, len(files))
	for _, f := range files {
		dests = append(dests, f.Dest)
	}
	return dests
}
