package emit

import (
	_ "embed"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/template"

	"github.com/arthur-debert/appdirbuilder/pkg/errors"
	"github.com/arthur-debert/appdirbuilder/pkg/filesystem"
	"github.com/arthur-debert/appdirbuilder/pkg/logging"
)

// AppRunName is the launcher at the AppDir root.
const AppRunName = "AppRun"

//go:embed templates/AppRun.tmpl
var appRunTemplate string

var appRunTmpl = template.Must(template.New("AppRun").Parse(appRunTemplate))

// EnvVar is one exported variable of the launcher.
type EnvVar struct {
	Key   string
	Value string
}

// AppRun holds the values substituted into the launcher.
type AppRun struct {
	LibraryPath string
	Exec        string
	ExecArgs    string
	ExtraEnv    []EnvVar
	// Chdir makes the launcher run from the AppDir root, which patched
	// binaries need to resolve their "././" paths.
	Chdir bool
}

// EnvVars turns a map into launcher variables in key order.
func EnvVars(m map[string]string) []EnvVar {
	vars := make([]EnvVar, 0, len(m))
	for k, v := range m {
		vars = append(vars, EnvVar{Key: k, Value: v})
	}
	sort.Slice(vars, func(i, j int) bool { return vars[i].Key < vars[j].Key })
	return vars
}

// RenderAppRun renders the launcher script.
func RenderAppRun(data AppRun) (string, error) {
	var b strings.Builder
	if err := appRunTmpl.Execute(&b, data); err != nil {
		return "", errors.Wrap(err, errors.ErrInternal, "failed to render AppRun")
	}
	return b.String(), nil
}

// WriteAppRun writes the launcher into appDir. An existing AppRun is left
// as it is and only made executable again. It reports whether the file
// was written.
func WriteAppRun(fsys filesystem.FS, appDir string, data AppRun) (bool, error) {
	logger := logging.GetLogger("emit")
	target := filepath.Join(appDir, AppRunName)

	if info, err := fsys.Stat(target); err == nil && info.Mode().IsRegular() {
		if err := fsys.Chmod(target, 0755); err != nil {
			return false, errors.Wrapf(err, errors.ErrFileSystem, "cannot chmod %s", target)
		}
		logger.Info().Str("path", target).Msg("Keeping existing AppRun")
		return false, nil
	} else if err != nil && !os.IsNotExist(err) {
		return false, errors.Wrapf(err, errors.ErrFileSystem, "cannot stat %s", target)
	}

	content, err := RenderAppRun(data)
	if err != nil {
		return false, err
	}

	if err := fsys.WriteFile(target, []byte(content), 0755); err != nil {
		return false, errors.Wrapf(err, errors.ErrFileSystem, "cannot write %s", target)
	}
	if err := fsys.Chmod(target, 0755); err != nil {
		return false, errors.Wrapf(err, errors.ErrFileSystem, "cannot chmod %s", target)
	}

	logger.Info().Str("path", target).Msg("Wrote AppRun")
	return true, nil
}
