// TEST TYPE: Integration Tests
// DEPENDENCIES: synthfs on the real filesystem, pkg/testutil
// PURPOSE: Test the batched artifact write into an AppDir

package emit_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/arthur-debert/appdirbuilder/pkg/config"
	"github.com/arthur-debert/appdirbuilder/pkg/emit"
	"github.com/arthur-debert/appdirbuilder/pkg/errors"
	"github.com/arthur-debert/appdirbuilder/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmitterWritesArtifacts(t *testing.T) {
	testutil.SkipOnWindows(t)
	work := testutil.CanonicalTempDir(t)
	appDir := testutil.CreateDir(t, work, "AppDir")
	testutil.CreateFile(t, work, "assets/logo.svg", "<svg/>")

	p, err := config.Defaults()
	require.NoError(t, err)
	p.Runtime.ReverseDNS = "org.example.MyApp"
	p.Icon.SourcePath = "assets/logo.svg"
	p.DesktopEntry = p.DesktopEntry.With("Name", "My App")

	written, err := emit.NewEmitter(appDir, work).Emit(context.Background(), p)
	require.NoError(t, err)

	assert.Equal(t, []string{
		filepath.Join(appDir, "org.example.MyApp.desktop"),
		filepath.Join(appDir, "usr/share/icons/scalable/apps/myapp.svg"),
		filepath.Join(appDir, "myapp.svg"),
		filepath.Join(appDir, "usr/share/metainfo/org.example.MyApp.appdata.xml"),
	}, written)

	testutil.AssertFileContent(t, filepath.Join(appDir, "myapp.svg"), "<svg/>")
	testutil.AssertFileContent(t, filepath.Join(appDir, "usr/share/icons/scalable/apps/myapp.svg"), "<svg/>")
	testutil.AssertFileContent(t, filepath.Join(appDir, "org.example.MyApp.desktop"), emit.RenderDesktopEntry(p.DesktopEntry))
	assert.True(t, testutil.FileExists(t, filepath.Join(appDir, "usr/share/metainfo/org.example.MyApp.appdata.xml")))

	// A second run overwrites in place
	_, err = emit.NewEmitter(appDir, work).Emit(context.Background(), p)
	require.NoError(t, err)
}

func TestEmitterSkipsMissingIconConfig(t *testing.T) {
	testutil.SkipOnWindows(t)
	work := testutil.CanonicalTempDir(t)
	appDir := testutil.CreateDir(t, work, "AppDir")

	p, err := config.Defaults()
	require.NoError(t, err)
	p.Runtime.ReverseDNS = "org.example.MyApp"

	written, err := emit.NewEmitter(appDir, work).Emit(context.Background(), p)
	require.NoError(t, err)
	assert.Len(t, written, 2)
	testutil.AssertNoFile(t, filepath.Join(appDir, "myapp"))
}

func TestEmitterMissingIconFile(t *testing.T) {
	work := testutil.CanonicalTempDir(t)
	appDir := testutil.CreateDir(t, work, "AppDir")

	p, err := config.Defaults()
	require.NoError(t, err)
	p.Icon.SourcePath = "missing.png"

	_, err = emit.NewEmitter(appDir, work).Emit(context.Background(), p)
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidInput))
}
