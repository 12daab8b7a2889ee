// TEST TYPE: Unit Tests
// DEPENDENCIES: None
// PURPOSE: Test installer chaining

package runtime

import (
	"context"
	"testing"

	"github.com/arthur-debert/appdirbuilder/pkg/config"
	"github.com/arthur-debert/appdirbuilder/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedInstaller struct {
	override Override
	err      error
	calls    int
}

func (f *fixedInstaller) Resolve(context.Context, config.Policy) (Override, error) {
	f.calls++
	return f.override, f.err
}

func TestNoopNeverOverrides(t *testing.T) {
	o, err := Noop{}.Resolve(context.Background(), config.Policy{})
	require.NoError(t, err)
	assert.Equal(t, NoOverride{}, o)
}

func TestChainReturnsFirstOverride(t *testing.T) {
	first := &fixedInstaller{override: NoOverride{}}
	second := &fixedInstaller{override: CommandOverride{Executable: "/bin/python3"}}
	third := &fixedInstaller{override: CommandOverride{Executable: "/bin/node"}}

	o, err := Chain{first, second, third}.Resolve(context.Background(), config.Policy{})
	require.NoError(t, err)
	assert.Equal(t, "/bin/python3", o.(CommandOverride).Executable)
	assert.Equal(t, 0, third.calls)
}

func TestChainStopsOnError(t *testing.T) {
	failing := &fixedInstaller{err: errors.New(errors.ErrSubprocess, "boom")}
	after := &fixedInstaller{override: NoOverride{}}

	_, err := Chain{failing, after}.Resolve(context.Background(), config.Policy{})
	require.Error(t, err)
	assert.Equal(t, 0, after.calls)
}

func TestChainEmpty(t *testing.T) {
	o, err := Chain{}.Resolve(context.Background(), config.Policy{})
	require.NoError(t, err)
	assert.Equal(t, NoOverride{}, o)
}
