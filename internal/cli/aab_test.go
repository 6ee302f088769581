package cli_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/droidforge/droidforge/internal/cli"
	"github.com/droidforge/droidforge/pkg/toolchain"
)

func TestAabAssembleRequiresInput(t *testing.T) {
	t.Parallel()

	tc := cli.NewRootCmd("test_aab", "", "")

	tc.SetArgs([]string{"aab", "assemble"})
	tc.SetOut(&bytes.Buffer{})
	tc.SetErr(&bytes.Buffer{})

	err := tc.Execute()
	require.Error(t, err)
	require.ErrorContains(t, err, "arg")
}

func TestAabAssembleMissingJavaHome(t *testing.T) {
	t.Setenv("JAVA_HOME", "")
	t.Setenv("ANDROID_HOME", t.TempDir())

	tc := cli.NewRootCmd("test_aab", "", "")

	tc.SetArgs([]string{"aab", "assemble", "app.apk", "--quiet", "--path", t.TempDir()})
	tc.SetOut(&bytes.Buffer{})
	tc.SetErr(&bytes.Buffer{})

	err := tc.Execute()
	require.ErrorIs(t, err, toolchain.ErrJavaHomeNotSet)
}

func TestAabAssembleMissingAndroidHome(t *testing.T) {
	t.Setenv("JAVA_HOME", t.TempDir())
	t.Setenv("ANDROID_HOME", "")

	tc := cli.NewRootCmd("test_aab", "", "")

	tc.SetArgs([]string{"aab", "assemble", "app.apk", "--quiet", "--path", t.TempDir()})
	tc.SetOut(&bytes.Buffer{})
	tc.SetErr(&bytes.Buffer{})

	err := tc.Execute()
	require.ErrorIs(t, err, toolchain.ErrAndroidHomeNotSet)
}
