package project_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/droidforge/droidforge/pkg/project"
)

func TestLoadFromRoot(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	err := os.WriteFile(filepath.Join(root, project.ConfigFileName), []byte(`
name: myapp
version_code: 7
version_name: "2.1"
sdk:
  min_sdk_version: 24
signing:
  release:
    store_path: keys/release.jks
    store_password: s3cret
    key_alias: upload
    key_password: s3cret2
`), 0o600)
	require.NoError(t, err)

	c, err := project.LoadFromRoot(root)
	require.NoError(t, err)

	require.Equal(t, "myapp", c.GetName())
	require.Equal(t, 7, c.GetVersionCode())
	require.Equal(t, "2.1", c.GetVersionName())
	require.Equal(t, 24, c.GetMinSDKVersion())
	require.Equal(t, 35, c.GetTargetSDKVersion())

	s, ok := c.GetSigning(project.ProfileRelease)
	require.True(t, ok)
	require.Equal(t, "keys/release.jks", s.StorePath)
	require.Equal(t, "s3cret", s.StorePassword)
	require.Equal(t, "upload", s.KeyAlias)
	require.Equal(t, "s3cret2", s.KeyPassword)

	_, ok = c.GetSigning(project.ProfileDev)
	require.False(t, ok)
}

func TestLoadFromRootMissingFile(t *testing.T) {
	t.Parallel()

	c, err := project.LoadFromRoot(t.TempDir())
	require.NoError(t, err)

	require.Equal(t, project.DefaultName, c.GetName())
	require.Equal(t, project.DefaultVersionCode, c.GetVersionCode())
	require.Equal(t, project.DefaultVersionName, c.GetVersionName())
	require.Equal(t, project.DefaultMinSDKVersion, c.GetMinSDKVersion())
	require.Equal(t, project.DefaultTargetSDK, c.GetTargetSDKVersion())
}

func TestLoadInvalidYAML(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	path := filepath.Join(root, project.ConfigFileName)
	err := os.WriteFile(path, []byte("name: [unclosed"), 0o600)
	require.NoError(t, err)

	_, err = project.Load(path)
	require.Error(t, err)
}

func TestParseProfile(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		in    string
		want  project.Profile
		isDev bool
	}{
		"empty defaults to dev": {in: "", want: project.ProfileDev, isDev: true},
		"dev":                   {in: "dev", want: project.ProfileDev, isDev: true},
		"release":               {in: "release", want: project.ProfileRelease},
		"custom":                {in: "beta-rollout", want: project.Profile("beta-rollout")},
	}
	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			p := project.ParseProfile(tc.in)
			require.Equal(t, tc.want, p)
			require.Equal(t, tc.isDev, p.IsDev())
		})
	}
}
