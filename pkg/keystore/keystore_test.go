package keystore_test

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/droidforge/droidforge/pkg/keystore"
	"github.com/droidforge/droidforge/pkg/project"
)

type fakeDebugKey struct {
	cred keystore.Credential
	err  error
}

func (f fakeDebugKey) DebugKey() (keystore.Credential, error) {
	return f.cred, f.err
}

func TestResolveEnvOverride(t *testing.T) {
	t.Parallel()

	env := keystore.MapEnv{
		"DROIDFORGE_RELEASE_STORE_PATH":     "/keys/release.jks",
		"DROIDFORGE_RELEASE_STORE_PASSWORD": "hunter2",
		"DROIDFORGE_RELEASE_KEY_ALIAS":      "upload",
		"DROIDFORGE_RELEASE_KEY_PASSWORD":   "hunter3",
	}

	// The project declares a conflicting entry; the environment must win
	// without it ever being consulted.
	config := &project.Config{
		Signing: map[string]project.Signing{
			"release": {StorePath: "other.jks", StorePassword: "wrong"},
		},
	}

	r := keystore.NewResolver(env, config, fakeDebugKey{err: errors.New("must not be called")})

	cred, err := r.Resolve(project.ProfileRelease, "/project", false)
	require.NoError(t, err)
	require.Equal(t, keystore.Credential{
		Path:          "/keys/release.jks",
		StorePassword: "hunter2",
		Alias:         "upload",
		KeyPassword:   "hunter3",
	}, cred)
}

func TestResolveEnvStorePathWithoutPassword(t *testing.T) {
	t.Parallel()

	env := keystore.MapEnv{
		"DROIDFORGE_DEV_STORE_PATH": "/keys/dev.jks",
	}
	r := keystore.NewResolver(env, &project.Config{}, fakeDebugKey{})

	// Debug fallback permitted: the fixed development password applies.
	cred, err := r.Resolve(project.ProfileDev, "/project", true)
	require.NoError(t, err)
	require.Equal(t, "/keys/dev.jks", cred.Path)
	require.Equal(t, keystore.DefaultDevStorePassword, cred.StorePassword)
	require.Empty(t, cred.Alias)

	// Debug fallback denied: missing release key.
	_, err = r.Resolve(project.ProfileDev, "/project", false)
	requireMissingReleaseKey(t, err, "dev")
}

func TestResolveEnvAliasWithoutPassword(t *testing.T) {
	t.Parallel()

	env := keystore.MapEnv{
		"DROIDFORGE_RELEASE_STORE_PATH":     "/keys/release.jks",
		"DROIDFORGE_RELEASE_STORE_PASSWORD": "hunter2",
		"DROIDFORGE_RELEASE_KEY_ALIAS":      "upload",
	}
	r := keystore.NewResolver(env, &project.Config{}, fakeDebugKey{})

	_, err := r.Resolve(project.ProfileRelease, "/project", false)
	requireMissingReleaseKey(t, err, "release")
}

func TestResolveProjectSigning(t *testing.T) {
	t.Parallel()

	config := &project.Config{
		Signing: map[string]project.Signing{
			"release": {
				StorePath:     "keys/release.jks",
				StorePassword: "hunter2",
				KeyAlias:      "upload",
				KeyPassword:   "hunter3",
			},
		},
	}
	r := keystore.NewResolver(keystore.MapEnv{}, config, fakeDebugKey{})

	cred, err := r.Resolve(project.ProfileRelease, "/project", false)
	require.NoError(t, err)
	require.Equal(t, filepath.Join("/project", "keys/release.jks"), cred.Path)
	require.Equal(t, "hunter2", cred.StorePassword)
	require.Equal(t, "upload", cred.Alias)
	require.Equal(t, "hunter3", cred.KeyPassword)
}

func TestResolveProjectSigningNoAlias(t *testing.T) {
	t.Parallel()

	config := &project.Config{
		Signing: map[string]project.Signing{
			"release": {StorePath: "release.jks", StorePassword: "hunter2"},
		},
	}
	r := keystore.NewResolver(keystore.MapEnv{}, config, fakeDebugKey{})

	cred, err := r.Resolve(project.ProfileRelease, "/project", false)
	require.NoError(t, err)
	require.Empty(t, cred.Alias)
	require.Empty(t, cred.KeyPassword)
}

func TestResolveProjectAliasWithoutPassword(t *testing.T) {
	t.Parallel()

	config := &project.Config{
		Signing: map[string]project.Signing{
			"beta-rollout": {
				StorePath:     "beta.jks",
				StorePassword: "hunter2",
				KeyAlias:      "beta",
			},
		},
	}
	r := keystore.NewResolver(keystore.MapEnv{}, config, fakeDebugKey{})

	_, err := r.Resolve(project.Profile("beta-rollout"), "/project", false)
	requireMissingReleaseKey(t, err, "beta-rollout")
}

func TestResolveDebugFallback(t *testing.T) {
	t.Parallel()

	debug := fakeDebugKey{cred: keystore.Credential{
		Path:          "/home/u/.android/debug.keystore",
		StorePassword: keystore.DefaultDevStorePassword,
	}}
	r := keystore.NewResolver(keystore.MapEnv{}, &project.Config{}, debug)

	cred, err := r.Resolve(project.ProfileDev, "/project", true)
	require.NoError(t, err)
	require.Equal(t, debug.cred, cred)
}

func TestResolveMissingReleaseKey(t *testing.T) {
	t.Parallel()

	r := keystore.NewResolver(keystore.MapEnv{}, &project.Config{}, fakeDebugKey{})

	for _, profile := range []project.Profile{
		project.ProfileRelease,
		project.Profile("beta-rollout"),
	} {
		_, err := r.Resolve(profile, "/project", false)
		requireMissingReleaseKey(t, err, profile.Name())

		// The debug keystore is never an implicit default for non-dev
		// profiles, even when the caller permits fallback.
		_, err = r.Resolve(profile, "/project", true)
		requireMissingReleaseKey(t, err, profile.Name())
	}
}

func TestResolveCustomProfileEnvNamespace(t *testing.T) {
	t.Parallel()

	// Hyphens in the profile name normalize to underscores.
	env := keystore.MapEnv{
		"DROIDFORGE_BETA_ROLLOUT_STORE_PATH":     "/keys/beta.jks",
		"DROIDFORGE_BETA_ROLLOUT_STORE_PASSWORD": "hunter2",
	}
	r := keystore.NewResolver(env, &project.Config{}, fakeDebugKey{})

	cred, err := r.Resolve(project.Profile("beta-rollout"), "/project", false)
	require.NoError(t, err)
	require.Equal(t, "/keys/beta.jks", cred.Path)
}

func requireMissingReleaseKey(t *testing.T, err error, profile string) {
	t.Helper()

	require.Error(t, err)

	mrk := &keystore.MissingReleaseKeyError{}
	require.ErrorAs(t, err, &mrk)
	require.Equal(t, profile, mrk.Profile)
	require.Contains(t, err.Error(), profile)
}
