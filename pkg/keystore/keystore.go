// Package keystore resolves signing credentials for a build profile.
//
// Resolution precedence, first match wins: environment overrides, the
// project's per-profile signing entry, and (for the development profile only,
// when permitted by the caller) an auto-generated debug keystore.
package keystore

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/iancoleman/strcase"

	"github.com/droidforge/droidforge/pkg/project"
)

// EnvPrefix namespaces the signing environment variables:
// DROIDFORGE_<PROFILE>_STORE_PATH, _STORE_PASSWORD, _KEY_ALIAS, _KEY_PASSWORD.
const EnvPrefix = "DROIDFORGE"

// DefaultDevStorePassword is the well-known password for development
// keystores, used when a dev store path is configured without a password.
const DefaultDevStorePassword = "android"

// Credential is a resolved signing key descriptor. It is produced fresh per
// resolution, never cached, and never persisted.
type Credential struct {
	Path          string
	StorePassword string
	Alias         string
	KeyPassword   string
}

// MissingReleaseKeyError reports that no usable signing configuration exists
// for a profile. Release-type profiles must be configured explicitly; there is
// no implicit default.
type MissingReleaseKeyError struct {
	Profile string
}

func (e *MissingReleaseKeyError) Error() string {
	return fmt.Sprintf("missing release key for profile %q", e.Profile)
}

// Env looks up environment variables. It exists so tests can supply synthetic
// environments without mutating process state.
type Env interface {
	Lookup(key string) (string, bool)
}

// DebugKeyProvider supplies the auto-generated development keystore, creating
// it on demand.
type DebugKeyProvider interface {
	DebugKey() (Credential, error)
}

// Resolver resolves signing credentials against an environment, a project
// configuration, and a debug-key collaborator.
type Resolver struct {
	Env    Env
	Config *project.Config
	Debug  DebugKeyProvider
}

// NewResolver creates a Resolver for the given project configuration.
func NewResolver(env Env, config *project.Config, debug DebugKeyProvider) *Resolver {
	return &Resolver{Env: env, Config: config, Debug: debug}
}

// Resolve produces the signing credential for a profile. projectRoot anchors
// relative store paths from the project configuration. allowDebugFallback
// permits the default development password and the auto-generated debug
// keystore; it must be false for release-grade signing.
func (r *Resolver) Resolve(profile project.Profile, projectRoot string, allowDebugFallback bool) (Credential, error) {
	name := profile.Name()
	ns := strcase.ToScreamingSnake(name)

	envStorePath := fmt.Sprintf("%s_%s_STORE_PATH", EnvPrefix, ns)
	envStorePassword := fmt.Sprintf("%s_%s_STORE_PASSWORD", EnvPrefix, ns)
	envKeyAlias := fmt.Sprintf("%s_%s_KEY_ALIAS", EnvPrefix, ns)
	envKeyPassword := fmt.Sprintf("%s_%s_KEY_PASSWORD", EnvPrefix, ns)

	if storePath, ok := r.Env.Lookup(envStorePath); ok {
		cred := Credential{Path: storePath}

		storePassword, ok := r.Env.Lookup(envStorePassword)
		switch {
		case ok:
			cred.StorePassword = storePassword
		case allowDebugFallback:
			slog.Warn(fmt.Sprintf("%s not specified, falling back to default password", envStorePassword))

			cred.StorePassword = DefaultDevStorePassword
		default:
			slog.Error(fmt.Sprintf(
				"%q was specified via %s, but %s was not specified; both or neither must be present for profiles other than %q",
				storePath, envStorePath, envStorePassword, project.ProfileDev,
			))

			return Credential{}, &MissingReleaseKeyError{Profile: name}
		}

		alias, aliasOK := r.Env.Lookup(envKeyAlias)
		keyPassword, keyPassOK := r.Env.Lookup(envKeyPassword)

		return withAlias(cred, name, alias, aliasOK, keyPassword, keyPassOK)
	}

	if signing, ok := r.Config.GetSigning(profile); ok {
		cred := Credential{
			Path:          filepath.Join(projectRoot, signing.StorePath),
			StorePassword: signing.StorePassword,
		}

		return withAlias(cred, name,
			signing.KeyAlias, signing.KeyAlias != "",
			signing.KeyPassword, signing.KeyPassword != "",
		)
	}

	if allowDebugFallback && profile.IsDev() {
		return r.Debug.DebugKey()
	}

	return Credential{}, &MissingReleaseKeyError{Profile: name}
}

// withAlias applies the alias/key-password pairing rule: an alias without a
// key password is an error, never a silent empty password. Without an alias
// the signer uses keystore defaults.
func withAlias(cred Credential, profile, alias string, aliasOK bool, keyPassword string, keyPassOK bool) (Credential, error) {
	if !aliasOK {
		return cred, nil
	}

	if !keyPassOK {
		slog.Error(fmt.Sprintf(
			"key alias %q was specified for profile %q, but no key password was specified",
			alias, profile,
		))

		return Credential{}, &MissingReleaseKeyError{Profile: profile}
	}

	cred.Alias = alias
	cred.KeyPassword = keyPassword

	return cred, nil
}
