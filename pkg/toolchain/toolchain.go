// Package toolchain locates the JDK and Android SDK binaries the bundle
// pipeline shells out to, and generates the development debug keystore on
// demand.
package toolchain

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/droidforge/droidforge/pkg/exec"
	"github.com/droidforge/droidforge/pkg/keystore"
)

// SDK component versions the pipeline is pinned to.
const (
	BuildToolsVersion = "35.0.0"
	Platform          = "android-35"
)

// Debug keystore identity, matching the Android SDK's own debug key
// conventions.
const (
	debugKeystoreName  = "debug.keystore"
	debugKeyAlias      = "androiddebugkey"
	debugKeyDName      = "CN=Android Debug,O=Android,C=US"
	debugKeyValidity   = "10000"
	debugKeySize       = "2048"
	debugKeyAlgorithm  = "RSA"
	androidUserDirName = ".android"
)

var (
	ErrJavaHomeNotSet    = errors.New("JAVA_HOME is not set")
	ErrAndroidHomeNotSet = errors.New("ANDROID_HOME is not set")
)

// Toolchain holds the resolved paths of every external binary and archive the
// pipeline invokes or imports.
type Toolchain struct {
	// Run invokes external processes. Defaults to [exec.RunCommand].
	Run exec.RunFunc

	Java       string
	Jarsigner  string
	Keytool    string
	AAPT2      string
	AndroidJAR string

	// AndroidUserDir is where the debug keystore lives, ~/.android by
	// default.
	AndroidUserDir string
}

// FromEnv resolves the toolchain from JAVA_HOME and ANDROID_HOME.
func FromEnv() (*Toolchain, error) {
	javaHome, ok := os.LookupEnv("JAVA_HOME")
	if !ok || javaHome == "" {
		return nil, ErrJavaHomeNotSet
	}

	androidHome, ok := os.LookupEnv("ANDROID_HOME")
	if !ok || androidHome == "" {
		return nil, ErrAndroidHomeNotSet
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to locate home directory: %w", err)
	}

	return &Toolchain{
		Run:            exec.RunCommand,
		Java:           filepath.Join(javaHome, "bin", "java"),
		Jarsigner:      filepath.Join(javaHome, "bin", "jarsigner"),
		Keytool:        filepath.Join(javaHome, "bin", "keytool"),
		AAPT2:          filepath.Join(androidHome, "build-tools", BuildToolsVersion, "aapt2"),
		AndroidJAR:     filepath.Join(androidHome, "platforms", Platform, "android.jar"),
		AndroidUserDir: filepath.Join(home, androidUserDirName),
	}, nil
}

// DebugKey returns the credential for the auto-generated debug keystore,
// creating the keystore with keytool if it does not exist yet. The path and
// password are deterministic; the resolved credential carries no alias.
func (t *Toolchain) DebugKey() (keystore.Credential, error) {
	path := filepath.Join(t.AndroidUserDir, debugKeystoreName)

	cred := keystore.Credential{
		Path:          path,
		StorePassword: keystore.DefaultDevStorePassword,
	}

	if _, err := os.Stat(path); err == nil {
		return cred, nil
	} else if !os.IsNotExist(err) {
		return keystore.Credential{}, fmt.Errorf("failed to stat debug keystore: %w", err)
	}

	if err := os.MkdirAll(t.AndroidUserDir, 0o750); err != nil {
		return keystore.Credential{}, fmt.Errorf("failed to create %s: %w", t.AndroidUserDir, err)
	}

	slog.Info("generating debug keystore", slog.String("path", path))

	_, err := t.Run(t.Keytool, exec.CmdOpts{Redactor: exec.Unredacted},
		"-genkey", "-v",
		"-keystore", path,
		"-storepass", keystore.DefaultDevStorePassword,
		"-alias", debugKeyAlias,
		"-keypass", keystore.DefaultDevStorePassword,
		"-dname", debugKeyDName,
		"-keyalg", debugKeyAlgorithm,
		"-keysize", debugKeySize,
		"-validity", debugKeyValidity,
	)
	if err != nil {
		return keystore.Credential{}, fmt.Errorf("failed to generate debug keystore: %w", err)
	}

	return cred, nil
}
