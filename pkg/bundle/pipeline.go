// Package bundle assembles a signed distributable bundle (AAB) from a
// previously built installable package (APK).
//
// Assembly is a strict sequence of stages over an on-disk staging area. Each
// tool stage runs exactly one external process and checks its exit status
// before the next stage starts; the first failure aborts the run with the
// failing stage attached. Completed stages leave their artifacts on disk,
// there is no rollback.
package bundle

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/droidforge/droidforge/pkg/exec"
	"github.com/droidforge/droidforge/pkg/keystore"
	"github.com/droidforge/droidforge/pkg/project"
	"github.com/droidforge/droidforge/pkg/syncutil"
	"github.com/droidforge/droidforge/pkg/toolchain"
)

// BundleExt is the distributable bundle file extension.
const BundleExt = ".aab"

// Staging area layout. Everything except toolsDirName is ephemeral and
// recreated on every run. Downstream tooling may depend on these exact paths.
const (
	toolsDirName    = "tools"
	unpackedDirName = "unpacked-apk"
	bundleDirName   = "bundle"
	resZipName      = "res.zip"
	baseZipName     = "base.zip"
	bundleZipName   = "bundle.zip"
	manifestName    = "AndroidManifest.xml"
)

// bundleEntries are the module archive's top-level entries, in the order they
// are added. Entries absent from the staging area are omitted.
var bundleEntries = []string{"assets", "dex", "lib", "manifest", "res", "root", "resources.pb"}

// stagingLocks serializes pipeline runs sharing a staging root. The staging
// area has a single-writer ownership model; concurrent runs against the same
// root are never safe.
var stagingLocks = syncutil.NewKeyLock()

// CredentialResolver supplies the signing credential for the final stage.
type CredentialResolver interface {
	Resolve(profile project.Profile, projectRoot string, allowDebugFallback bool) (keystore.Credential, error)
}

// Pipeline assembles one bundle per call to [Pipeline.Assemble]. It owns its
// staging root exclusively for the duration of a run.
type Pipeline struct {
	Toolchain *toolchain.Toolchain
	Config    *project.Config
	Resolver  CredentialResolver

	// Run invokes external processes. Defaults to [exec.RunCommand].
	Run exec.RunFunc

	// StagingRoot is the per-profile scratch directory, conventionally
	// <target>/<profile>/aab.
	StagingRoot string

	// ProjectRoot anchors relative keystore paths from the project
	// configuration.
	ProjectRoot string

	Profile project.Profile

	subscribers []func(any)
	mu          sync.RWMutex
}

// New creates a Pipeline with the default process runner.
func New(tc *toolchain.Toolchain, config *project.Config, resolver CredentialResolver, profile project.Profile, projectRoot, stagingRoot string) *Pipeline {
	return &Pipeline{
		Toolchain:   tc,
		Config:      config,
		Resolver:    resolver,
		Run:         exec.RunCommand,
		StagingRoot: stagingRoot,
		ProjectRoot: projectRoot,
		Profile:     profile,
	}
}

// Assemble turns the input package into a signed bundle, returning the signed
// bundle path. The staging root is fully rebuilt except for the tools/ cache.
func (p *Pipeline) Assemble(input string) (string, error) {
	stagingLocks.Lock(p.StagingRoot)
	defer stagingLocks.Unlock(p.StagingRoot)

	logger := slog.With(
		slog.String("profile", p.Profile.Name()),
		slog.String("staging", p.StagingRoot),
	)
	logger.Info("assembling bundle", slog.String("input", input))

	output := ""

	stages := []struct {
		run   func(string) (string, error)
		stage Stage
	}{
		{stage: StageReset, run: p.reset},
		{stage: StageTools, run: p.tools},
		{stage: StageDecompile, run: func(string) (string, error) { return p.decompile(input) }},
		{stage: StageCompileRes, run: p.compileRes},
		{stage: StageLink, run: p.link},
		{stage: StageExpand, run: p.expand},
		{stage: StageRestage, run: p.restage},
		{stage: StageRepackage, run: p.repackage},
		{stage: StageBuildBundle, run: p.buildBundle},
		{stage: StageSign, run: p.sign},
	}

	for _, s := range stages {
		p.broadcast(EventStageStarted{Stage: s.stage})

		artifact, err := s.run(output)
		p.broadcast(EventStageDone{Stage: s.stage, Err: err, Artifact: artifact})

		if err != nil {
			serr := &StageError{Stage: s.stage, Err: err}
			p.broadcast(EventDone{Err: serr})

			return "", serr
		}

		if artifact != "" {
			logger.Info("completed stage",
				slog.String("stage", string(s.stage)),
				slog.String("artifact", artifact),
			)

			output = artifact
		}
	}

	p.broadcast(EventDone{Output: output})
	logger.Info("assembled bundle", slog.String("output", output))

	return output, nil
}

func (p *Pipeline) path(elem ...string) string {
	return filepath.Join(append([]string{p.StagingRoot}, elem...)...)
}

func (p *Pipeline) toolsDir() string    { return p.path(toolsDirName) }
func (p *Pipeline) unpackedDir() string { return p.path(unpackedDirName) }
func (p *Pipeline) bundleDir() string   { return p.path(bundleDirName) }

func (p *Pipeline) run(name string, arg ...string) (string, error) {
	return p.runRedacted(name, exec.Unredacted, arg...)
}

func (p *Pipeline) runRedacted(name string, redactor func(string) string, arg ...string) (string, error) {
	runner := p.Run
	if runner == nil {
		runner = exec.RunCommand
	}

	return runner(name, exec.CmdOpts{Redactor: redactor}, arg...)
}

// reset removes every entry under the staging root except the tools/ cache,
// creating the root if absent. No stale ephemeral state survives into a run.
func (p *Pipeline) reset(string) (string, error) {
	if err := os.MkdirAll(p.StagingRoot, 0o750); err != nil {
		return "", fmt.Errorf("failed to create staging root: %w", err)
	}

	entries, err := os.ReadDir(p.StagingRoot)
	if err != nil {
		return "", fmt.Errorf("failed to read staging root: %w", err)
	}

	for _, entry := range entries {
		if entry.Name() == toolsDirName {
			continue
		}

		if err := os.RemoveAll(p.path(entry.Name())); err != nil {
			return "", fmt.Errorf("failed to remove %s: %w", entry.Name(), err)
		}
	}

	return p.StagingRoot, nil
}

func (p *Pipeline) tools(string) (string, error) {
	if err := p.materializeTools(); err != nil {
		return "", err
	}

	return p.toolsDir(), nil
}

// decompile runs apktool against the input package, requesting a clean
// resources-only decompilation.
func (p *Pipeline) decompile(input string) (string, error) {
	unpacked := p.unpackedDir()

	_, err := p.run(p.Toolchain.Java,
		"-jar", p.path(toolsDirName, apktoolName),
		"d", input,
		"-s",
		"-o", unpacked,
		"-f",
	)
	if err != nil {
		return "", err
	}

	return unpacked, nil
}

func (p *Pipeline) compileRes(string) (string, error) {
	resZip := p.path(resZipName)

	_, err := p.run(p.Toolchain.AAPT2,
		"compile",
		"--dir", filepath.Join(p.unpackedDir(), "res"),
		"-o", resZip,
	)
	if err != nil {
		return "", err
	}

	return resZip, nil
}

// link merges the compiled resources with the platform resource definitions
// and the decompiled manifest into one proto-format resource table.
func (p *Pipeline) link(string) (string, error) {
	baseZip := p.path(baseZipName)

	_, err := p.run(p.Toolchain.AAPT2,
		"link",
		"-o", baseZip,
		"-R", p.path(resZipName),
		"-I", p.Toolchain.AndroidJAR,
		"--manifest", filepath.Join(p.unpackedDir(), manifestName),
		"--min-sdk-version", strconv.Itoa(p.Config.GetMinSDKVersion()),
		"--target-sdk-version", strconv.Itoa(p.Config.GetTargetSDKVersion()),
		"--version-code", strconv.Itoa(p.Config.GetVersionCode()),
		"--version-name", p.Config.GetVersionName(),
		"--auto-add-overlay",
		"--proto-format",
	)
	if err != nil {
		return "", err
	}

	return baseZip, nil
}

// expand pre-creates the fixed bundle subdirectories and decompresses the
// linked archive into bundle/. dex/, manifest/ and root/ exist afterwards
// even when empty; the module archive always carries them.
func (p *Pipeline) expand(string) (string, error) {
	bundleDir := p.bundleDir()

	for _, sub := range []string{"dex", "manifest", "root"} {
		if err := os.MkdirAll(filepath.Join(bundleDir, sub), 0o750); err != nil {
			return "", fmt.Errorf("failed to create %s: %w", sub, err)
		}
	}

	if err := extractZip(p.path(baseZipName), bundleDir); err != nil {
		return "", err
	}

	return bundleDir, nil
}

// restage relocates the decompiled trees into bundle layout. The manifest and
// the native-library tree are mandatory; assets, unknown and kotlin trees are
// moved only when present. unknown and kotlin both target root/; when both
// exist the later move wins, a narrow compatibility shim pinned by tests.
func (p *Pipeline) restage(string) (string, error) {
	bundleDir := p.bundleDir()
	unpacked := p.unpackedDir()

	err := os.Rename(
		filepath.Join(bundleDir, manifestName),
		filepath.Join(bundleDir, "manifest", manifestName),
	)
	if err != nil {
		return "", fmt.Errorf("failed to move manifest: %w", err)
	}

	err = os.Rename(filepath.Join(unpacked, "lib"), filepath.Join(bundleDir, "lib"))
	if err != nil {
		return "", fmt.Errorf("failed to move native libraries: %w", err)
	}

	if err := moveIfPresent(filepath.Join(unpacked, "assets"), filepath.Join(bundleDir, "assets"), false); err != nil {
		return "", err
	}

	if err := moveIfPresent(filepath.Join(unpacked, "unknown"), filepath.Join(bundleDir, "root"), true); err != nil {
		return "", err
	}

	if err := moveIfPresent(filepath.Join(unpacked, "kotlin"), filepath.Join(bundleDir, "root"), true); err != nil {
		return "", err
	}

	return bundleDir, nil
}

// moveIfPresent renames src to dst, tolerating an absent source. With replace
// set, an existing destination is dropped first.
func moveIfPresent(src, dst string, replace bool) error {
	if _, err := os.Stat(src); err != nil {
		if os.IsNotExist(err) {
			return nil
		}

		return fmt.Errorf("failed to stat %s: %w", src, err)
	}

	if replace {
		if err := os.RemoveAll(dst); err != nil {
			return fmt.Errorf("failed to replace %s: %w", dst, err)
		}
	}

	if err := os.Rename(src, dst); err != nil {
		return fmt.Errorf("failed to move %s: %w", src, err)
	}

	return nil
}

func (p *Pipeline) repackage(string) (string, error) {
	bundleZip := filepath.Join(p.bundleDir(), bundleZipName)

	if err := createStoredZip(bundleZip, p.bundleDir(), bundleEntries); err != nil {
		return "", err
	}

	return bundleZip, nil
}

func (p *Pipeline) buildBundle(string) (string, error) {
	unsigned := p.path(p.Config.GetName() + "-unsigned" + BundleExt)

	_, err := p.run(p.Toolchain.Java,
		"-jar", p.path(toolsDirName, bundletoolName),
		"build-bundle",
		"--modules", filepath.Join(p.bundleDir(), bundleZipName),
		"--output", unsigned,
	)
	if err != nil {
		return "", err
	}

	return unsigned, nil
}

// sign resolves the signing credential for the current profile and signs the
// bundle container. Debug fallback is always disabled here: bundles are never
// signed with an auto-generated debug key.
func (p *Pipeline) sign(unsigned string) (string, error) {
	cred, err := p.Resolver.Resolve(p.Profile, p.ProjectRoot, false)
	if err != nil {
		return "", err
	}

	signed := p.path(p.Config.GetName() + BundleExt)

	slog.Info("signing bundle",
		slog.String("keystore", cred.Path),
		slog.String("output", signed),
	)

	_, err = p.runRedacted(p.Toolchain.Jarsigner,
		exec.Redact([]string{cred.StorePassword, cred.KeyPassword}),
		"-verbose",
		"-sigalg", "SHA256withRSA",
		"-digestalg", "SHA-256",
		"-keystore", cred.Path,
		"-storepass", cred.StorePassword,
		"-keypass", cred.KeyPassword,
		"-signedjar", signed,
		unsigned,
		cred.Alias,
	)
	if err != nil {
		return "", err
	}

	return signed, nil
}
