package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-multierror"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/droidforge/droidforge/pkg/bundle"
	"github.com/droidforge/droidforge/pkg/bundletui"
	"github.com/droidforge/droidforge/pkg/exec"
	"github.com/droidforge/droidforge/pkg/keystore"
	"github.com/droidforge/droidforge/pkg/project"
	"github.com/droidforge/droidforge/pkg/toolchain"
)

const (
	aabDesc = `This command manages Android App Bundles
`
	aabExample = `  droidforge aab <command> [arguments]...
  # Assemble a signed bundle from an APK with the dev profile
  droidforge aab assemble app.apk

  # Assemble for a release, with credentials from droidforge.yaml or env
  droidforge aab assemble app.apk --profile release

  # Assemble a project in another directory
  droidforge aab assemble app.apk --path ./myapp --out ./myapp/build
`
)

var ErrInvalidArgument = errors.New("invalid argument")

// NewAabCmd returns the aab command.
func NewAabCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "aab",
		Short:        "Android App Bundle management",
		Long:         aabDesc,
		Example:      aabExample,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringP("path", "p", ".", "Project root, where droidforge.yaml lives")
	if err := cmd.MarkPersistentFlagDirname("path"); err != nil {
		panic(err)
	}

	cmd.PersistentFlags().StringP("out", "o", "build", "Base path for staging and output")
	cmd.PersistentFlags().Duration("timeout", 0, "Timeout per external tool invocation (0 disables)")
	cmd.PersistentFlags().BoolP("quiet", "q", false, "Run in quiet mode")

	cmd.AddCommand(NewAabAssembleCmd())

	return cmd
}

func NewAabAssembleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "assemble <apk>",
		Short: "Assemble a signed bundle from an APK",
		Args:  cobra.ExactArgs(1),
		RunE: func(cc *cobra.Command, args []string) error {
			var merr error

			flags := cc.Flags()
			projectRoot, err := flags.GetString("path")
			if err != nil {
				merr = multierror.Append(merr, err)
			}
			out, err := flags.GetString("out")
			if err != nil {
				merr = multierror.Append(merr, err)
			}
			timeout, err := flags.GetDuration("timeout")
			if err != nil {
				merr = multierror.Append(merr, err)
			}
			profileName, err := flags.GetString("profile")
			if err != nil {
				merr = multierror.Append(merr, err)
			}
			logLevel, err := flags.GetString("log_level")
			if err != nil {
				merr = multierror.Append(merr, err)
			}
			quiet, err := flags.GetBool("quiet")
			if err != nil {
				merr = multierror.Append(merr, err)
			}

			if merr != nil {
				return fmt.Errorf("%w: %w", ErrInvalidArgument, merr)
			}

			profile := project.ParseProfile(profileName)

			config, err := project.LoadFromRoot(projectRoot)
			if err != nil {
				return fmt.Errorf("failed to load project: %w", err)
			}

			tc, err := toolchain.FromEnv()
			if err != nil {
				return fmt.Errorf("toolchain discovery failed: %w", err)
			}

			resolver := keystore.NewResolver(keystore.OSEnv{}, config, tc)
			staging := filepath.Join(out, profile.Name(), "aab")

			p := bundle.New(tc, config, resolver, profile, projectRoot, staging)
			p.Run = func(name string, opts exec.CmdOpts, arg ...string) (string, error) {
				if opts.Timeout == 0 {
					opts.Timeout = timeout
				}

				return exec.RunCommand(name, opts, arg...)
			}

			if quiet || !isatty.IsTerminal(os.Stdout.Fd()) {
				output, err := p.Assemble(args[0])
				if err != nil {
					return fmt.Errorf("assemble failed: %w", err)
				}

				cc.Println(output)

				return nil
			}

			at, err := bundletui.New(os.Stdout, logLevel, p)
			if err != nil {
				return fmt.Errorf("failed to create tui: %w", err)
			}

			if _, err := at.Assemble(args[0]); err != nil {
				return fmt.Errorf("assemble failed: %w", err)
			}

			return nil
		},
		SilenceUsage: true,
	}
	cmd.Flags().StringP("profile", "P", "dev", "Build profile selecting signing credentials")

	return cmd
}
