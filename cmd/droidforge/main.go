package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/droidforge/droidforge/internal/cli"
)

const (
	cmdName = "droidforge"

	shortDesc = "The droidforge Command Line Interface (CLI)."
	longDesc  = `The droidforge Command Line Interface (CLI).

Droidforge turns installable Android packages (APKs) into signed,
store-distributable Android App Bundles (AABs). It manages the staging
pipeline around apktool, aapt2, bundletool, and jarsigner, and resolves
signing credentials from the environment, the project configuration, or an
auto-generated debug keystore.
`
)

func main() {
	cmd := cli.NewRootCmd(cmdName, shortDesc, longDesc)

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, strings.TrimLeft(err.Error(), "\n"))
		os.Exit(1)
	}
}
