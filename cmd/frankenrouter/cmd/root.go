package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/macroflight/frankenrouter/version"
)

// Root is the frankenrouter CLI entry point, shaped after the
// teacher's own single-binary Root/serveCmd split (cmd/go-hub/cmd/serve.go):
// one persistent banner, one "serve" subcommand that does the real work.
var Root = &cobra.Command{
	Use: "frankenrouter <command>",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		fmt.Printf("%s %s\nGo runtime: %s\n\n", version.Name, version.Vers, runtime.Version())
	},
}

func init() {
	Root.AddCommand(serveCmd)
}
