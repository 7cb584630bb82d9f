// Command ringctl builds pointring rings from the command line to inspect key
// ownership and distribution, or to serve a ring over HTTP for debugging.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	cmd := &cobra.Command{
		Use:          "ringctl",
		Short:        "Inspect and serve pointring rings",
		SilenceUsage: true,
	}

	cmd.AddCommand(
		cmdLookup(),
		cmdDist(),
		cmdServe(),
	)

	if err := cmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
