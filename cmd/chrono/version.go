package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

func versionCmd() *cobra.Command {
	var short bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  `Print version, commit, and build information for the storefront server.`,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			if short {
				fmt.Fprintln(out, version)
				return
			}

			fmt.Fprint(out, banner)
			fmt.Fprintln(out)
			fmt.Fprintf(out, "  Version:    %s\n", version)
			fmt.Fprintf(out, "  Commit:     %s\n", commit)
			fmt.Fprintf(out, "  Built:      %s\n", date)
			fmt.Fprintf(out, "  Go version: %s\n", runtime.Version())
			fmt.Fprintf(out, "  OS/Arch:    %s/%s\n", runtime.GOOS, runtime.GOARCH)
			fmt.Fprintln(out)
		},
	}

	cmd.Flags().BoolVarP(&short, "short", "s", false, "Print only version number")

	return cmd
}
