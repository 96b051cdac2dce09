// vcf is a command line companion for the vCard codec: validate vCard files,
// convert them to normalized contact JSON, and render contacts back as
// vCard 4.0.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "vcf",
	Short:         "Inspect and convert vCard files",
	SilenceUsage:  true,
	SilenceErrors: false,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
