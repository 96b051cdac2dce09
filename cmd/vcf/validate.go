package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"gitea.jw6.us/james/rolodex/internal/vcard"
)

var validateCmd = &cobra.Command{
	Use:   "validate FILE",
	Short: "Check every vCard fragment in a file",
	Long: `Validates and decodes each vCard fragment in FILE. Exits non-zero when
any fragment is invalid, listing every failed fragment with its position.`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}

	contacts, err := vcard.Decode(string(data))
	if err != nil {
		var batch vcard.DecodeErrors
		if errors.As(err, &batch) {
			for _, fe := range batch {
				fmt.Fprintf(cmd.ErrOrStderr(), "fragment %d: %v\n", fe.Index, fe.Err)
			}
			return fmt.Errorf("%d fragment(s) failed", len(batch))
		}
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%d fragment(s) OK\n", len(contacts))
	return nil
}
