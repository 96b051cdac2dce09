package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"gitea.jw6.us/james/rolodex/internal/vcard"
)

var convertCmd = &cobra.Command{
	Use:   "convert FILE",
	Short: "Convert a vCard file to normalized contact JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runConvert,
}

func init() {
	rootCmd.AddCommand(convertCmd)
}

func runConvert(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}

	contacts, err := vcard.Decode(string(data))
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(contacts)
}
