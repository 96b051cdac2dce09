package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"gitea.jw6.us/james/rolodex/internal/contact"
	"gitea.jw6.us/james/rolodex/internal/vcard"
)

var encodeCmd = &cobra.Command{
	Use:   "encode FILE",
	Short: "Render contact JSON as vCard 4.0",
	Long: `Reads FILE as a contact JSON object (or array of objects, as produced
by 'vcf convert') and writes vCard 4.0 text to stdout.`,
	Args: cobra.ExactArgs(1),
	RunE: runEncode,
}

func init() {
	rootCmd.AddCommand(encodeCmd)
}

func runEncode(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}

	contacts, err := decodeContactJSON(data)
	if err != nil {
		return err
	}

	for _, c := range contacts {
		fmt.Fprintln(cmd.OutOrStdout(), vcard.Encode(c))
	}
	return nil
}

func decodeContactJSON(data []byte) ([]*contact.Contact, error) {
	var many []*contact.Contact
	if err := json.Unmarshal(data, &many); err == nil {
		return many, nil
	}

	var one contact.Contact
	if err := json.Unmarshal(data, &one); err != nil {
		return nil, fmt.Errorf("input is neither a contact object nor an array: %w", err)
	}
	return []*contact.Contact{&one}, nil
}
