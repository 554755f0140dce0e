package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/ababil/packages/capture"
	"github.com/abdul-hamid-achik/ababil/packages/http"
	"github.com/abdul-hamid-achik/ababil/packages/output"
)

var (
	extractRawFlag    bool
	extractStatusFlag int
)

var extractCmd = &cobra.Command{
	Use:   "extract [file]",
	Short: "Find auth tokens in a response",
	Long: `Scan a response for fields that look like auth tokens and print each
candidate with its path and suggested token name.

The input is a response document ({"status_code", "headers", "body"}) as
printed by 'ababil send -o json', or with --raw a bare response body. Reads
stdin when no file is given or the file is "-".

Examples:
  ababil extract response.json
  curl -s https://api.example.com/login | ababil extract --raw`,
	Args: cobra.MaximumNArgs(1),
	RunE: extractCommand,
}

func init() {
	extractCmd.Flags().BoolVar(&extractRawFlag, "raw", false, "Treat the input as a bare response body")
	extractCmd.Flags().IntVar(&extractStatusFlag, "status", 200, "Status code to assume with --raw")
	extractCmd.Flags().BoolVar(&showSecretsFlag, "show-secrets", false, "Print token values unmasked")
}

func extractCommand(cmd *cobra.Command, args []string) error {
	var in io.Reader = cmd.InOrStdin()
	if len(args) == 1 && args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return withExitCode(ExitUsageError, err)
		}
		defer f.Close()
		in = f
	}
	data, err := io.ReadAll(in)
	if err != nil {
		return err
	}

	var candidates []capture.Candidate
	if extractRawFlag {
		candidates = capture.Extract(extractStatusFlag, string(data))
	} else {
		resp, err := http.DecodeResponse(data)
		if err != nil {
			return withExitCode(ExitParseError, err)
		}
		candidates = capture.ExtractResponse(resp)
	}

	if outputFlag == "json" {
		if candidates == nil {
			candidates = []capture.Candidate{}
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(candidates)
	}

	if len(candidates) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No tokens found.")
		return nil
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	output.NewConsoleFormatter(
		output.WithWriter(cmd.OutOrStdout()),
		output.WithNoColor(cfg.GetNoColor()),
		output.WithShowSecrets(showSecretsFlag),
	).FormatCandidates(candidates, nil)
	return nil
}
