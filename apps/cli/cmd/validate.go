package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/ababil/packages/model"
)

var validateCmd = &cobra.Command{
	Use:   "validate <file|directory>...",
	Short: "Check request files against the request file schema",
	Long: `Validate request files without composing or sending them.

Examples:
  ababil validate login.json
  ababil validate ./requests/`,
	Args: cobra.MinimumNArgs(1),
	RunE: validateCommand,
}

func validateCommand(cmd *cobra.Command, args []string) error {
	var files []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return withExitCode(ExitUsageError, fmt.Errorf("cannot access %s: %w", arg, err))
		}
		if !info.IsDir() {
			files = append(files, arg)
			continue
		}
		found, err := collectFiles(arg)
		if err != nil {
			return err
		}
		files = append(files, found...)
	}

	if len(files) == 0 {
		return withExitCode(ExitUsageError, fmt.Errorf("no request files found"))
	}

	invalid := 0
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err == nil {
			err = model.ValidateRequestFile(data)
		}
		if err != nil {
			invalid++
			fmt.Fprintf(cmd.ErrOrStderr(), "Error in %s: %v\n", file, err)
			continue
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Valid: %s\n", file)
	}

	if invalid > 0 {
		return withExitCode(ExitParseError, fmt.Errorf("%d of %d request files invalid", invalid, len(files)))
	}
	return nil
}
