package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/ababil/packages/auth"
	"github.com/abdul-hamid-achik/ababil/packages/http"
	"github.com/abdul-hamid-achik/ababil/packages/output"
)

var composeWireFlag bool

var composeCmd = &cobra.Command{
	Use:   "compose <file|saved-request>...",
	Short: "Show the resolved request without sending it",
	Long: `Resolve variables and auth for each request and print the result.

With --wire the request is printed as the JSON document the transport
accepts, which can be piped into other tools.`,
	Args: cobra.MinimumNArgs(1),
	RunE: withSession(composeCommand),
}

func init() {
	composeCmd.Flags().BoolVar(&composeWireFlag, "wire", false, "Print the transport's JSON request document")
	composeCmd.Flags().StringArrayVar(&tokenFlags, "token", nil, "Make a token available as name=value (repeatable)")
	composeCmd.Flags().BoolVar(&showSecretsFlag, "show-secrets", false, "Print Authorization values unmasked")
}

func composeCommand(cmd *cobra.Command, args []string, s *session) error {
	tokens := auth.NewTokenStore()
	for _, tf := range tokenFlags {
		name, value, err := parseAssignment(tf)
		if err != nil {
			return err
		}
		tokens.Set(name, value)
	}

	targets, err := s.loadTargets(args)
	if err != nil {
		return err
	}
	environment, err := s.currentEnvironment()
	if err != nil {
		return withExitCode(ExitConfigError, err)
	}
	warn := s.warnConsole(cmd).Warn

	// headers are the point of compose, so the console is always verbose
	console := output.NewConsoleFormatter(
		output.WithWriter(cmd.OutOrStdout()),
		output.WithVerbose(true),
		output.WithNoColor(s.cfg.GetNoColor()),
		output.WithShowSecrets(showSecretsFlag),
	)
	jsonOut := outputFlag == "json"
	formatter := output.NewJSONFormatter(output.JSONWithWriter(cmd.OutOrStdout()))

	for _, t := range targets {
		resolved, missing, err := s.compose(t, environment, tokens.Snapshot(), warn)
		if err != nil {
			return err
		}
		switch {
		case composeWireFlag:
			data, err := http.EncodeRequest(resolved)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
		case jsonOut:
			formatter.FormatExchange(&output.Exchange{Name: t.name, Request: resolved, Unresolved: missing})
		default:
			console.FormatExchange(&output.Exchange{Name: t.name, Request: resolved, Unresolved: missing})
		}
	}

	if jsonOut && !composeWireFlag {
		return formatter.Flush(0)
	}
	return nil
}
