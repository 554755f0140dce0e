package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var completionCmd = &cobra.Command{
	Use:   "completion <bash|zsh|fish|powershell>",
	Short: "Print a shell completion script",
	Long: `Print a completion script for the given shell.

Environment, collection and saved request names complete from the data
directory.

  source <(ababil completion bash)
  ababil completion zsh > "${fpath[1]}/_ababil"
  ababil completion fish > ~/.config/fish/completions/ababil.fish
  ababil completion powershell | Out-String | Invoke-Expression`,
	DisableFlagsInUseLine: true,
	ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
	Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		root := cmd.Root()
		switch args[0] {
		case "bash":
			return root.GenBashCompletionV2(out, true)
		case "zsh":
			return root.GenZshCompletion(out)
		case "fish":
			return root.GenFishCompletion(out, true)
		case "powershell":
			return root.GenPowerShellCompletionWithDesc(out)
		}
		return fmt.Errorf("unsupported shell %q", args[0])
	},
}

func init() {
	rootCmd.AddCommand(completionCmd)
}

// completeFirstArg completes the first positional argument with the names
// listed by names.
func completeFirstArg(cmd *cobra.Command, args []string, names func(s *session) ([]string, error)) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	s, err := openSession(cmd)
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	defer s.Close()
	list, err := names(s)
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	return list, cobra.ShellCompDirectiveNoFileComp
}

func completeEnvironmentNames(cmd *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	return completeFirstArg(cmd, args, func(s *session) ([]string, error) {
		envs, err := s.store.LoadEnvironments()
		return environmentNames(envs), err
	})
}

func completeCollectionNames(cmd *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	return completeFirstArg(cmd, args, func(s *session) ([]string, error) {
		cols, err := s.store.LoadCollections()
		return collectionNames(cols), err
	})
}

func completeRequestNames(cmd *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	return completeFirstArg(cmd, args, func(s *session) ([]string, error) {
		reqs, err := s.store.LoadRequests()
		return requestNames(reqs), err
	})
}
