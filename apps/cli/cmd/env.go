package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/ababil/packages/core/env"
	"github.com/abdul-hamid-achik/ababil/packages/model"
)

var (
	envCollectionFlag string
	envActivateFlag   bool
	envTypeFlag       string
	envImportNameFlag string
)

var envCmd = &cobra.Command{
	Use:     "env",
	Aliases: []string{"environment"},
	Short:   "Manage environments and their variables",
}

var envListCmd = &cobra.Command{
	Use:   "list",
	Short: "List environments, marking the active one",
	Args:  cobra.NoArgs,
	RunE: withSession(func(cmd *cobra.Command, args []string, s *session) error {
		envs, err := s.store.LoadEnvironments()
		if err != nil {
			return err
		}
		s.console.FormatEnvironments(envs)
		return nil
	}),
}

var envShowCmd = &cobra.Command{
	Use:               "show [name]",
	Short:             "Show an environment's variables (default: the active one)",
	Args:              cobra.MaximumNArgs(1),
	ValidArgsFunction: completeEnvironmentNames,
	RunE: withSession(func(cmd *cobra.Command, args []string, s *session) error {
		var e *model.Environment
		var err error
		if len(args) == 1 {
			e, err = s.findEnvironment(args[0])
		} else {
			e, err = s.currentEnvironment()
		}
		if err != nil {
			return err
		}
		if e == nil {
			return fmt.Errorf("no active environment")
		}
		s.console.FormatEnvironment(e)
		return nil
	}),
}

var envCreateCmd = &cobra.Command{
	Use:   "create <name> [key=value...]",
	Short: "Create an environment",
	Example: `  ababil env create dev host=http://localhost:3000 api_token=abc
  ababil env create staging --collection Users --activate`,
	Args: cobra.MinimumNArgs(1),
	RunE: withSession(func(cmd *cobra.Command, args []string, s *session) error {
		vars, err := parseVariables(args[1:])
		if err != nil {
			return err
		}
		e := model.Environment{Name: args[0], Variables: vars, IsActive: envActivateFlag}
		if envCollectionFlag != "" {
			col, err := s.findCollection(envCollectionFlag)
			if err != nil {
				return err
			}
			e.CollectionID = col.ID
		}
		saved, err := s.store.SaveEnvironment(e)
		if err != nil {
			return err
		}
		s.console.Success("Created environment %s (%s)", saved.Name, saved.ID)
		return nil
	}),
}

var envSetCmd = &cobra.Command{
	Use:               "set <env> key=value...",
	Short:             "Set variables, adding any that do not exist",
	Args:              cobra.MinimumNArgs(2),
	ValidArgsFunction: completeEnvironmentNames,
	RunE: withSession(func(cmd *cobra.Command, args []string, s *session) error {
		e, err := s.findEnvironment(args[0])
		if err != nil {
			return err
		}
		vars, err := parseVariables(args[1:])
		if err != nil {
			return err
		}
		for _, v := range vars {
			v.Type = model.VariableType(envTypeFlag)
			if err := s.store.SetVariable(e.ID, v); err != nil {
				return err
			}
		}
		s.console.Success("Updated %d variable(s) in %s", len(vars), e.Name)
		return nil
	}),
}

var envUnsetCmd = &cobra.Command{
	Use:               "unset <env> key...",
	Short:             "Remove variables",
	Args:              cobra.MinimumNArgs(2),
	ValidArgsFunction: completeEnvironmentNames,
	RunE: withSession(func(cmd *cobra.Command, args []string, s *session) error {
		e, err := s.findEnvironment(args[0])
		if err != nil {
			return err
		}
		names := env.NewVariableStore(e).Names()
		for _, key := range args[1:] {
			if err := s.store.UnsetVariable(e.ID, key); err != nil {
				return notFound(err, key, names)
			}
		}
		s.console.Success("Removed %s from %s", strings.Join(args[1:], ", "), e.Name)
		return nil
	}),
}

var envUseCmd = &cobra.Command{
	Use:               "use [name]",
	Short:             "Activate an environment, or deactivate all when no name is given",
	Args:              cobra.MaximumNArgs(1),
	ValidArgsFunction: completeEnvironmentNames,
	RunE: withSession(func(cmd *cobra.Command, args []string, s *session) error {
		if len(args) == 0 {
			if err := s.store.ClearActiveEnvironment(); err != nil {
				return err
			}
			s.console.Success("No environment is active")
			return nil
		}
		e, err := s.findEnvironment(args[0])
		if err != nil {
			return err
		}
		if err := s.store.SetActiveEnvironment(e.ID); err != nil {
			return err
		}
		s.console.Success("Switched to %s", e.Name)
		return nil
	}),
}

var envDeleteCmd = &cobra.Command{
	Use:               "delete <name>",
	Short:             "Delete an environment",
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeEnvironmentNames,
	RunE: withSession(func(cmd *cobra.Command, args []string, s *session) error {
		e, err := s.findEnvironment(args[0])
		if err != nil {
			return err
		}
		if err := s.store.DeleteEnvironment(e.ID); err != nil {
			return err
		}
		s.console.Success("Deleted environment %s", e.Name)
		return nil
	}),
}

var envImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import an environment from a YAML or .env file",
	Args:  cobra.ExactArgs(1),
	RunE: withSession(func(cmd *cobra.Command, args []string, s *session) error {
		loaded, err := loadEnvironmentFile(args[0])
		if err != nil {
			return withExitCode(ExitParseError, err)
		}
		if envImportNameFlag != "" {
			loaded.Name = envImportNameFlag
		}
		loaded.IsActive = envActivateFlag
		saved, err := s.store.SaveEnvironment(*loaded)
		if err != nil {
			return err
		}
		s.console.Success("Imported %s with %d variable(s)", saved.Name, len(saved.Variables))
		return nil
	}),
}

var envExportCmd = &cobra.Command{
	Use:               "export <name> <file>",
	Short:             "Export an environment as YAML",
	Args:              cobra.ExactArgs(2),
	ValidArgsFunction: completeEnvironmentNames,
	RunE: withSession(func(cmd *cobra.Command, args []string, s *session) error {
		e, err := s.findEnvironment(args[0])
		if err != nil {
			return err
		}
		if err := env.SaveEnvironmentFile(e, args[1]); err != nil {
			return err
		}
		s.console.Success("Wrote %s", args[1])
		return nil
	}),
}

func loadEnvironmentFile(path string) (*model.Environment, error) {
	base := filepath.Base(path)
	if base == ".env" || strings.HasPrefix(base, ".env.") || strings.HasSuffix(base, ".env") {
		return env.LoadDotEnv(path)
	}
	return env.LoadEnvironmentFile(path)
}

func init() {
	envCreateCmd.Flags().StringVar(&envCollectionFlag, "collection", "", "Link the environment to a collection (deleted with it)")
	envCreateCmd.Flags().BoolVar(&envActivateFlag, "activate", false, "Make the new environment active")
	envSetCmd.Flags().StringVar(&envTypeFlag, "type", "", "Type hint stored with the variables: string, number, boolean")
	envImportCmd.Flags().StringVar(&envImportNameFlag, "name", "", "Name for the imported environment (default: from the file)")
	envImportCmd.Flags().BoolVar(&envActivateFlag, "activate", false, "Make the imported environment active")

	envCmd.AddCommand(envListCmd, envShowCmd, envCreateCmd, envSetCmd, envUnsetCmd, envUseCmd, envDeleteCmd, envImportCmd, envExportCmd)
}
