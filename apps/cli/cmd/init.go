package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/ababil/packages/core/config"
	"github.com/abdul-hamid-achik/ababil/packages/core/env"
	"github.com/abdul-hamid-achik/ababil/packages/model"
)

var forceInit bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new ababil project",
	Long: `Initialize a new ababil project in the current directory.

This creates:
  - .ababilrc.json       - Configuration file
  - dev.env.yaml         - Example environment, import with 'ababil env import'
  - requests/login.json  - Example request that returns a token
  - requests/me.json     - Example request that uses it

Examples:
  ababil init
  ababil init --force`,
	RunE: initCommand,
}

func init() {
	initCmd.Flags().BoolVarP(&forceInit, "force", "f", false, "Overwrite existing files")
}

func initCommand(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}

	configFile := filepath.Join(cwd, ".ababilrc.json")
	envFile := filepath.Join(cwd, "dev.env.yaml")
	loginFile := filepath.Join(cwd, "requests", "login.json")
	meFile := filepath.Join(cwd, "requests", "me.json")

	if !forceInit {
		for _, f := range []string{configFile, envFile, loginFile, meFile} {
			if _, err := os.Stat(f); err == nil {
				return fmt.Errorf("file already exists: %s (use --force to overwrite)", f)
			}
		}
	}

	cfg := config.DefaultConfig()
	cfg.DataDir = ".ababil"
	cfg.DefaultEnvironment = "dev"
	cfg.Headers = map[string]string{"User-Agent": "ababil/" + version}
	if err := cfg.SaveConfig(configFile); err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created: %s\n", configFile)

	dev := &model.Environment{
		Name: "dev",
		Variables: []model.Variable{
			{Key: "host", Value: "http://localhost:3000"},
			{Key: "username", Value: "admin"},
			{Key: "password", Value: "change-me"},
		},
	}
	if err := env.SaveEnvironmentFile(dev, envFile); err != nil {
		return fmt.Errorf("failed to create environment file: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created: %s\n", envFile)

	examples := map[string]model.RequestFile{
		loginFile: {
			Name: "login",
			DraftRequest: model.DraftRequest{
				Method: "POST",
				URL:    "{{host}}/auth/login",
				Body:   `{"username": "{{username}}", "password": "{{password}}"}`,
			},
		},
		meFile: {
			Name: "me",
			DraftRequest: model.DraftRequest{
				Method: "GET",
				URL:    "{{host}}/users/me",
				Auth: &model.RequestAuth{
					Type:   model.AuthBearer,
					Bearer: []model.AuthVariable{{Key: "token", Value: "{{access_token}}", Type: "string"}},
				},
			},
		},
	}
	for _, path := range []string{loginFile, meFile} {
		if err := writeRequestFile(path, examples[path]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created: %s\n", path)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "\nababil project initialized!\n")
	fmt.Fprintf(cmd.OutOrStdout(), "Run 'ababil env import dev.env.yaml --activate' and then\n")
	fmt.Fprintf(cmd.OutOrStdout(), "'ababil send requests/login.json requests/me.json --save-tokens'.\n")

	return nil
}

func writeRequestFile(path string, rf model.RequestFile) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	data, err := json.MarshalIndent(rf, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to create request file: %w", err)
	}
	return nil
}
