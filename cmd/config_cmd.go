// file: cmd/config_cmd.go
// version: 1.0.0
// guid: 8a0c2e4a-6b7d-4f9e-a1c3-5e7a9c1e3b26

package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/jdfalk/book-library/internal/config"
	"github.com/jdfalk/book-library/internal/server/middleware"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show, save and prepare settings",
	}
	cmd.AddCommand(newConfigShowCmd(), newConfigSaveCmd(), newConfigHashPasswordCmd())
	return cmd
}

func newConfigShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			secrets, _ := cmd.Flags().GetBool("secrets")
			data, err := yaml.Marshal(config.Effective(secrets))
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
	cmd.Flags().Bool("secrets", false, "include the password hash")
	return cmd
}

func newConfigSaveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "save",
		Short: "Write the effective configuration to a file",
		Long: `Write the settings in effect (defaults, config file, environment and
flags merged) to config.yaml next to the database, or to --path.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("path")
			if path == "" {
				cfgFile, _ := cmd.Root().PersistentFlags().GetString("config")
				path = config.ConfigFilePath(cfgFile)
			}
			if err := config.SaveConfigToFile(path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved configuration to %s\n", path)
			return nil
		},
	}
	cmd.Flags().String("path", "", "destination file")
	return cmd
}

func newConfigHashPasswordCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hash-password",
		Short: "Hash a password for basic_auth_password_hash",
		Long: `Read a password (hidden when typed at a terminal, else the first line of
standard input) and print its bcrypt hash.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cost, _ := cmd.Flags().GetInt("cost")

			var password string
			if stdinIsTerminal() {
				fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
				raw, err := term.ReadPassword(int(os.Stdin.Fd()))
				fmt.Fprintln(cmd.ErrOrStderr())
				if err != nil {
					return err
				}
				password = string(raw)
			} else {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("failed to read password: %w", err)
				}
				password = strings.TrimRight(line, "\r\n")
			}
			if password == "" {
				return fmt.Errorf("password must not be empty")
			}

			hash, err := middleware.HashPassword(password, cost)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
	cmd.Flags().Int("cost", 0, "bcrypt cost (0 uses the library default)")
	return cmd
}
