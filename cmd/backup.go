// file: cmd/backup.go
// version: 1.0.0
// guid: 6e8a0c2e-4f5b-4d7c-9a1e-3c5e7a9c1e48

package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jdfalk/book-library/internal/backup"
	"github.com/jdfalk/book-library/internal/config"
)

// backupConfig reads the backup settings from config.AppConfig.
func backupConfig() backup.BackupConfig {
	bc := backup.DefaultBackupConfig()
	bc.BackupDir = config.AppConfig.BackupDir
	bc.MaxBackups = config.AppConfig.BackupKeep
	return bc
}

// createBackup snapshots the library held by a.
func (a *app) createBackup() (*backup.BackupInfo, error) {
	return backup.CreateBackup(a.lib.Books(), backup.Manifest{
		StorageKey:   a.store.Key(),
		DatabaseType: config.AppConfig.DatabaseType,
	}, backupConfig())
}

func newBackupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Create, list and restore collection backups",
		Long: `Backups are compressed archives of the collection plus a manifest with
its checksum. They do not depend on the database backend, so a backup of a
pebble database can be restored into postgres.`,
	}
	cmd.AddCommand(newBackupCreateCmd(), newBackupListCmd(), newBackupRestoreCmd())
	return cmd
}

func newBackupCreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create",
		Short: "Archive the collection into backup_dir",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(a *app) error {
				info, err := a.createBackup()
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Backed up %d books to %s (%d bytes)\n", info.Manifest.Books, info.Path, info.Size)
				return nil
			})
		},
	}
}

func newBackupListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List backups, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			backups, err := backup.ListBackups(config.AppConfig.BackupDir)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(backups) == 0 {
				fmt.Fprintf(out, "No backups in %s\n", config.AppConfig.BackupDir)
				return nil
			}
			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "FILE\tBOOKS\tCREATED\tSIZE")
			for _, b := range backups {
				books, created := "?", "?"
				if b.Manifest != nil {
					books = fmt.Sprint(b.Manifest.Books)
					created = b.Manifest.CreatedAt.Local().Format("2006-01-02 15:04:05")
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", b.Filename, books, created, b.Size)
			}
			return tw.Flush()
		},
	}
}

func newBackupRestoreCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "restore <file>",
		Short: "Merge a backup into the library",
		Long: `Merge the books of a backup into the library the way import does: books
whose id is present are replaced, the others appended.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			yes, _ := cmd.Flags().GetBool("yes")
			noVerify, _ := cmd.Flags().GetBool("no-verify")

			path := args[0]
			if _, err := os.Stat(path); err != nil {
				return err
			}
			books, m, err := backup.LoadBackup(path, !noVerify)
			if err != nil {
				return err
			}

			if !yes {
				if !stdinIsTerminal() {
					return fmt.Errorf("refusing to restore %d books without confirmation; pass --yes", len(books))
				}
				ok, err := promptYesNo(cmd.InOrStdin(), cmd.OutOrStdout(),
					fmt.Sprintf("Restore %d books from %s", len(books), m.CreatedAt.Local().Format("2006-01-02 15:04")))
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(cmd.OutOrStdout(), "Aborted. Nothing restored.")
					return nil
				}
			}

			return withApp(cmd.Context(), func(a *app) error {
				merged, err := a.lib.ImportBooks(cmd.Context(), books)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Restored %d books. The library now holds %d books.\n", len(books), len(merged))
				return nil
			})
		},
	}
	cmd.Flags().BoolP("yes", "y", false, "skip the confirmation prompt")
	cmd.Flags().Bool("no-verify", false, "skip the checksum check")
	return cmd
}
