package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/yungbote/titlememory-backend/internal/app"
	"github.com/yungbote/titlememory-backend/internal/platform/apierr"
	"github.com/yungbote/titlememory-backend/internal/services"
)

var importOwner string

var importCmd = &cobra.Command{
	Use:   "import [files...]",
	Short: "Import title memories from JSON or YAML files",
	Long: `Each file holds an array of title memory records. Every record of every
file is checked before anything is created; one bad record aborts the import.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		files := make([]services.ImportFile, 0, len(args))
		for _, path := range args {
			content, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read %s: %w", path, err)
			}
			files = append(files, services.ImportFile{Name: filepath.Base(path), Content: content})
		}

		ctx := cmd.Context()
		application, err := app.New(ctx, app.Options{})
		if err != nil {
			return err
		}
		defer application.Close()

		rows, err := application.Services.TitleMemory.BulkImportFromFiles(ctx, files, importOwner)
		if err != nil {
			if e := apierr.As(err); len(e.Details) > 0 {
				for _, d := range e.Details {
					fmt.Fprintln(cmd.ErrOrStderr(), d)
				}
			}
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "imported %d title memories\n", len(rows))
		return nil
	},
}

func init() {
	importCmd.Flags().StringVar(&importOwner, "owner", "", "user id recorded as the owner of the imported records")
}
