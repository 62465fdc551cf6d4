package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dreamforge-ai/dreamforge/internal/app"
	"github.com/dreamforge-ai/dreamforge/internal/config"
)

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Utility for database management",
}

var dbInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Print the generations table schema and contents with derived status",
	RunE: func(cmd *cobra.Command, args []string) error {
		application, err := newStoreApp()
		if err != nil {
			return err
		}
		defer application.Close()

		info := application.Store.Introspect(cmd.Context())
		out, err := json.MarshalIndent(info, "", "  ")
		if err != nil {
			return err
		}

		fmt.Println(string(out))
		return nil
	},
}

var dbClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every generation record and its blobs",
	RunE: func(cmd *cobra.Command, args []string) error {
		application, err := newStoreApp()
		if err != nil {
			return err
		}
		defer application.Close()

		if !application.Store.ClearAll(cmd.Context()) {
			return fmt.Errorf("failed to clear generations")
		}

		fmt.Println("all generations cleared")
		return nil
	},
}

func newStoreApp() (*app.App, error) {
	return app.NewApp(config.GetConfig(),
		app.WithDBInitialization(),
		app.WithBlobStore(),
		app.WithServices(),
	)
}

func init() {
	dbCmd.AddCommand(dbInfoCmd, dbClearCmd)
}
