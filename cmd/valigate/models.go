package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/artpar/valigate/adapters/clock"
	"github.com/artpar/valigate/adapters/sqlite"
	"github.com/artpar/valigate/app"
	"github.com/artpar/valigate/core/validate"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "Manage stored validation models",
}

var modelsPutCmd = &cobra.Command{
	Use:   "put <name> <file>",
	Short: "Store a model file under the next version",
	Args:  cobra.ExactArgs(2),
	RunE:  runModelsPut,
}

var modelsGetCmd = &cobra.Command{
	Use:   "get <name>",
	Short: "Print a stored model (latest unless --version is given)",
	Args:  cobra.ExactArgs(1),
	RunE:  runModelsGet,
}

var modelsListCmd = &cobra.Command{
	Use:   "list <name>",
	Short: "List stored versions, newest first",
	Args:  cobra.ExactArgs(1),
	RunE:  runModelsList,
}

var modelsVersion int

func init() {
	rootCmd.AddCommand(modelsCmd)
	modelsCmd.AddCommand(modelsPutCmd, modelsGetCmd, modelsListCmd)

	modelsGetCmd.Flags().IntVar(&modelsVersion, "version", 0, "model version (0 = latest)")
}

// openModelService opens the configured store for one CLI invocation.
// The caller must invoke the returned cleanup.
func openModelService() (*app.ModelService, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	logger := newLogger(cfg.Logging)

	db, err := sqlite.Open(cfg.Database.Path)
	if err != nil {
		return nil, nil, err
	}
	if err := db.Migrate(); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("migrate: %w", err)
	}

	engine := validate.New(engineOptions(cfg.Validation))
	store := sqlite.NewModelStore(db, clock.Real{})
	service := app.NewModelService(store, engine, logger, nil)
	return service, func() { db.Close() }, nil
}

func runModelsPut(cmd *cobra.Command, args []string) error {
	name, file := args[0], args[1]
	blob, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("read model: %w", err)
	}

	service, cleanup, err := openModelService()
	if err != nil {
		return err
	}
	defer cleanup()

	version, err := service.StoreSerialized(cmd.Context(), name, string(blob))
	if err != nil {
		return err
	}
	fmt.Printf("stored %s version %d\n", name, version)
	return nil
}

func runModelsGet(cmd *cobra.Command, args []string) error {
	service, cleanup, err := openModelService()
	if err != nil {
		return err
	}
	defer cleanup()

	serialized, version, err := service.GetSerialized(cmd.Context(), args[0], modelsVersion)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "version %d\n", version)
	fmt.Println(serialized)
	return nil
}

func runModelsList(cmd *cobra.Command, args []string) error {
	service, cleanup, err := openModelService()
	if err != nil {
		return err
	}
	defer cleanup()

	versions, err := service.Versions(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if len(versions) == 0 {
		fmt.Println("no versions stored")
		return nil
	}
	for _, v := range versions {
		fmt.Println(v)
	}
	return nil
}
