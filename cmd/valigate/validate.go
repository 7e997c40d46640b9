package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/artpar/valigate/config"
	"github.com/artpar/valigate/core/codec"
	"github.com/artpar/valigate/core/validate"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a data document against a model file",
	Long: `Validate a data document against a serialized model, without
touching the model store. Exits non-zero when the data is invalid.

Examples:
  valigate validate -m order.model.json -d order.json
  valigate validate -m order.model.json -d order.json --report-unknown`,
	RunE: runValidate,
}

var (
	validateModelFile     string
	validateDataFile      string
	validateReportUnknown bool
)

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringVarP(&validateModelFile, "model", "m", "", "serialized model file (required)")
	validateCmd.Flags().StringVarP(&validateDataFile, "data", "d", "", "data document file (required)")
	validateCmd.Flags().BoolVar(&validateReportUnknown, "report-unknown", false, "report data fields absent from the model")
	validateCmd.MarkFlagRequired("model")
	validateCmd.MarkFlagRequired("data")
}

func runValidate(cmd *cobra.Command, args []string) error {
	modelBlob, err := os.ReadFile(validateModelFile)
	if err != nil {
		return fmt.Errorf("read model: %w", err)
	}
	m, err := codec.Deserialize(string(modelBlob))
	if err != nil {
		return err
	}

	dataBlob, err := os.ReadFile(validateDataFile)
	if err != nil {
		return fmt.Errorf("read data: %w", err)
	}
	var data map[string]any
	if err := json.Unmarshal(dataBlob, &data); err != nil {
		return fmt.Errorf("data document must be a JSON object: %w", err)
	}

	opts := validate.Options{}
	if validateReportUnknown {
		opts.UnknownFields = validate.UnknownReport
	}
	result := validate.New(opts).Validate(data, m)

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))

	if !result.Valid {
		os.Exit(1)
	}
	return nil
}

// loadConfig is shared by the storage-backed commands.
func loadConfig() (*config.Config, error) {
	return config.Load(cfgFile)
}
