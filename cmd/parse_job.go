package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

var parseJobCmd = &cobra.Command{
	Use:   "parse-job",
	Short: "Extract structured requirements from a job description",
	Long:  "Extract structured requirements from a job description file (or stdin with --file -).",
	RunE: func(cmd *cobra.Command, _ []string) error {
		file, _ := cmd.Flags().GetString("file")
		title, _ := cmd.Flags().GetString("title")
		company, _ := cmd.Flags().GetString("company")

		description, err := readInput(file)
		if err != nil {
			return err
		}

		logger := newLogger()
		config, err := getConfig()
		if err != nil {
			return fmt.Errorf("getting a config: %w", err)
		}

		extractor, err := newExtractor(cmd.Context(), config, newGenerators(config.AI, logger), logger)
		if err != nil {
			return err
		}

		req, err := extractor.Extract(cmd.Context(), string(description), title, company)
		if err != nil {
			return err
		}

		return printJSON(req)
	},
}

func init() {
	rootCmd.AddCommand(parseJobCmd)

	parseJobCmd.Flags().StringP("file", "f", "-", "file with the job description")
	parseJobCmd.Flags().String("title", "", "job title hint")
	parseJobCmd.Flags().String("company", "", "company name hint")
}

func readInput(file string) ([]byte, error) {
	if file == "" || file == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return data, nil
	}

	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", file, err)
	}
	return data, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
