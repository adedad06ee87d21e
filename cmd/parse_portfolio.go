package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/zigzig/talent-matcher/internal/portfolio"
)

var parsePortfolioCmd = &cobra.Command{
	Use:   "parse-portfolio",
	Short: "Parse a portfolio content document into the normalized profile",
	RunE: func(cmd *cobra.Command, _ []string) error {
		file, _ := cmd.Flags().GetString("file")

		data, err := readInput(file)
		if err != nil {
			return err
		}

		content, err := portfolio.DecodeJSON(data)
		if err != nil {
			return err
		}

		parsed := portfolio.NewParser().Parse(content)
		newLogger().Debug("parsed portfolio",
			zap.Int("skills", len(parsed.Skills.All)),
			zap.Float64("years", parsed.Experience.TotalYears),
			zap.String("level", string(parsed.Experience.Level)),
		)

		return printJSON(parsed)
	},
}

func init() {
	rootCmd.AddCommand(parsePortfolioCmd)

	parsePortfolioCmd.Flags().StringP("file", "f", "-", "file with the portfolio content json")
}
