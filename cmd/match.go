package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/zigzig/talent-matcher/internal/logger"
)

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Compute matches for one job posting and print them",
	RunE: func(cmd *cobra.Command, _ []string) error {
		jobID, _ := cmd.Flags().GetString("job")
		recruiterID, _ := cmd.Flags().GetString("recruiter")

		svc, err := newServices(cmd.Context(), needs{scorer: true})
		if err != nil {
			return err
		}
		defer svc.Close()

		if recruiterID == "" {
			posting, err := svc.stores.jobs.GetJob(cmd.Context(), jobID)
			if err != nil {
				return fmt.Errorf("loading job %s: %w", jobID, err)
			}
			recruiterID = posting.RecruiterID
		}

		res, err := svc.orchestrator.ComputeMatches(cmd.Context(), recruiterID, jobID)
		if err != nil {
			return err
		}

		svc.logger.Info("matching finished",
			zap.String(logger.FieldJobID, res.JobID),
			zap.Int("candidates", res.Candidates),
			zap.Int("total_matches", res.TotalMatches),
			zap.Int("failed", res.Failed),
		)

		return printJSON(res.Matches)
	},
}

func init() {
	rootCmd.AddCommand(matchCmd)

	matchCmd.Flags().String("job", "", "job posting id")
	matchCmd.Flags().String("recruiter", "", "recruiter id (default is the job owner)")
	matchCmd.MarkFlagRequired("job")
}
