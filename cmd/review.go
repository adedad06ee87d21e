package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/zigzig/talent-matcher/internal/logger"
	"github.com/zigzig/talent-matcher/internal/matching"
)

const (
	PromptLike      = "Like"
	PromptSuperLike = "Super like"
	PromptPass      = "Pass"
	PromptSkip      = "Skip"
	PromptBack      = "back"
)

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Walk through pending matches of a job and decide on each",
	RunE: func(cmd *cobra.Command, _ []string) error {
		jobID, _ := cmd.Flags().GetString("job")
		recruiterID, _ := cmd.Flags().GetString("recruiter")
		compute, _ := cmd.Flags().GetBool("compute")
		limit, _ := cmd.Flags().GetInt("limit")

		ctx := cmd.Context()

		svc, err := newServices(ctx, needs{scorer: compute})
		if err != nil {
			return err
		}
		defer svc.Close()

		if recruiterID == "" {
			posting, err := svc.stores.jobs.GetJob(ctx, jobID)
			if err != nil {
				return fmt.Errorf("loading job %s: %w", jobID, err)
			}
			recruiterID = posting.RecruiterID
		}

		if compute {
			res, err := svc.orchestrator.ComputeMatches(ctx, recruiterID, jobID)
			if err != nil {
				return err
			}
			svc.logger.Info("matches computed", zap.Int("total_matches", res.TotalMatches))
		}

		return review(ctx, svc.reviewer, recruiterID, jobID, limit, svc.logger)
	},
}

func init() {
	rootCmd.AddCommand(reviewCmd)

	reviewCmd.Flags().String("job", "", "job posting id")
	reviewCmd.Flags().String("recruiter", "", "recruiter id (default is the job owner)")
	reviewCmd.Flags().Bool("compute", false, "compute matches before reviewing")
	reviewCmd.Flags().Int("limit", matching.DefaultListLimit, "how many pending matches to load")
	reviewCmd.MarkFlagRequired("job")
}

func review(ctx context.Context, reviewer *matching.Reviewer, recruiterID, jobID string, limit int, log *zap.Logger) error {
	pending, err := reviewer.ListMatches(ctx, recruiterID, jobID, string(matching.StatusPending), limit)
	if err != nil {
		return err
	}

	for len(pending) > 0 {
		log.Info("pending matches", zap.Int("count", len(pending)))

		items := make([]string, 0, len(pending)+1)
		for _, m := range pending {
			items = append(items, matchLabel(m))
		}

		matchPrompt := promptui.Select{
			Label: "Choose a candidate and press ENTER",
			Items: append(items, PromptBack),
			Size:  10,
		}

		idx, selected, err := matchPrompt.Run()
		if err != nil {
			return err
		}
		if selected == PromptBack {
			return nil
		}

		m := pending[idx]
		log.Info("match details",
			zap.String("candidate", m.CandidateName),
			zap.Float64("score", m.MatchScore),
			zap.Strings("reasons", m.MatchReasons),
			zap.Strings("skills", m.CandidateSkills),
		)

		actionPrompt := promptui.Select{
			Label: "Decision",
			Items: []string{PromptLike, PromptSuperLike, PromptPass, PromptSkip},
		}
		_, action, err := actionPrompt.Run()
		if err != nil {
			return err
		}

		status, ok := decisionFor(action)
		if !ok {
			continue
		}

		updated, err := reviewer.UpdateStatus(ctx, recruiterID, matching.UpdateStatusRequest{
			MatchID: m.ID,
			Status:  string(status),
			JobID:   jobID,
		})
		if err != nil {
			return err
		}

		log.Info("match updated", zap.String(logger.FieldMatchID, updated.ID), zap.String("status", string(updated.Status)))
		pending = append(pending[:idx], pending[idx+1:]...)
	}

	log.Info("no pending matches left", zap.String(logger.FieldJobID, jobID))
	return nil
}

func decisionFor(action string) (matching.Status, bool) {
	switch action {
	case PromptLike:
		return matching.StatusLiked, true
	case PromptSuperLike:
		return matching.StatusSuperLiked, true
	case PromptPass:
		return matching.StatusPassed, true
	default:
		return "", false
	}
}

func matchLabel(m *matching.CandidateMatch) string {
	parts := []string{fmt.Sprintf("%5.1f", m.MatchScore), m.CandidateName}
	if m.CandidateTitle != "" {
		parts = append(parts, m.CandidateTitle)
	}
	if m.ExperienceLevel != "" {
		parts = append(parts, m.ExperienceLevel)
	}
	return strings.Join(parts, " / ")
}
