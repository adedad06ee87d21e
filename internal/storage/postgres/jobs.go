package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/zigzig/talent-matcher/internal/job"
	"github.com/zigzig/talent-matcher/internal/matching"
)

const jobColumns = `id, recruiter_id, title, company, description, extracted_requirements,
	status, total_matches, liked_count, passed_count, created_at`

func (s *Store) CreateJob(ctx context.Context, p *job.Posting) error {
	var requirements []byte
	if p.Requirements != nil {
		data, err := json.Marshal(p.Requirements)
		if err != nil {
			return fmt.Errorf("marshal requirements: %w", err)
		}
		requirements = data
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO job_postings (id, recruiter_id, title, company, description, extracted_requirements, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		p.ID, p.RecruiterID, p.Title, p.Company, p.Description, requirements, string(p.Status), p.CreatedAt,
	)
	if err != nil {
		s.logger.Error("failed to create job posting",
			zap.String("job_id", p.ID),
			zap.Error(err),
		)
		return fmt.Errorf("createJob: %w", err)
	}
	return nil
}

func (s *Store) GetJob(ctx context.Context, jobID string) (*job.Posting, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+jobColumns+` FROM job_postings WHERE id = $1`, jobID)

	p, err := scanJob(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, matching.ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getJob: %w", err)
	}
	return p, nil
}

func (s *Store) ListActiveJobs(ctx context.Context) ([]*job.Posting, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+jobColumns+` FROM job_postings WHERE status = $1 ORDER BY created_at`,
		string(job.StatusActive))
	if err != nil {
		return nil, fmt.Errorf("listActiveJobs query: %w", err)
	}
	defer rows.Close()

	postings := make([]*job.Posting, 0)
	for rows.Next() {
		p, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("listActiveJobs scan: %w", err)
		}
		postings = append(postings, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listActiveJobs rows: %w", err)
	}
	return postings, nil
}

func (s *Store) UpdateTotalMatches(ctx context.Context, jobID string, total int) error {
	tag, err := s.pool.Exec(ctx, `UPDATE job_postings SET total_matches = $1 WHERE id = $2`, total, jobID)
	if err != nil {
		return fmt.Errorf("updateTotalMatches: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return matching.ErrJobNotFound
	}
	return nil
}

func (s *Store) IncrementDecisionCount(ctx context.Context, jobID string, status matching.Status) error {
	var column string
	switch status {
	case matching.StatusLiked, matching.StatusSuperLiked:
		column = "liked_count"
	case matching.StatusPassed:
		column = "passed_count"
	default:
		return nil
	}

	tag, err := s.pool.Exec(ctx, `UPDATE job_postings SET `+column+` = `+column+` + 1 WHERE id = $1`, jobID)
	if err != nil {
		return fmt.Errorf("incrementDecisionCount: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return matching.ErrJobNotFound
	}
	return nil
}

func scanJob(row pgx.Row) (*job.Posting, error) {
	var (
		p            job.Posting
		requirements []byte
		status       string
	)
	if err := row.Scan(
		&p.ID, &p.RecruiterID, &p.Title, &p.Company, &p.Description, &requirements,
		&status, &p.TotalMatches, &p.LikedCount, &p.PassedCount, &p.CreatedAt,
	); err != nil {
		return nil, err
	}

	p.Status = job.Status(status)
	if len(requirements) > 0 {
		var r job.Requirements
		if err := json.Unmarshal(requirements, &r); err != nil {
			return nil, fmt.Errorf("decode requirements of job %s: %w", p.ID, err)
		}
		p.Requirements = &r
	}
	return &p, nil
}

var (
	_ job.PostingStore       = (*Store)(nil)
	_ matching.JobRepository = (*Store)(nil)
)
