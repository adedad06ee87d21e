package job

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type RequirementsExtractor interface {
	Extract(ctx context.Context, description, title, company string) (*Requirements, error)
}

type PostingStore interface {
	CreateJob(ctx context.Context, p *Posting) error
}

type ParseRequest struct {
	Description string `json:"description"`
	Title       string `json:"title"`
	Company     string `json:"company"`
}

// Service creates postings from raw descriptions.
type Service struct {
	extractor RequirementsExtractor
	store     PostingStore
	logger    *zap.Logger
	now       func() time.Time
}

func NewService(extractor RequirementsExtractor, store PostingStore, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{extractor: extractor, store: store, logger: logger, now: time.Now}
}

// CreateFromDescription extracts requirements and stores an active posting
// owned by recruiterID.
func (s *Service) CreateFromDescription(ctx context.Context, recruiterID string, in ParseRequest) (*Posting, error) {
	requirements, err := s.extractor.Extract(ctx, in.Description, in.Title, in.Company)
	if err != nil {
		return nil, err
	}

	posting := &Posting{
		ID:           uuid.NewString(),
		RecruiterID:  strings.TrimSpace(recruiterID),
		Title:        requirements.Title,
		Company:      requirements.Company,
		Description:  strings.TrimSpace(in.Description),
		Requirements: requirements,
		Status:       StatusActive,
		CreatedAt:    s.now().UTC(),
	}

	if err := s.store.CreateJob(ctx, posting); err != nil {
		return nil, fmt.Errorf("store job posting: %w", err)
	}

	s.logger.Info("job posting created",
		zap.String("job_id", posting.ID),
		zap.String("recruiter_id", posting.RecruiterID),
	)

	return posting, nil
}
