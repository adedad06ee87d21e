package matching

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/zigzig/talent-matcher/internal/filtering"
	"github.com/zigzig/talent-matcher/internal/job"
	"github.com/zigzig/talent-matcher/internal/logger"
	"github.com/zigzig/talent-matcher/internal/portfolio"
	"github.com/zigzig/talent-matcher/internal/scoring"
	"github.com/zigzig/talent-matcher/internal/utils"
)

const (
	DefaultBatchSize  = 10
	DefaultBatchDelay = 500 * time.Millisecond
	DefaultMinScore   = 20.0
)

type Config struct {
	BatchSize  int
	BatchDelay time.Duration
	MinScore   float64
	// ExcludeUsers are never matched, in addition to the recruiter running the job.
	ExcludeUsers []string
}

// Deps aggregates the collaborators shared by Orchestrator and Reviewer.
// Cache, Activity and Events are optional.
type Deps struct {
	Jobs       JobRepository
	Portfolios PortfolioSource
	Cache      PortfolioCache
	Matches    MatchRepository
	Activity   ActivityLog
	Events     EventPublisher
	Scorer     scoring.Scorer
	Parser     *portfolio.Parser
	Background *utils.Background
	Logger     *zap.Logger
}

type Result struct {
	JobID          string            `json:"job_id"`
	TotalMatches   int               `json:"total_matches"`
	Candidates     int               `json:"candidates"`
	Scored         int               `json:"scored"`
	Failed         int               `json:"failed"`
	BelowThreshold int               `json:"below_threshold"`
	Replaced       int               `json:"replaced"`
	Matches        []*CandidateMatch `json:"-"`
}

type Orchestrator struct {
	cfg  Config
	deps Deps
	log  *zap.Logger

	wait func(ctx context.Context, d time.Duration) error
	now  func() time.Time

	mu      sync.Mutex
	running map[string]struct{}
}

func NewOrchestrator(cfg Config, deps Deps) *Orchestrator {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.BatchDelay <= 0 {
		cfg.BatchDelay = DefaultBatchDelay
	}
	if cfg.MinScore <= 0 {
		cfg.MinScore = DefaultMinScore
	}
	if deps.Parser == nil {
		deps.Parser = portfolio.NewParser()
	}

	return &Orchestrator{
		cfg:     cfg,
		deps:    deps,
		log:     logger.WithFields(deps.Logger),
		wait:    utils.WaitFor,
		now:     time.Now,
		running: map[string]struct{}{},
	}
}

type outcome int

const (
	outcomeFailed outcome = iota
	outcomeBelow
	outcomeMatched
)

// ComputeMatches replaces every match of the job with a fresh evaluation of
// all published portfolios. recruiterID, when set, must own the job. Only one
// run per job proceeds at a time; a concurrent call gets ErrComputeInProgress.
// A run cancelled between batches stores nothing and resets the job's total.
func (o *Orchestrator) ComputeMatches(ctx context.Context, recruiterID, jobID string) (*Result, error) {
	jobID = strings.TrimSpace(jobID)
	if jobID == "" {
		return nil, invalid("jobId", "is required")
	}

	log := o.log.With(
		zap.String(logger.FieldJobID, jobID),
		zap.String(logger.FieldRecruiterID, recruiterID),
	)

	posting, err := o.loadJob(ctx, recruiterID, jobID)
	if err != nil {
		return nil, err
	}

	release, ok := o.claim(jobID)
	if !ok {
		log.Warn("match computation already running")
		return nil, ErrComputeInProgress
	}
	defer release()

	records, err := o.deps.Portfolios.ListPublished(ctx)
	if err != nil {
		return nil, fmt.Errorf("list published portfolios: %w", err)
	}

	candidates, err := filtering.Default(posting.RecruiterID, o.cfg.ExcludeUsers, log).
		RunFilters(ctx, filtering.NewCandidates(records))
	if err != nil {
		return nil, fmt.Errorf("filter candidates: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	replaced, err := o.deps.Matches.DeleteByJob(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("delete previous matches: %w", err)
	}

	log.Info("computing matches",
		zap.Int("candidates", candidates.Len()),
		zap.Int("replaced", replaced),
		zap.Int("batch_size", o.cfg.BatchSize),
	)

	result := &Result{JobID: jobID, Candidates: candidates.Len(), Replaced: replaced}
	matches := make([]*CandidateMatch, 0, candidates.Len())

	for start := 0; start < candidates.Len(); start += o.cfg.BatchSize {
		if start > 0 {
			if err := o.wait(ctx, o.cfg.BatchDelay); err != nil {
				log.Warn("match computation cancelled", zap.Int("evaluated", start), zap.Error(err))
				o.resetTotal(ctx, jobID, log)
				return nil, err
			}
		}

		end := min(start+o.cfg.BatchSize, candidates.Len())
		batch := candidates.Items[start:end]

		// A started batch always finishes.
		batchMatches, outcomes := o.runBatch(context.WithoutCancel(ctx), posting, batch, log)
		for _, oc := range outcomes {
			switch oc {
			case outcomeFailed:
				result.Failed++
			case outcomeBelow:
				result.Scored++
				result.BelowThreshold++
			case outcomeMatched:
				result.Scored++
			}
		}
		matches = append(matches, batchMatches...)

		log.Debug("batch evaluated",
			zap.Int("from", start),
			zap.Int("to", end),
			zap.Int("matches", len(batchMatches)),
		)
	}

	sort.SliceStable(matches, func(i, j int) bool { return matches[i].MatchScore > matches[j].MatchScore })

	if len(matches) > 0 {
		if err := o.deps.Matches.InsertMany(ctx, matches); err != nil {
			return nil, fmt.Errorf("insert matches: %w", err)
		}
	}
	if err := o.deps.Jobs.UpdateTotalMatches(ctx, jobID, len(matches)); err != nil {
		return nil, fmt.Errorf("update total matches: %w", err)
	}

	result.TotalMatches = len(matches)
	result.Matches = matches

	log.Info("matches computed",
		zap.Int("total_matches", result.TotalMatches),
		zap.Int("scored", result.Scored),
		zap.Int("failed", result.Failed),
		zap.Int("below_threshold", result.BelowThreshold),
	)

	o.recordActivity(ctx, recruiterID, result)

	return result, nil
}

// claim reserves jobID for the calling run within this process.
func (o *Orchestrator) claim(jobID string) (func(), bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if _, busy := o.running[jobID]; busy {
		return nil, false
	}
	o.running[jobID] = struct{}{}

	return func() {
		o.mu.Lock()
		delete(o.running, jobID)
		o.mu.Unlock()
	}, true
}

// resetTotal keeps the job's counter in line with its emptied match set after
// an abandoned run.
func (o *Orchestrator) resetTotal(ctx context.Context, jobID string, log *zap.Logger) {
	if err := o.deps.Jobs.UpdateTotalMatches(context.WithoutCancel(ctx), jobID, 0); err != nil {
		log.Error("resetting total matches", zap.Error(err))
	}
}

func (o *Orchestrator) loadJob(ctx context.Context, recruiterID, jobID string) (*job.Posting, error) {
	posting, err := o.deps.Jobs.GetJob(ctx, jobID)
	if err != nil {
		if errors.Is(err, ErrJobNotFound) {
			return nil, ErrJobNotFound
		}
		return nil, fmt.Errorf("load job: %w", err)
	}
	if posting == nil {
		return nil, ErrJobNotFound
	}

	recruiterID = strings.TrimSpace(recruiterID)
	if recruiterID != "" && posting.RecruiterID != recruiterID {
		return nil, ErrJobNotFound
	}
	if posting.Requirements == nil {
		return nil, invalid("extracted_requirements", "job has no extracted requirements")
	}

	return posting, nil
}

func (o *Orchestrator) runBatch(ctx context.Context, posting *job.Posting, batch []*portfolio.Record, log *zap.Logger) ([]*CandidateMatch, []outcome) {
	found := make([]*CandidateMatch, len(batch))
	outcomes := make([]outcome, len(batch))

	var g errgroup.Group
	for i, record := range batch {
		g.Go(func() error {
			found[i], outcomes[i] = o.evaluate(ctx, posting, record, log)
			return nil
		})
	}
	_ = g.Wait()

	matches := make([]*CandidateMatch, 0, len(batch))
	for _, m := range found {
		if m != nil {
			matches = append(matches, m)
		}
	}
	return matches, outcomes
}

func (o *Orchestrator) evaluate(ctx context.Context, posting *job.Posting, record *portfolio.Record, log *zap.Logger) (m *CandidateMatch, oc outcome) {
	log = log.With(logger.CandidateFields("", record.UserID, record.ID)...)

	defer func() {
		if r := recover(); r != nil {
			log.Error("candidate evaluation panicked", zap.String("panic", fmt.Sprint(r)))
			m, oc = nil, outcomeFailed
		}
	}()

	parsed := o.parse(ctx, record, log)

	details, err := o.deps.Scorer.ScoreCandidate(ctx, *posting.Requirements, parsed)
	if err != nil {
		log.Warn("candidate scoring failed", zap.Error(err))
		return nil, outcomeFailed
	}
	if details == nil {
		log.Warn("candidate scoring returned no details")
		return nil, outcomeFailed
	}

	if details.OverallScore < o.cfg.MinScore {
		log.Debug("candidate below threshold", zap.Float64("match_score", details.OverallScore))
		return nil, outcomeBelow
	}

	return newMatch(posting.ID, record, parsed, details, o.now().UTC()), outcomeMatched
}

// parse reads through the portfolio cache. Cache failures only cost a re-parse.
func (o *Orchestrator) parse(ctx context.Context, record *portfolio.Record, log *zap.Logger) portfolio.ParsedPortfolioData {
	if o.deps.Cache == nil {
		return o.deps.Parser.ParseRecord(record)
	}

	entry, err := o.deps.Cache.GetParsed(ctx, record.UserID)
	if err != nil {
		log.Warn("reading portfolio cache", zap.Error(err))
	}
	if entry.FreshFor(record) {
		return entry.Data
	}

	parsed := o.deps.Parser.ParseRecord(record)
	err = o.deps.Cache.PutParsed(ctx, &portfolio.CacheEntry{
		UserID:      record.UserID,
		PortfolioID: record.ID,
		Data:        parsed,
		IsActive:    true,
		LastUpdated: o.now().UTC(),
	})
	if err != nil {
		log.Warn("writing portfolio cache", zap.Error(err))
	}

	return parsed
}

func (o *Orchestrator) recordActivity(ctx context.Context, recruiterID string, result *Result) {
	if o.deps.Activity == nil {
		return
	}

	activity := Activity{
		RecruiterID: recruiterID,
		Action:      ActivityComputeMatches,
		JobID:       result.JobID,
		Details: map[string]string{
			"total_matches": strconv.Itoa(result.TotalMatches),
			"candidates":    strconv.Itoa(result.Candidates),
		},
		CreatedAt: o.now().UTC(),
	}

	o.deps.Background.Go(ctx, ActivityComputeMatches, func(ctx context.Context) error {
		return o.deps.Activity.Record(ctx, activity)
	})
}
