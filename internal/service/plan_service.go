package service

import (
	"alcyxob/runplan/internal/auth"
	"alcyxob/runplan/internal/domain"
	"alcyxob/runplan/internal/logger"
	"alcyxob/runplan/internal/planner"
	"alcyxob/runplan/internal/provider"
	"alcyxob/runplan/internal/repository"
	"alcyxob/runplan/internal/storage"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// --- Error Definitions ---
var (
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrProfileRequired      = errors.New("profileData is required")
	ErrInvalidProfile       = errors.New("invalid profile")
	ErrPersistence          = errors.New("failed to save profile")
	ErrPlanNotFound         = errors.New("no plan stored for this user")
)

// Stages a generation run can fail in after the provider was invoked.
const (
	StageGenerate = "generate"
	StageExtract  = "extract"
	StageParse    = "parse"
)

// GenerationError is a failure after generation was attempted. A diagnostic record
// has already been written (or its write was attempted) when it is returned.
type GenerationError struct {
	AttemptID string
	Stage     string
	Err       error
}

func (e *GenerationError) Error() string { return e.Err.Error() }
func (e *GenerationError) Unwrap() error { return e.Err }

// PlanResult is returned on success.
type PlanResult struct {
	AttemptID   string
	Plan        domain.WorkoutPlan
	GeneratedBy string
	Report      planner.NormalizeReport
}

// Generator produces raw text for a prompt; *provider.Router implements it.
type Generator interface {
	Generate(ctx context.Context, prompt string) (*provider.Result, error)
}

// Recorder receives generation metrics; *metrics.Metrics implements it.
type Recorder interface {
	ObserveGeneration(result string)
	ObserveRepairs(missingWeeks, droppedEntries, coercedDurations int)
}

type PlanService interface {
	// GeneratePlan authenticates the caller, generates a plan for the profile and
	// persists either the plan or a diagnostic record under the caller's subject id.
	GeneratePlan(ctx context.Context, credential string, profile *domain.Profile) (*PlanResult, error)
	// GetPlan returns the caller's stored record, successful or not.
	GetPlan(ctx context.Context, credential string) (*domain.ProfileRecord, error)
}

// --- Service Implementation ---

type planService struct {
	verifier       auth.Verifier
	generator      Generator
	profileRepo    repository.ProfileRepository
	archive        storage.ResponseArchive
	recorder       Recorder
	log            *logger.Logger
	requestTimeout time.Duration
	persistTimeout time.Duration
	newAttemptID   func() string
}

type Option func(*planService)

// WithArchive copies every raw provider reply to the archive.
func WithArchive(a storage.ResponseArchive) Option {
	return func(s *planService) { s.archive = a }
}

func WithRecorder(r Recorder) Option {
	return func(s *planService) { s.recorder = r }
}

func WithLogger(l *logger.Logger) Option {
	return func(s *planService) { s.log = l }
}

// WithRequestTimeout bounds a whole run once it is detached from the caller.
func WithRequestTimeout(d time.Duration) Option {
	return func(s *planService) { s.requestTimeout = d }
}

// WithPersistTimeout bounds the final record write. The write gets its own deadline so a
// run that used up its request timeout still leaves a record.
func WithPersistTimeout(d time.Duration) Option {
	return func(s *planService) {
		if d > 0 {
			s.persistTimeout = d
		}
	}
}

// DefaultPersistTimeout bounds the final record write unless WithPersistTimeout overrides it.
const DefaultPersistTimeout = 10 * time.Second

// NewPlanService creates a new instance of planService.
func NewPlanService(
	verifier auth.Verifier,
	generator Generator,
	profileRepo repository.ProfileRepository,
	opts ...Option,
) PlanService {
	s := &planService{
		verifier:       verifier,
		generator:      generator,
		profileRepo:    profileRepo,
		archive:        storage.NewNoopArchive(),
		log:            logger.NewNop(),
		persistTimeout: DefaultPersistTimeout,
		newAttemptID:   func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *planService) authenticate(ctx context.Context, credential string) (string, error) {
	if credential == "" {
		return "", ErrAuthenticationFailed
	}
	subjectID, err := s.verifier.Verify(ctx, credential)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAuthenticationFailed, err)
	}
	return subjectID, nil
}

func (s *planService) GeneratePlan(ctx context.Context, credential string, profile *domain.Profile) (*PlanResult, error) {
	subjectID, err := s.authenticate(ctx, credential)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, ErrProfileRequired
	}
	if err := profile.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidProfile, err)
	}

	// From here on the run is paid for: finish and record it even if the caller goes away.
	ctx = context.WithoutCancel(ctx)
	if s.requestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.requestTimeout)
		defer cancel()
	}

	attemptID := s.newAttemptID()
	log := s.log.With("attempt_id", attemptID, "subject_id", subjectID)

	prompt := planner.BuildPrompt(*profile)

	result, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		return nil, s.recordFailure(ctx, log, subjectID, *profile, &GenerationError{AttemptID: attemptID, Stage: StageGenerate, Err: err}, nil)
	}
	raw := result.Text
	log = log.With("generated_by", result.GeneratedBy())
	s.archiveRaw(ctx, log, subjectID, raw)

	doc, err := planner.ExtractDocument(raw)
	if err != nil {
		return nil, s.recordFailure(ctx, log, subjectID, *profile, &GenerationError{AttemptID: attemptID, Stage: StageExtract, Err: err}, &raw)
	}
	parsed, err := planner.ParseDocument(doc)
	if err != nil {
		return nil, s.recordFailure(ctx, log, subjectID, *profile, &GenerationError{AttemptID: attemptID, Stage: StageParse, Err: err}, &raw)
	}

	plan, report := planner.NormalizePlan(parsed)
	if !report.Clean() {
		log.Warn("Generated plan needed repair",
			"missing_weeks", report.MissingWeeks,
			"dropped_entries", report.DroppedEntries,
			"coerced_durations", report.CoercedDurations)
	}
	if s.recorder != nil {
		s.recorder.ObserveRepairs(len(report.MissingWeeks), report.DroppedEntries, report.CoercedDurations)
	}

	record := domain.NewProfileRecord(subjectID, *profile, domain.PlanSuccess{Plan: plan, GeneratedBy: result.GeneratedBy()})
	if err := s.persist(ctx, &record); err != nil {
		log.Error("Failed to persist generated plan", "error", err)
		s.observe("persistence_error")
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	log.Info("Plan generated", "sessions", plan.TotalSessions(), "fallbacks_used", len(result.Attempts))
	s.observe("success")

	return &PlanResult{
		AttemptID:   attemptID,
		Plan:        plan,
		GeneratedBy: result.GeneratedBy(),
		Report:      report,
	}, nil
}

// recordFailure writes the diagnostic record and returns genErr. A failed write is only
// logged; the caller gets the generation error either way.
func (s *planService) recordFailure(ctx context.Context, log *logger.Logger, subjectID string, profile domain.Profile, genErr *GenerationError, raw *string) error {
	s.observe(genErr.Stage + "_error")

	record := domain.NewProfileRecord(subjectID, profile, domain.PlanFailure{Err: genErr.Err, RawResponse: raw})
	if err := s.persist(ctx, &record); err != nil {
		log.Error("Failed to persist generation failure", "stage", genErr.Stage, "error", err, "generation_error", genErr.Err)
		return genErr
	}
	log.Warn("Plan generation failed", "stage", genErr.Stage, "error", genErr.Err)
	return genErr
}

// persist upserts the terminal record under a fresh deadline, detached from ctx's.
func (s *planService) persist(ctx context.Context, record *domain.ProfileRecord) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.persistTimeout)
	defer cancel()
	return s.profileRepo.Upsert(ctx, record)
}

func (s *planService) archiveRaw(ctx context.Context, log *logger.Logger, subjectID, raw string) {
	key, err := s.archive.Archive(ctx, subjectID, raw)
	if err != nil {
		log.Warn("Failed to archive raw provider reply", "error", err)
		return
	}
	if key != "" {
		log.Debug("Archived raw provider reply", "key", key)
	}
}

func (s *planService) observe(result string) {
	if s.recorder != nil {
		s.recorder.ObserveGeneration(result)
	}
}

func (s *planService) GetPlan(ctx context.Context, credential string) (*domain.ProfileRecord, error) {
	subjectID, err := s.authenticate(ctx, credential)
	if err != nil {
		return nil, err
	}
	record, err := s.profileRepo.GetBySubjectID(ctx, subjectID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, fmt.Errorf("load profile: %w", err)
	}
	return record, nil
}
