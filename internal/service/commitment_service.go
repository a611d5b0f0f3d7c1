package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/visit-builder-api/internal/builder"
	"github.com/noah-isme/visit-builder-api/internal/models"
	appErrors "github.com/noah-isme/visit-builder-api/pkg/errors"
)

// Commitment kinds reported alongside teacher schedule activities.
const CommitmentKindPlannedVisit = "planned_visit"

// TeacherScheduleReader reads bell periods and teacher schedule blocks for a weekday.
type TeacherScheduleReader interface {
	ListBellPeriods(ctx context.Context, schoolID string, dayIndex int) ([]models.BellPeriod, error)
	ListTeacherBlocks(ctx context.Context, teacherID string, dayIndex int) ([]models.TeacherScheduleBlock, error)
}

type plannedVisitReader interface {
	ListByTeacherAndDate(ctx context.Context, teacherID string, date time.Time) ([]models.PlannedVisit, error)
}

// CommitmentConfig governs commitment lookups.
type CommitmentConfig struct {
	Source             string
	CacheTTL           time.Duration
	BlockingActivities []string
}

// CommitmentService resolves what a teacher is already committed to on a date:
// blocking schedule activities plus visits persisted by any coach.
type CommitmentService struct {
	schedules TeacherScheduleReader
	visits    plannedVisitReader
	cache     *CacheService
	metrics   *MetricsService
	logger    *zap.Logger
	source    string
	ttl       time.Duration
	blocking  map[models.ActivityType]struct{}
}

// NewCommitmentService wires commitment dependencies.
func NewCommitmentService(schedules TeacherScheduleReader, visits plannedVisitReader, cache *CacheService, metrics *MetricsService, logger *zap.Logger, cfg CommitmentConfig) *CommitmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	if cfg.Source == "" {
		cfg.Source = "postgres"
	}
	blocking := make(map[models.ActivityType]struct{}, len(cfg.BlockingActivities))
	for _, activity := range cfg.BlockingActivities {
		if activity = strings.ToLower(strings.TrimSpace(activity)); activity != "" {
			blocking[models.ActivityType(activity)] = struct{}{}
		}
	}
	return &CommitmentService{
		schedules: schedules,
		visits:    visits,
		cache:     cache,
		metrics:   metrics,
		logger:    logger,
		source:    cfg.Source,
		ttl:       cfg.CacheTTL,
		blocking:  blocking,
	}
}

// FetchTeacherCommitments implements builder.CommitmentSource.
func (s *CommitmentService) FetchTeacherCommitments(ctx context.Context, teacherID, date string) ([]builder.Commitment, error) {
	day, err := time.Parse(builder.DateLayout, date)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid date")
	}

	key := commitmentCacheKey(date, teacherID)
	var cached []builder.Commitment
	if s.cache.Get(ctx, key, &cached) {
		return cached, nil
	}

	start := time.Now()
	commitments, err := s.load(ctx, teacherID, day)
	s.metrics.ObserveCommitmentLookup(s.source, time.Since(start))
	if err != nil {
		return nil, err
	}

	_ = s.cache.Set(ctx, key, commitments, s.ttl)
	return commitments, nil
}

// BellPeriods returns the school's bell schedule for the weekday of date.
func (s *CommitmentService) BellPeriods(ctx context.Context, schoolID, date string) ([]builder.BellPeriod, error) {
	day, err := time.Parse(builder.DateLayout, date)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid date")
	}
	dayIndex := models.DayIndex(day)
	if dayIndex < 0 || s.schedules == nil {
		return nil, nil
	}
	rows, err := s.schedules.ListBellPeriods(ctx, schoolID, dayIndex)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "failed to load bell schedule")
	}
	periods := make([]builder.BellPeriod, 0, len(rows))
	for _, row := range rows {
		periods = append(periods, builder.BellPeriod{Number: row.PeriodNumber, Start: row.StartTime, End: row.EndTime, Name: row.PeriodName})
	}
	return periods, nil
}

// InvalidateTeacherDate drops cached commitments for the given teachers.
func (s *CommitmentService) InvalidateTeacherDate(ctx context.Context, date string, teacherIDs ...string) {
	if len(teacherIDs) == 0 {
		return
	}
	keys := make([]string, 0, len(teacherIDs))
	for _, id := range teacherIDs {
		keys = append(keys, commitmentCacheKey(date, id))
	}
	_ = s.cache.Invalidate(ctx, keys...)
}

func (s *CommitmentService) load(ctx context.Context, teacherID string, day time.Time) ([]builder.Commitment, error) {
	commitments := make([]builder.Commitment, 0)

	if dayIndex := models.DayIndex(day); dayIndex >= 0 && s.schedules != nil {
		blocks, err := s.schedules.ListTeacherBlocks(ctx, teacherID, dayIndex)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "failed to load teacher schedule")
		}
		for _, block := range blocks {
			if _, ok := s.blocking[block.ActivityType]; !ok {
				continue
			}
			slot, err := builder.NewPeriodTimeSlot(block.StartTime, block.EndTime, block.PeriodNumber)
			if err != nil {
				s.logger.Warn("skipping malformed schedule block",
					zap.String("teacher_id", teacherID),
					zap.Int("period_number", block.PeriodNumber),
					zap.Error(err))
				continue
			}
			commitments = append(commitments, builder.Commitment{
				ID:          fmt.Sprintf("period-%d", block.PeriodNumber),
				TimeSlot:    slot,
				Kind:        string(block.ActivityType),
				Description: describeBlock(block),
			})
		}
	}

	if s.visits != nil {
		visits, err := s.visits.ListByTeacherAndDate(ctx, teacherID, day)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "failed to load planned visits")
		}
		for _, visit := range visits {
			period := 0
			if visit.PeriodNumber != nil {
				period = *visit.PeriodNumber
			}
			slot, err := builder.NewPeriodTimeSlot(visit.StartTime, visit.EndTime, period)
			if err != nil {
				s.logger.Warn("skipping malformed planned visit", zap.String("visit_id", visit.ID), zap.Error(err))
				continue
			}
			commitments = append(commitments, builder.Commitment{
				ID:          visit.ID,
				TimeSlot:    slot,
				Kind:        CommitmentKindPlannedVisit,
				Description: describeVisit(visit),
			})
		}
	}

	sort.SliceStable(commitments, func(i, j int) bool {
		return commitments[i].TimeSlot.Start() < commitments[j].TimeSlot.Start()
	})
	return commitments, nil
}

func commitmentCacheKey(date, teacherID string) string {
	return fmt.Sprintf("commitments:%s:%s", date, teacherID)
}

func describeBlock(block models.TeacherScheduleBlock) string {
	label := strings.ToUpper(string(block.ActivityType[:1])) + string(block.ActivityType[1:])
	if block.Room != "" {
		return fmt.Sprintf("%s (%s)", label, block.Room)
	}
	return label
}

func describeVisit(visit models.PlannedVisit) string {
	label := builder.AssignmentType(visit.AssignmentType).Label()
	if label == "" {
		label = visit.AssignmentType
	}
	return fmt.Sprintf("%s planned by %s", label, visit.CoachID)
}
