package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/visit-builder-api/internal/builder"
	"github.com/noah-isme/visit-builder-api/internal/dto"
	"github.com/noah-isme/visit-builder-api/internal/models"
	appErrors "github.com/noah-isme/visit-builder-api/pkg/errors"
)

type commitmentProvider interface {
	FetchTeacherCommitments(ctx context.Context, teacherID, date string) ([]builder.Commitment, error)
	BellPeriods(ctx context.Context, schoolID, date string) ([]builder.BellPeriod, error)
}

type commitmentWarmer interface {
	Warm(date string, teacherIDs []string) int
}

// Actor is the authenticated caller of a builder operation.
type Actor struct {
	UserID string
	Role   models.UserRole
}

// ActorFromClaims builds an Actor from validated token claims.
func ActorFromClaims(claims *models.JWTClaims) Actor {
	if claims == nil {
		return Actor{}
	}
	return Actor{UserID: claims.UserID, Role: claims.Role}
}

func (a Actor) isAdmin() bool {
	return a.Role == models.RoleAdmin || a.Role == models.RoleSuperAdmin
}

func (a Actor) canAccess(coachID string) bool {
	return a.UserID != "" && (a.UserID == coachID || a.isAdmin())
}

// ScheduleBuilderConfig governs session lifetime and external call budgets.
type ScheduleBuilderConfig struct {
	SessionTTL    time.Duration
	CheckpointTTL time.Duration
	LookupTimeout time.Duration
	SaveTimeout   time.Duration
}

// ScheduleBuilderService hosts interactive visit builder sessions.
type ScheduleBuilderService struct {
	commitments commitmentProvider
	creator     builder.VisitCreator
	checkpoints CacheRepository
	metrics     *MetricsService
	validator   *validator.Validate
	logger      *zap.Logger
	cfg         ScheduleBuilderConfig
	warmer      commitmentWarmer
	store       *sessionStore
	now         func() time.Time
}

// NewScheduleBuilderService wires builder session dependencies.
func NewScheduleBuilderService(
	commitments commitmentProvider,
	creator builder.VisitCreator,
	checkpoints CacheRepository,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg ScheduleBuilderConfig,
) *ScheduleBuilderService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 2 * time.Hour
	}
	if cfg.CheckpointTTL <= 0 {
		cfg.CheckpointTTL = 72 * time.Hour
	}
	if cfg.LookupTimeout <= 0 {
		cfg.LookupTimeout = 3 * time.Second
	}
	if cfg.SaveTimeout <= 0 {
		cfg.SaveTimeout = 10 * time.Second
	}
	svc := &ScheduleBuilderService{
		commitments: commitments,
		creator:     creator,
		checkpoints: checkpoints,
		metrics:     metrics,
		validator:   validate,
		logger:      logger,
		cfg:         cfg,
		now:         time.Now,
	}
	svc.store = newSessionStore(cfg.SessionTTL, func() time.Time { return svc.now() }, func(sess *builderSession) {
		metrics.SessionClosed()
		logger.Debug("builder session evicted", zap.String("session_id", sess.id))
	})
	return svc
}

// WithWarmer preloads commitments for the teachers of every opened session.
func (s *ScheduleBuilderService) WithWarmer(w commitmentWarmer) *ScheduleBuilderService {
	s.warmer = w
	return s
}

// Open starts a session for the actor, or for req.CoachID when an admin opens
// on a coach's behalf. With req.Restore the stored checkpoint is loaded if any.
func (s *ScheduleBuilderService) Open(ctx context.Context, actor Actor, req dto.OpenSessionRequest) (*dto.SessionResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid session payload")
	}
	if actor.UserID == "" {
		return nil, appErrors.ErrUnauthorized
	}
	coachID := actor.UserID
	if req.CoachID != "" && req.CoachID != actor.UserID {
		if !actor.isAdmin() {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "cannot open a session for another coach")
		}
		coachID = req.CoachID
	}

	id := uuid.NewString()
	b, err := builder.New(builder.Config{
		SessionID: id,
		Date:      req.Date,
		School:    req.SchoolID,
		Coach:     coachID,
		Teachers:  req.TeacherIDs,
		Now:       s.now,
	}, s.lookupSource(), s.creator, s.logger)
	if err != nil {
		return nil, mapBuilderError(err)
	}

	restored := false
	if req.Restore {
		cp, found, err := s.loadCheckpoint(ctx, req.SchoolID, coachID, req.Date)
		if err != nil {
			return nil, err
		}
		if found {
			if err := b.Restore(cp); err != nil {
				return nil, mapBuilderError(err)
			}
			b.RegisterTeachers(req.TeacherIDs...)
			restored = true
		}
	}

	sess := &builderSession{id: id, coachID: coachID, builder: b}
	expiresAt := s.store.Save(sess)
	s.metrics.SessionOpened()
	if s.warmer != nil && len(req.TeacherIDs) > 0 {
		s.warmer.Warm(req.Date, req.TeacherIDs)
	}
	s.logger.Info("builder session opened",
		zap.String("session_id", id),
		zap.String("school_id", req.SchoolID),
		zap.String("coach_id", coachID),
		zap.String("date", req.Date),
		zap.Int("teachers", len(req.TeacherIDs)),
		zap.Bool("restored", restored))

	return &dto.SessionResponse{SessionID: id, ExpiresAt: expiresAt, Restored: restored, Snapshot: b.Snapshot()}, nil
}

// Snapshot returns the session's read-only state.
func (s *ScheduleBuilderService) Snapshot(ctx context.Context, actor Actor, sessionID string) (*builder.Snapshot, error) {
	return s.mutate(actor, sessionID, func(*builder.Builder) error { return nil })
}

// Close ends a session. Unsaved draft entries are dropped.
func (s *ScheduleBuilderService) Close(ctx context.Context, actor Actor, sessionID string) error {
	sess, err := s.session(actor, sessionID)
	if err != nil {
		return err
	}
	sess.mu.Lock()
	unsaved := sess.builder.HasUnsavedChanges()
	sess.mu.Unlock()
	s.store.Delete(sessionID)
	s.logger.Info("builder session closed", zap.String("session_id", sessionID), zap.Bool("had_unsaved_changes", unsaved))
	return nil
}

// Select adds a teacher to the selection.
func (s *ScheduleBuilderService) Select(ctx context.Context, actor Actor, sessionID string, req dto.TeacherRequest) (*builder.Snapshot, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid selection payload")
	}
	return s.mutate(actor, sessionID, func(b *builder.Builder) error {
		b.Select(req.TeacherID)
		return nil
	})
}

// Deselect removes a teacher from the selection.
func (s *ScheduleBuilderService) Deselect(ctx context.Context, actor Actor, sessionID, teacherID string) (*builder.Snapshot, error) {
	return s.mutate(actor, sessionID, func(b *builder.Builder) error {
		b.Deselect(teacherID)
		return nil
	})
}

// ToggleMultiSelect flips between single and multi selection.
func (s *ScheduleBuilderService) ToggleMultiSelect(ctx context.Context, actor Actor, sessionID string) (*builder.Snapshot, error) {
	return s.mutate(actor, sessionID, func(b *builder.Builder) error {
		b.ToggleMultiSelect()
		return nil
	})
}

// StartDragging attaches a teacher to the pointer.
func (s *ScheduleBuilderService) StartDragging(ctx context.Context, actor Actor, sessionID string, req dto.TeacherRequest) (*builder.Snapshot, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid drag payload")
	}
	return s.mutate(actor, sessionID, func(b *builder.Builder) error {
		if err := b.StartDragging(req.TeacherID); err != nil {
			return mapBuilderError(err)
		}
		return nil
	})
}

// StopDragging cancels the current drag.
func (s *ScheduleBuilderService) StopDragging(ctx context.Context, actor Actor, sessionID string) (*builder.Snapshot, error) {
	return s.mutate(actor, sessionID, func(b *builder.Builder) error {
		b.StopDragging()
		return nil
	})
}

// SetHover records the zone under the pointer; a nil zone clears it.
func (s *ScheduleBuilderService) SetHover(ctx context.Context, actor Actor, sessionID string, req dto.HoverRequest) (*builder.Snapshot, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid hover payload")
	}
	return s.mutate(actor, sessionID, func(b *builder.Builder) error {
		if req.Zone == nil {
			b.SetHoverZone(nil)
			return nil
		}
		zone, err := s.resolveZone(ctx, b.State(), *req.Zone)
		if err != nil {
			return err
		}
		b.SetHoverZone(&zone)
		return nil
	})
}

// Drop completes the active drag onto a zone.
func (s *ScheduleBuilderService) Drop(ctx context.Context, actor Actor, sessionID string, req dto.ZoneRequest) (*dto.DropResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid drop payload")
	}
	return s.place(ctx, actor, sessionID, req, func(b *builder.Builder, zone builder.DropZone) ([]builder.DropResult, error) {
		if b.Phase() != builder.PhaseDragging {
			return nil, appErrors.Clone(appErrors.ErrInvalidState, builder.ErrNotDragging.Error())
		}
		return []builder.DropResult{b.HandleDrop(ctx, zone)}, nil
	})
}

// Assign places one teacher, or every selected teacher, without a drag.
func (s *ScheduleBuilderService) Assign(ctx context.Context, actor Actor, sessionID string, req dto.AssignRequest) (*dto.DropResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assign payload")
	}
	return s.place(ctx, actor, sessionID, req.ZoneRequest, func(b *builder.Builder, zone builder.DropZone) ([]builder.DropResult, error) {
		if b.Phase() != builder.PhaseIdle {
			return nil, appErrors.Clone(appErrors.ErrInvalidState, builder.ErrDragInProgress.Error())
		}
		if req.TeacherID != "" {
			return []builder.DropResult{b.Assign(ctx, req.TeacherID, zone)}, nil
		}
		results := b.AssignSelected(ctx, zone)
		if len(results) == 0 {
			return nil, appErrors.Clone(appErrors.ErrValidation, "no teacher selected")
		}
		return results, nil
	})
}

// RemoveAssignment deletes one draft entry.
func (s *ScheduleBuilderService) RemoveAssignment(ctx context.Context, actor Actor, sessionID, teacherID, start, end string) (*builder.Snapshot, error) {
	slot, err := builder.NewTimeSlot(start, end)
	if err != nil {
		return nil, mapBuilderError(err)
	}
	return s.mutate(actor, sessionID, func(b *builder.Builder) error {
		if !b.RemoveAssignment(teacherID, slot) {
			return appErrors.Clone(appErrors.ErrNotFound, "draft assignment not found")
		}
		return nil
	})
}

// UpdatePurpose overrides the purpose of one draft entry.
func (s *ScheduleBuilderService) UpdatePurpose(ctx context.Context, actor Actor, sessionID, teacherID string, req dto.PurposeRequest) (*builder.AssignmentState, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid purpose payload")
	}
	slot, err := builder.NewTimeSlot(req.StartTime, req.EndTime)
	if err != nil {
		return nil, mapBuilderError(err)
	}
	var updated builder.AssignmentState
	_, err = s.mutate(actor, sessionID, func(b *builder.Builder) error {
		entry, ok := b.UpdateAssignmentPurpose(teacherID, slot, req.Purpose)
		if !ok {
			return appErrors.Clone(appErrors.ErrNotFound, "draft assignment not found")
		}
		updated = entry
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// Discard clears the draft without saving.
func (s *ScheduleBuilderService) Discard(ctx context.Context, actor Actor, sessionID string) (*dto.DiscardResponse, error) {
	var discarded int
	snap, err := s.mutate(actor, sessionID, func(b *builder.Builder) error {
		discarded = b.Discard()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &dto.DiscardResponse{Discarded: discarded, Snapshot: *snap}, nil
}

// Save persists the draft as planned visits. A failed save is reported in
// the result and leaves the draft in place for a retry.
func (s *ScheduleBuilderService) Save(ctx context.Context, actor Actor, sessionID string) (*dto.SaveResponse, error) {
	var result builder.SaveResult
	var state builder.BuilderState
	snap, err := s.mutate(actor, sessionID, func(b *builder.Builder) error {
		pending := len(b.State().DraftAssignments)
		saveCtx, cancel := context.WithTimeout(ctx, s.cfg.SaveTimeout)
		defer cancel()

		start := time.Now()
		result = b.SaveState(saveCtx)
		elapsed := time.Since(start)
		state = b.State()

		switch {
		case pending == 0:
			s.metrics.RecordSave(OutcomeNoop, elapsed)
		case result.Success:
			s.metrics.RecordSave(OutcomeSaved, elapsed)
			s.logger.Info("builder draft saved",
				zap.String("session_id", sessionID),
				zap.Int("visits", len(result.Created)),
				zap.Duration("duration", elapsed))
		default:
			s.metrics.RecordSave(OutcomeFailed, elapsed)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if result.Success && len(result.Created) > 0 && s.checkpoints != nil {
		key := checkpointKey(state.School, state.Coach, state.Date)
		if err := s.checkpoints.Delete(ctx, key); err != nil {
			s.logger.Warn("failed to drop stale checkpoint", zap.String("key", key), zap.Error(err))
		}
	}
	return &dto.SaveResponse{Result: result, Snapshot: *snap}, nil
}

// Checkpoint stores the draft so it can be restored in a later session.
func (s *ScheduleBuilderService) Checkpoint(ctx context.Context, actor Actor, sessionID string) (*dto.CheckpointResponse, error) {
	if s.checkpoints == nil {
		return nil, appErrors.Clone(appErrors.ErrUpstream, "checkpoint store unavailable")
	}
	var cp builder.Checkpoint
	if _, err := s.mutate(actor, sessionID, func(b *builder.Builder) error {
		cp = b.Checkpoint()
		return nil
	}); err != nil {
		return nil, err
	}
	key := checkpointKey(cp.School, cp.Coach, cp.Date)
	if err := s.checkpoints.Set(ctx, key, cp, s.cfg.CheckpointTTL); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "failed to store checkpoint")
	}
	return &dto.CheckpointResponse{
		Key:       key,
		TakenAt:   cp.TakenAt,
		Entries:   len(cp.DraftAssignments),
		ExpiresAt: cp.TakenAt.Add(s.cfg.CheckpointTTL),
	}, nil
}

// Restore replaces the session's draft with its stored checkpoint.
func (s *ScheduleBuilderService) Restore(ctx context.Context, actor Actor, sessionID string) (*builder.Snapshot, error) {
	sess, err := s.session(actor, sessionID)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	state := sess.builder.State()
	cp, found, err := s.loadCheckpoint(ctx, state.School, state.Coach, state.Date)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "no checkpoint stored for this session")
	}
	if err := sess.builder.Restore(cp); err != nil {
		return nil, mapBuilderError(err)
	}
	snap := sess.builder.Snapshot()
	return &snap, nil
}

// Accountability returns per-teacher coverage.
func (s *ScheduleBuilderService) Accountability(ctx context.Context, actor Actor, sessionID string) (*dto.AccountabilityResponse, error) {
	snap, err := s.Snapshot(ctx, actor, sessionID)
	if err != nil {
		return nil, err
	}
	return &dto.AccountabilityResponse{Teachers: snap.State.Accountability, Coverage: snap.Coverage}, nil
}

// SweepExpired drops idle sessions.
func (s *ScheduleBuilderService) SweepExpired() int {
	return s.store.Sweep()
}

// RunJanitor sweeps expired sessions every interval until ctx is done.
func (s *ScheduleBuilderService) RunJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.SweepExpired(); n > 0 {
				s.logger.Info("expired builder sessions swept", zap.Int("count", n))
			}
		}
	}
}

func (s *ScheduleBuilderService) session(actor Actor, sessionID string) (*builderSession, error) {
	sess, err := s.store.Get(sessionID)
	if err != nil {
		return nil, err
	}
	if !actor.canAccess(sess.coachID) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "session belongs to another coach")
	}
	return sess, nil
}

// mutate runs fn under the session lock and returns the resulting snapshot.
func (s *ScheduleBuilderService) mutate(actor Actor, sessionID string, fn func(*builder.Builder) error) (*builder.Snapshot, error) {
	sess, err := s.session(actor, sessionID)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if err := fn(sess.builder); err != nil {
		return nil, err
	}
	snap := sess.builder.Snapshot()
	return &snap, nil
}

func (s *ScheduleBuilderService) place(
	ctx context.Context,
	actor Actor,
	sessionID string,
	req dto.ZoneRequest,
	run func(*builder.Builder, builder.DropZone) ([]builder.DropResult, error),
) (*dto.DropResponse, error) {
	var results []builder.DropResult
	snap, err := s.mutate(actor, sessionID, func(b *builder.Builder) error {
		zone, err := s.resolveZone(ctx, b.State(), req)
		if err != nil {
			return err
		}
		results, err = run(b, zone)
		return err
	})
	if err != nil {
		return nil, err
	}
	for _, result := range results {
		switch {
		case result.Success:
			s.metrics.RecordDrop(OutcomeCommitted)
		case result.HasConflicts:
			s.metrics.RecordDrop(OutcomeConflict)
		default:
			s.metrics.RecordDrop(OutcomeFailed)
		}
	}
	return &dto.DropResponse{Results: results, Snapshot: *snap}, nil
}

// resolveZone turns a request into a drop zone, deriving the slot from the
// school's bell schedule when only a period is given.
func (s *ScheduleBuilderService) resolveZone(ctx context.Context, state builder.BuilderState, req dto.ZoneRequest) (builder.DropZone, error) {
	var (
		slot builder.TimeSlot
		err  error
	)
	if req.StartTime != "" {
		slot, err = builder.NewPeriodTimeSlot(req.StartTime, req.EndTime, req.PeriodNumber)
	} else {
		portion := builder.Portion(req.Portion)
		if portion == "" {
			portion = builder.PortionFull
		}
		var periods []builder.BellPeriod
		periods, err = s.bellPeriods(ctx, state.School, state.Date)
		if err != nil {
			return builder.DropZone{}, err
		}
		slot, err = builder.SlotForPeriod(periods, req.PeriodNumber, portion)
	}
	if err != nil {
		return builder.DropZone{}, mapBuilderError(err)
	}
	zone, err := builder.NewDropZone(builder.AssignmentType(req.Zone), slot)
	if err != nil {
		return builder.DropZone{}, mapBuilderError(err)
	}
	return zone, nil
}

func (s *ScheduleBuilderService) bellPeriods(ctx context.Context, schoolID, date string) ([]builder.BellPeriod, error) {
	if s.commitments == nil {
		return nil, nil
	}
	lookupCtx, cancel := context.WithTimeout(ctx, s.cfg.LookupTimeout)
	defer cancel()
	return s.commitments.BellPeriods(lookupCtx, schoolID, date)
}

// lookupSource bounds each commitment lookup by LookupTimeout.
func (s *ScheduleBuilderService) lookupSource() builder.CommitmentSource {
	if s.commitments == nil {
		return nil
	}
	return builder.CommitmentSourceFunc(func(ctx context.Context, teacherID, date string) ([]builder.Commitment, error) {
		lookupCtx, cancel := context.WithTimeout(ctx, s.cfg.LookupTimeout)
		defer cancel()
		return s.commitments.FetchTeacherCommitments(lookupCtx, teacherID, date)
	})
}

func (s *ScheduleBuilderService) loadCheckpoint(ctx context.Context, school, coach, date string) (builder.Checkpoint, bool, error) {
	var cp builder.Checkpoint
	if s.checkpoints == nil {
		return cp, false, nil
	}
	err := s.checkpoints.Get(ctx, checkpointKey(school, coach, date), &cp)
	switch {
	case err == nil:
		return cp, true, nil
	case errors.Is(err, appErrors.ErrCacheMiss):
		return cp, false, nil
	default:
		return cp, false, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "failed to load checkpoint")
	}
}

func checkpointKey(school, coach, date string) string {
	return fmt.Sprintf("builder:checkpoint:%s:%s:%s", school, coach, date)
}

// mapBuilderError translates core sentinels into HTTP-aware errors.
func mapBuilderError(err error) error {
	var appErr *appErrors.Error
	switch {
	case err == nil:
		return nil
	case errors.As(err, &appErr):
		return appErr
	case errors.Is(err, builder.ErrInvalidTimeSlot),
		errors.Is(err, builder.ErrInvalidAssignmentType),
		errors.Is(err, builder.ErrInvalidPortion),
		errors.Is(err, builder.ErrInvalidDate),
		errors.Is(err, builder.ErrEmptyTeacherID):
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	case errors.Is(err, builder.ErrUnknownPeriod):
		return appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, err.Error())
	case errors.Is(err, builder.ErrCheckpointMismatch):
		return appErrors.Wrap(err, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, err.Error())
	case errors.Is(err, builder.ErrNotDragging), errors.Is(err, builder.ErrDragInProgress):
		return appErrors.Wrap(err, appErrors.ErrInvalidState.Code, appErrors.ErrInvalidState.Status, err.Error())
	default:
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}
}
