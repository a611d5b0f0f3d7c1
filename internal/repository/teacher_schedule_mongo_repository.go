package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/noah-isme/visit-builder-api/internal/models"
)

const (
	bellSchedulesCollection    = "bellschedules"
	teacherSchedulesCollection = "teacherschedules"
	mongoQueryTimeout          = 5 * time.Second
)

type timeBlockDoc struct {
	PeriodNumber int    `bson:"periodNumber"`
	StartTime    string `bson:"startTime"`
	EndTime      string `bson:"endTime"`
	PeriodName   string `bson:"periodName,omitempty"`
}

type bellScheduleDoc struct {
	ID         primitive.ObjectID `bson:"_id,omitempty"`
	SchoolID   string             `bson:"schoolId"`
	Name       string             `bson:"name"`
	DayIndices []int              `bson:"dayIndices"`
	TimeBlocks []timeBlockDoc     `bson:"timeBlocks"`
}

type periodAssignmentDoc struct {
	PeriodNumber int    `bson:"periodNumber"`
	ClassName    string `bson:"className"`
	Room         string `bson:"room"`
	ActivityType string `bson:"activityType"`
}

type teacherScheduleDoc struct {
	ID             primitive.ObjectID    `bson:"_id,omitempty"`
	TeacherID      string                `bson:"teacherId"`
	SchoolID       string                `bson:"schoolId"`
	BellScheduleID string                `bson:"bellScheduleId"`
	DayIndices     []int                 `bson:"dayIndices"`
	Assignments    []periodAssignmentDoc `bson:"assignments"`
}

// TeacherScheduleMongoRepository reads bell and teacher schedules from the document store.
type TeacherScheduleMongoRepository struct {
	bells    *mongo.Collection
	teachers *mongo.Collection
}

// NewTeacherScheduleMongoRepository binds the repository to its collections.
func NewTeacherScheduleMongoRepository(db *mongo.Database) *TeacherScheduleMongoRepository {
	return &TeacherScheduleMongoRepository{
		bells:    db.Collection(bellSchedulesCollection),
		teachers: db.Collection(teacherSchedulesCollection),
	}
}

// EnsureIndexes creates the lookup indexes used by the builder.
func (r *TeacherScheduleMongoRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if _, err := r.bells.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "schoolId", Value: 1}, {Key: "dayIndices", Value: 1}},
		Options: options.Index().SetName("school_day_idx"),
	}); err != nil {
		return fmt.Errorf("create bell schedule indexes: %w", err)
	}
	if _, err := r.teachers.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "teacherId", Value: 1}, {Key: "dayIndices", Value: 1}},
		Options: options.Index().SetName("teacher_day_idx"),
	}); err != nil {
		return fmt.Errorf("create teacher schedule indexes: %w", err)
	}
	return nil
}

// ListBellPeriods returns the school's bell periods for a weekday.
func (r *TeacherScheduleMongoRepository) ListBellPeriods(ctx context.Context, schoolID string, dayIndex int) ([]models.BellPeriod, error) {
	ctx, cancel := context.WithTimeout(ctx, mongoQueryTimeout)
	defer cancel()

	var doc bellScheduleDoc
	err := r.bells.FindOne(ctx, bson.M{"schoolId": schoolID, "dayIndices": dayIndex}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return []models.BellPeriod{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find bell schedule for school %s: %w", schoolID, err)
	}
	return bellPeriodsFromDoc(doc, dayIndex), nil
}

// ListTeacherBlocks returns the teacher's periods for a weekday joined with
// the bell schedule each teacher schedule follows.
func (r *TeacherScheduleMongoRepository) ListTeacherBlocks(ctx context.Context, teacherID string, dayIndex int) ([]models.TeacherScheduleBlock, error) {
	ctx, cancel := context.WithTimeout(ctx, mongoQueryTimeout)
	defer cancel()

	cursor, err := r.teachers.Find(ctx, bson.M{"teacherId": teacherID, "dayIndices": dayIndex})
	if err != nil {
		return nil, fmt.Errorf("find teacher schedules for %s: %w", teacherID, err)
	}
	defer cursor.Close(ctx)

	var schedules []teacherScheduleDoc
	if err := cursor.All(ctx, &schedules); err != nil {
		return nil, fmt.Errorf("decode teacher schedules for %s: %w", teacherID, err)
	}

	blocks := []models.TeacherScheduleBlock{}
	for _, schedule := range schedules {
		bell, err := r.findBellSchedule(ctx, schedule.BellScheduleID)
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, teacherBlocksFromDocs(schedule, bell, dayIndex)...)
	}
	sort.SliceStable(blocks, func(i, j int) bool { return blocks[i].StartTime < blocks[j].StartTime })
	return blocks, nil
}

func (r *TeacherScheduleMongoRepository) findBellSchedule(ctx context.Context, id string) (bellScheduleDoc, error) {
	var filter bson.M
	if oid, err := primitive.ObjectIDFromHex(id); err == nil {
		filter = bson.M{"_id": oid}
	} else {
		filter = bson.M{"_id": id}
	}
	var doc bellScheduleDoc
	if err := r.bells.FindOne(ctx, filter).Decode(&doc); err != nil {
		return bellScheduleDoc{}, fmt.Errorf("find bell schedule %s: %w", id, err)
	}
	return doc, nil
}

func bellPeriodsFromDoc(doc bellScheduleDoc, dayIndex int) []models.BellPeriod {
	periods := make([]models.BellPeriod, 0, len(doc.TimeBlocks))
	for _, block := range doc.TimeBlocks {
		periods = append(periods, models.BellPeriod{
			SchoolID:     doc.SchoolID,
			DayIndex:     dayIndex,
			PeriodNumber: block.PeriodNumber,
			StartTime:    block.StartTime,
			EndTime:      block.EndTime,
			PeriodName:   block.PeriodName,
		})
	}
	sort.Slice(periods, func(i, j int) bool { return periods[i].PeriodNumber < periods[j].PeriodNumber })
	return periods
}

// teacherBlocksFromDocs attaches bell times to assignments; assignments whose
// period is missing from the bell schedule are skipped.
func teacherBlocksFromDocs(schedule teacherScheduleDoc, bell bellScheduleDoc, dayIndex int) []models.TeacherScheduleBlock {
	times := make(map[int]timeBlockDoc, len(bell.TimeBlocks))
	for _, block := range bell.TimeBlocks {
		times[block.PeriodNumber] = block
	}
	blocks := make([]models.TeacherScheduleBlock, 0, len(schedule.Assignments))
	for _, assignment := range schedule.Assignments {
		block, ok := times[assignment.PeriodNumber]
		if !ok {
			continue
		}
		blocks = append(blocks, models.TeacherScheduleBlock{
			TeacherID:    schedule.TeacherID,
			SchoolID:     schedule.SchoolID,
			DayIndex:     dayIndex,
			PeriodNumber: assignment.PeriodNumber,
			ClassName:    assignment.ClassName,
			Room:         assignment.Room,
			ActivityType: models.ActivityType(assignment.ActivityType),
			StartTime:    block.StartTime,
			EndTime:      block.EndTime,
		})
	}
	return blocks
}
