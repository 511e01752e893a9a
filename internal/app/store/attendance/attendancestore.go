// internal/app/store/attendance/attendancestore.go
package attendancestore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/eduledger/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrNotFound = errors.New("attendance record not found")
	// ErrDuplicate: a record for (group, student, date) already exists.
	ErrDuplicate = errors.New("attendance already recorded for this student and date")
	// ErrStale: the record changed between read and write; the caller's
	// view of its charge is out of date.
	ErrStale = errors.New("attendance record changed concurrently")
	// ErrSheetTaken: a strict sheet for (group, date) was already submitted.
	ErrSheetTaken = errors.New("attendance sheet already submitted for this group and date")
)

// Store owns the attendance collection. Each record is both an attendance
// cell and, through charged_amount, the lesson-charge entry of the ledger.
//
// attendance_sheets holds one claim per strict sheet, unique on
// (group_id, date).
type Store struct {
	c      *mongo.Collection
	sheets *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{
		c:      db.Collection("attendance"),
		sheets: db.Collection("attendance_sheets"),
	}
}

// WriteResult mirrors the counters of a Mongo bulk write.
type WriteResult struct {
	Matched  int64 `json:"matched"`
	Modified int64 `json:"modified"`
	Upserted int64 `json:"upserted"`
}

// Add accumulates o into r.
func (r *WriteResult) Add(o WriteResult) {
	r.Matched += o.Matched
	r.Modified += o.Modified
	r.Upserted += o.Upserted
}

// ItemError reports a failed row of a batch by its index in the input.
type ItemError struct {
	Index  int
	Reason string
	Err    error
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.AttendanceRecord, error) {
	var rec models.AttendanceRecord
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&rec); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.AttendanceRecord{}, ErrNotFound
		}
		return models.AttendanceRecord{}, err
	}
	return rec, nil
}

// ExistsForGroupDate reports whether any record exists for the group on date.
func (s *Store) ExistsForGroupDate(ctx context.Context, groupID primitive.ObjectID, date string) (bool, error) {
	err := s.c.FindOne(ctx, bson.M{"group_id": groupID, "date": date},
		options.FindOne().SetProjection(bson.M{"_id": 1})).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	return err == nil, err
}

// ClaimSheet records that submissionID owns the strict sheet of the group on
// date. Only one claim per (group, date) gets through the unique index, so
// two sheets with disjoint rosters cannot both land.
func (s *Store) ClaimSheet(ctx context.Context, groupID primitive.ObjectID, date, submissionID string) error {
	_, err := s.sheets.InsertOne(ctx, bson.M{
		"_id":           primitive.NewObjectID(),
		"group_id":      groupID,
		"date":          date,
		"submission_id": submissionID,
		"created_at":    time.Now().UTC(),
	})
	if err != nil && wafflemongo.IsDup(err) {
		return ErrSheetTaken
	}
	return err
}

// ReleaseSheet drops the sheet claim of the group on date once no record of
// that day is left.
func (s *Store) ReleaseSheet(ctx context.Context, groupID primitive.ObjectID, date string) error {
	left, err := s.ExistsForGroupDate(ctx, groupID, date)
	if err != nil || left {
		return err
	}
	_, err = s.sheets.DeleteOne(ctx, bson.M{"group_id": groupID, "date": date})
	return err
}

// FindForGroupDate returns the records of one group and day, keyed by student.
func (s *Store) FindForGroupDate(ctx context.Context, groupID primitive.ObjectID, date string) (map[primitive.ObjectID]models.AttendanceRecord, error) {
	recs, err := s.find(ctx, bson.M{"group_id": groupID, "date": date}, nil)
	if err != nil {
		return nil, err
	}
	out := make(map[primitive.ObjectID]models.AttendanceRecord, len(recs))
	for _, r := range recs {
		out[r.StudentID] = r
	}
	return out, nil
}

// ListByGroupRange returns a group's records with from <= date <= to
// (YYYY-MM-DD strings compare chronologically).
func (s *Store) ListByGroupRange(ctx context.Context, groupID primitive.ObjectID, from, to string) ([]models.AttendanceRecord, error) {
	return s.find(ctx,
		bson.M{"group_id": groupID, "date": bson.M{"$gte": from, "$lte": to}},
		options.Find().SetSort(bson.D{{Key: "date", Value: 1}, {Key: "student_id", Value: 1}}))
}

// InsertMany inserts a whole attendance sheet. Any row colliding with an
// existing (group, student, date) fails the call with ErrDuplicate.
func (s *Store) InsertMany(ctx context.Context, recs []models.AttendanceRecord) ([]models.AttendanceRecord, error) {
	now := time.Now().UTC()
	docs := make([]interface{}, len(recs))
	for i := range recs {
		recs[i].ID = primitive.NewObjectID()
		recs[i].CreatedAt = now
		recs[i].UpdatedAt = now
		docs[i] = recs[i]
	}
	if _, err := s.c.InsertMany(ctx, docs); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return recs, nil
}

// upsertModel builds a guarded upsert for rec. The filter pins the charge the
// caller believes the stored row carries (prevCharged, 0 for a new row).
// When the stored row carries a different charge the filter misses, the
// upsert tries to insert, and the unique index rejects it; the row is then
// reported stale instead of being charged twice.
func upsertModel(rec models.AttendanceRecord, prevCharged int64, now time.Time) (bson.M, bson.M) {
	filter := bson.M{
		"group_id":       rec.GroupID,
		"student_id":     rec.StudentID,
		"date":           rec.Date,
		"charged_amount": prevCharged,
	}
	update := bson.M{
		"$set": bson.M{
			"status":         rec.Status,
			"reason":         rec.Reason,
			"teacher_id":     rec.TeacherID,
			"charged_amount": rec.ChargedAmount,
			"submission_id":  rec.SubmissionID,
			"mode":           rec.Mode,
			"updated_at":     now,
		},
		"$setOnInsert": bson.M{
			"_id":        primitive.NewObjectID(),
			"created_at": now,
		},
	}
	return filter, update
}

// UpsertGuarded writes one record whose stored charge is expected to be
// prevCharged. Returns ErrStale when it is not.
func (s *Store) UpsertGuarded(ctx context.Context, rec models.AttendanceRecord, prevCharged int64) (WriteResult, error) {
	filter, update := upsertModel(rec, prevCharged, time.Now().UTC())
	res, err := s.c.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		if wafflemongo.IsDup(err) {
			return WriteResult{}, ErrStale
		}
		return WriteResult{}, err
	}
	return WriteResult{Matched: res.MatchedCount, Modified: res.ModifiedCount, Upserted: res.UpsertedCount}, nil
}

// UpsertSameCharge writes records whose charge does not change (each record's
// ChargedAmount is also its expected stored charge), in one unordered bulk
// write. Such rows need no balance update, so they do not need a
// transaction. Rows that lost a race are returned as ItemErrors with
// ErrStale; the others stay applied.
func (s *Store) UpsertSameCharge(ctx context.Context, recs []models.AttendanceRecord) (WriteResult, []ItemError, error) {
	if len(recs) == 0 {
		return WriteResult{}, nil, nil
	}
	now := time.Now().UTC()
	writes := make([]mongo.WriteModel, 0, len(recs))
	for _, rec := range recs {
		filter, update := upsertModel(rec, rec.ChargedAmount, now)
		writes = append(writes, mongo.NewUpdateOneModel().
			SetFilter(filter).
			SetUpdate(update).
			SetUpsert(true))
	}

	res, err := s.c.BulkWrite(ctx, writes, options.BulkWrite().SetOrdered(false))
	var out WriteResult
	if res != nil {
		out = WriteResult{Matched: res.MatchedCount, Modified: res.ModifiedCount, Upserted: res.UpsertedCount}
	}
	if err == nil {
		return out, nil, nil
	}

	var bulkErr mongo.BulkWriteException
	if !errors.As(err, &bulkErr) {
		return out, nil, err
	}
	var items []ItemError
	for _, we := range bulkErr.WriteErrors {
		item := ItemError{Index: we.Index, Reason: we.Message, Err: err}
		if we.Code == 11000 {
			item.Reason = ErrStale.Error()
			item.Err = ErrStale
		}
		items = append(items, item)
	}
	return out, items, nil
}

// Delete removes a record and returns it so the caller can reverse its charge.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (models.AttendanceRecord, error) {
	var rec models.AttendanceRecord
	if err := s.c.FindOneAndDelete(ctx, bson.M{"_id": id}).Decode(&rec); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.AttendanceRecord{}, ErrNotFound
		}
		return models.AttendanceRecord{}, err
	}
	return rec, nil
}

// SumChargedByStudent totals charged_amount over all of a student's records.
func (s *Store) SumChargedByStudent(ctx context.Context, studentID primitive.ObjectID) (int64, error) {
	return sumField(ctx, s.c, bson.M{"student_id": studentID}, "$charged_amount")
}

// SumChargedPerStudent totals charged_amount for every student with at least
// one record.
func (s *Store) SumChargedPerStudent(ctx context.Context) (map[primitive.ObjectID]int64, error) {
	return sumPerStudent(ctx, s.c, "$charged_amount")
}

func (s *Store) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.AttendanceRecord, error) {
	if opts == nil {
		opts = options.Find()
	}
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []models.AttendanceRecord{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func sumPerStudent(ctx context.Context, c *mongo.Collection, field string) (map[primitive.ObjectID]int64, error) {
	cur, err := c.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$group", Value: bson.M{"_id": "$student_id", "total": bson.M{"$sum": field}}}},
	})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := map[primitive.ObjectID]int64{}
	for cur.Next(ctx) {
		var row struct {
			ID    primitive.ObjectID `bson:"_id"`
			Total int64              `bson:"total"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		out[row.ID] = row.Total
	}
	return out, cur.Err()
}

func sumField(ctx context.Context, c *mongo.Collection, match bson.M, field string) (int64, error) {
	cur, err := c.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$group", Value: bson.M{"_id": nil, "total": bson.M{"$sum": field}}}},
	})
	if err != nil {
		return 0, err
	}
	defer cur.Close(ctx)
	var row struct {
		Total int64 `bson:"total"`
	}
	if cur.Next(ctx) {
		if err := cur.Decode(&row); err != nil {
			return 0, err
		}
	}
	return row.Total, cur.Err()
}
