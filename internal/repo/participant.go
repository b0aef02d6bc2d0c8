package repo

import (
	"context"
	"time"

	"github.com/devdual/BattleRoomManagerService/internal/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ParticipantRepository owns the per-(match,user) progress documents. Writes
// are expressed as conditional updates with status predicates so rapid
// repeated submissions from one user cannot double-award or move a problem
// backward.
type ParticipantRepository struct {
	participants *mongo.Collection
}

func NewParticipantRepository(client *mongo.Client, dbName string) *ParticipantRepository {
	return &ParticipantRepository{
		participants: client.Database(dbName).Collection("match_participants"),
	}
}

func (r *ParticipantRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.participants.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "matchId", Value: 1}, {Key: "userId", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

// CreateForMatch inserts the progress documents for all players of a match,
// with one entry per problem already in place.
func (r *ParticipantRepository) CreateForMatch(ctx context.Context, matchID string, userIDs, problemIDs []string) error {
	now := time.Now()
	docs := make([]interface{}, 0, len(userIDs))
	for _, uid := range userIDs {
		progress := make([]model.ProblemProgress, 0, len(problemIDs))
		for _, pid := range problemIDs {
			progress = append(progress, model.ProblemProgress{
				ProblemID: pid,
				Status:    model.ProblemNotAttempted,
			})
		}
		docs = append(docs, &model.MatchParticipant{
			UserID:    uid,
			MatchID:   matchID,
			Problems:  progress,
			Status:    model.ParticipantActive,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}

	_, err := r.participants.InsertMany(ctx, docs)
	return err
}

func (r *ParticipantRepository) Get(ctx context.Context, matchID, userID string) (*model.MatchParticipant, error) {
	var p model.MatchParticipant
	err := r.participants.FindOne(ctx, bson.M{"matchId": matchID, "userId": userID}).Decode(&p)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ParticipantRepository) ListByMatch(ctx context.Context, matchID string) ([]model.MatchParticipant, error) {
	cursor, err := r.participants.Find(ctx, bson.M{"matchId": matchID},
		options.Find().SetSort(bson.D{{Key: "userId", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var results []model.MatchParticipant
	if err := cursor.All(ctx, &results); err != nil {
		return nil, err
	}
	return results, nil
}

// EnsureProgressEntry appends a not_attempted entry for problemID if the
// participant does not have one yet. A no-op when the entry exists.
func (r *ParticipantRepository) EnsureProgressEntry(ctx context.Context, matchID, userID, problemID string) error {
	filter := bson.M{
		"matchId":            matchID,
		"userId":             userID,
		"problems.problemId": bson.M{"$ne": problemID},
	}
	update := bson.M{
		"$push": bson.M{"problems": model.ProblemProgress{
			ProblemID: problemID,
			Status:    model.ProblemNotAttempted,
		}},
	}
	_, err := r.participants.UpdateOne(ctx, filter, update)
	return err
}

// RecordAttempt bumps the attempt counter and stamps the submission time on
// the matching progress entry.
func (r *ParticipantRepository) RecordAttempt(ctx context.Context, matchID, userID, problemID string, at time.Time) error {
	filter := bson.M{
		"matchId":            matchID,
		"userId":             userID,
		"problems.problemId": problemID,
	}
	update := bson.M{
		"$inc": bson.M{"problems.$.attempts": 1},
		"$set": bson.M{
			"problems.$.lastSubmissionTime": at,
			"updatedAt":                     at,
		},
	}
	_, err := r.participants.UpdateOne(ctx, filter, update)
	return err
}

// MarkSolved flips the entry to solved and awards the score, but only if it
// is not solved already. The $elemMatch predicate keeps the award at-most-once
// under concurrent duplicate passes. Reports whether this call won the award.
func (r *ParticipantRepository) MarkSolved(ctx context.Context, matchID, userID, problemID string, award int, elapsedMillis int64, at time.Time) (bool, error) {
	filter := bson.M{
		"matchId": matchID,
		"userId":  userID,
		"problems": bson.M{"$elemMatch": bson.M{
			"problemId": problemID,
			"status":    bson.M{"$ne": model.ProblemSolved},
		}},
	}
	update := bson.M{
		"$set": bson.M{
			"problems.$.status":    model.ProblemSolved,
			"problems.$.bestScore": award,
			"totalTime":            elapsedMillis,
			"updatedAt":            at,
		},
		"$inc": bson.M{"totalScore": award},
	}

	res, err := r.participants.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount > 0, nil
}

// MarkAttempted moves not_attempted -> attempted. Entries already attempted
// or solved are left alone; status never moves backward.
func (r *ParticipantRepository) MarkAttempted(ctx context.Context, matchID, userID, problemID string, at time.Time) error {
	filter := bson.M{
		"matchId": matchID,
		"userId":  userID,
		"problems": bson.M{"$elemMatch": bson.M{
			"problemId": problemID,
			"status":    model.ProblemNotAttempted,
		}},
	}
	update := bson.M{
		"$set": bson.M{
			"problems.$.status": model.ProblemAttempted,
			"updatedAt":         at,
		},
	}
	_, err := r.participants.UpdateOne(ctx, filter, update)
	return err
}

// FinalizeRanks stamps rank and completed status on each participant once the
// finalizer has ordered them.
func (r *ParticipantRepository) FinalizeRanks(ctx context.Context, matchID string, ranks map[string]int) error {
	now := time.Now()
	for userID, rank := range ranks {
		_, err := r.participants.UpdateOne(ctx,
			bson.M{"matchId": matchID, "userId": userID},
			bson.M{"$set": bson.M{
				"rank":      rank,
				"status":    model.ParticipantCompleted,
				"updatedAt": now,
			}},
		)
		if err != nil {
			return err
		}
	}
	return nil
}
