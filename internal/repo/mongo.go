package repo

import (
	"context"
	"time"

	"github.com/devdual/BattleRoomManagerService/internal/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrNotFound is returned by every lookup and conditional operation here when
// no document matched, whatever the reason. Callers decide what that means.
var ErrNotFound = mongo.ErrNoDocuments

// IsDuplicateKey reports whether err is a unique-index violation, without
// callers having to know the driver's error shapes.
func IsDuplicateKey(err error) bool {
	return mongo.IsDuplicateKeyError(err)
}

// RoomRepository owns the rooms collection. Every status/opponent mutation is
// a single conditional find-and-modify; callers never read-then-write a room.
type RoomRepository struct {
	rooms *mongo.Collection
}

func NewRoomRepository(client *mongo.Client, dbName string) *RoomRepository {
	return &RoomRepository{
		rooms: client.Database(dbName).Collection("rooms"),
	}
}

// EnsureIndexes creates the unique roomId index backing token uniqueness.
func (r *RoomRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.rooms.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "roomId", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

func (r *RoomRepository) InsertRoom(ctx context.Context, room *model.Room) error {
	_, err := r.rooms.InsertOne(ctx, room)
	return err
}

func (r *RoomRepository) RoomIDExists(ctx context.Context, roomID string) (bool, error) {
	n, err := r.rooms.CountDocuments(ctx, bson.M{"roomId": roomID}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// GetRoom returns mongo.ErrNoDocuments when the room does not exist.
func (r *RoomRepository) GetRoom(ctx context.Context, roomID string) (*model.Room, error) {
	var room model.Room
	if err := r.rooms.FindOne(ctx, bson.M{"roomId": roomID}).Decode(&room); err != nil {
		return nil, err
	}
	return &room, nil
}

// ClaimRoom is the join arbiter's atomic step: bind opponentID and flip the
// room to active in one conditional update. The predicate rejects rooms that
// are gone, already claimed, not waiting, or hosted by the claimant; whichever
// reason applies, the result is the same ErrNoDocuments. Returns the
// post-update room on success.
func (r *RoomRepository) ClaimRoom(ctx context.Context, roomID, opponentID string) (*model.Room, error) {
	filter := bson.M{
		"roomId":   roomID,
		"status":   model.StatusWaiting,
		"opponent": nil,
		"host":     bson.M{"$ne": opponentID},
	}
	update := bson.M{
		"$set": bson.M{
			"opponent": opponentID,
			"status":   model.StatusActive,
		},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var room model.Room
	if err := r.rooms.FindOneAndUpdate(ctx, filter, update, opts).Decode(&room); err != nil {
		return nil, err
	}
	return &room, nil
}

// MarkStarted transitions active -> started for the host, re-stamping
// createdAt as the authoritative start time and binding the match id. The
// opponent predicate keeps a half-empty room from ever starting.
func (r *RoomRepository) MarkStarted(ctx context.Context, roomID, hostID, matchID string, startTime time.Time) (*model.Room, error) {
	filter := bson.M{
		"roomId":   roomID,
		"host":     hostID,
		"status":   model.StatusActive,
		"opponent": bson.M{"$ne": nil},
	}
	update := bson.M{
		"$set": bson.M{
			"status":    model.StatusStarted,
			"createdAt": startTime,
			"matchId":   matchID,
		},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var room model.Room
	if err := r.rooms.FindOneAndUpdate(ctx, filter, update, opts).Decode(&room); err != nil {
		return nil, err
	}
	return &room, nil
}

// DeleteRoomIfMember removes the room only when userID is the host or the
// bound opponent, returning the pre-delete document so the caller knows who
// to notify.
func (r *RoomRepository) DeleteRoomIfMember(ctx context.Context, roomID, userID string) (*model.Room, error) {
	filter := bson.M{
		"roomId": roomID,
		"$or":    []bson.M{{"host": userID}, {"opponent": userID}},
	}

	var room model.Room
	if err := r.rooms.FindOneAndDelete(ctx, filter).Decode(&room); err != nil {
		return nil, err
	}
	return &room, nil
}

// DeleteRoom removes the room unconditionally, returning the pre-delete
// document.
func (r *RoomRepository) DeleteRoom(ctx context.Context, roomID string) (*model.Room, error) {
	var room model.Room
	if err := r.rooms.FindOneAndDelete(ctx, bson.M{"roomId": roomID}).Decode(&room); err != nil {
		return nil, err
	}
	return &room, nil
}

// DeleteWaitingRoom reclaims an abandoned room, but only while it is still
// waiting. The status predicate makes the presence-driven cleanup safe against
// a join that lands between the membership recount and the delete.
func (r *RoomRepository) DeleteWaitingRoom(ctx context.Context, roomID string) (bool, error) {
	res, err := r.rooms.DeleteOne(ctx, bson.M{
		"roomId": roomID,
		"status": model.StatusWaiting,
	})
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}

// UserRepository is the read-only slice of the identity store the core needs.
type UserRepository struct {
	users *mongo.Collection
}

func NewUserRepository(client *mongo.Client, dbName string) *UserRepository {
	return &UserRepository{
		users: client.Database(dbName).Collection("users"),
	}
}

func (r *UserRepository) GetUser(ctx context.Context, userID string) (*model.User, error) {
	var user model.User
	if err := r.users.FindOne(ctx, bson.M{"_id": userID}).Decode(&user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) UserExists(ctx context.Context, userID string) (bool, error) {
	n, err := r.users.CountDocuments(ctx, bson.M{"_id": userID}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ProblemRepository resolves problem records for the submission pipeline.
type ProblemRepository struct {
	problems *mongo.Collection
}

func NewProblemRepository(client *mongo.Client, dbName string) *ProblemRepository {
	return &ProblemRepository{
		problems: client.Database(dbName).Collection("problems"),
	}
}

func (r *ProblemRepository) GetProblem(ctx context.Context, problemID string) (*model.Problem, error) {
	var problem model.Problem
	if err := r.problems.FindOne(ctx, bson.M{"_id": problemID}).Decode(&problem); err != nil {
		return nil, err
	}
	return &problem, nil
}
