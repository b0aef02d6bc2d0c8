package repo

import (
	"errors"
	"time"

	"github.com/devdual/BattleRoomManagerService/internal/model"
	"gorm.io/gorm"
)

// AutoMigrate creates the durable match/submission tables.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&model.Match{}, &model.Submission{})
}

// MatchRepository persists the durable match rows in postgres.
type MatchRepository struct {
	db *gorm.DB
}

func NewMatchRepository(db *gorm.DB) *MatchRepository {
	return &MatchRepository{db: db}
}

func (r *MatchRepository) CreateMatch(match *model.Match) error {
	return r.db.Create(match).Error
}

func (r *MatchRepository) GetMatch(matchID string) (*model.Match, error) {
	var match model.Match
	if err := r.db.First(&match, "match_id = ?", matchID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &match, nil
}

// CompleteMatch finalizes an in-progress row. The status guard in the WHERE
// clause makes completion idempotent: the first finalizer wins, later calls
// report false.
func (r *MatchRepository) CompleteMatch(matchID string, winner model.WinnerRole, scoreHost, scoreChallenger int, endedAt time.Time) (bool, error) {
	res := r.db.Model(&model.Match{}).
		Where("match_id = ? AND status = ?", matchID, model.MatchInProgress).
		Updates(map[string]any{
			"status":           model.MatchCompleted,
			"winner":           winner,
			"score_host":       scoreHost,
			"score_challenger": scoreChallenger,
			"ended_at":         endedAt,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// SubmissionRepository appends to the immutable submission audit log. There
// is deliberately no update or delete here.
type SubmissionRepository struct {
	db *gorm.DB
}

func NewSubmissionRepository(db *gorm.DB) *SubmissionRepository {
	return &SubmissionRepository{db: db}
}

func (r *SubmissionRepository) Append(sub *model.Submission) error {
	return r.db.Create(sub).Error
}

func (r *SubmissionRepository) ListByMatch(matchID string) ([]model.Submission, error) {
	var subs []model.Submission
	err := r.db.Where("match_id = ?", matchID).
		Order("submitted_at DESC").
		Find(&subs).Error
	return subs, err
}

func (r *SubmissionRepository) ListByMatchUser(matchID, userID string) ([]model.Submission, error) {
	var subs []model.Submission
	err := r.db.Where("match_id = ? AND user_id = ?", matchID, userID).
		Order("submitted_at DESC").
		Find(&subs).Error
	return subs, err
}
