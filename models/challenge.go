package models

import (
	"errors"
	"strings"
	"time"
)

// SecondsPerDay is the length of one challenge day bucket.
const SecondsPerDay int64 = 86400

// Domain errors for the challenge lifecycle. Controllers map these to HTTP
// statuses; the messages are internal (user-facing text lives in handlers).
var (
	ErrChallengeAlreadyStarted  = errors.New("challenge already started")
	ErrChallengeNotStarted      = errors.New("challenge not started yet")
	ErrChallengeEnded           = errors.New("challenge has ended")
	ErrChallengeStillActive     = errors.New("challenge still active")
	ErrChallengeNotCompleted    = errors.New("challenge not completed")
	ErrRewardAlreadyWithdrawn   = errors.New("reward already withdrawn")
	ErrNotInChallengeGroup      = errors.New("user not in challenge group")
	ErrCreatorNotInGroup        = errors.New("creator must be in group")
	ErrInsufficientGroupMembers = errors.New("group must have at least two members")
	ErrInsufficientBalance      = errors.New("insufficient_balance")
	ErrNotParticipantOwner      = errors.New("caller does not own participant")
	ErrInvalidChallengeConfig   = errors.New("invalid challenge configuration")
)

// Challenge is a time-boxed step commitment with a per-user stake. Amounts are
// stored in the smallest currency unit so pool arithmetic never rounds.
type Challenge struct {
	ID                     uint              `gorm:"primaryKey" json:"id"`
	CreatorID              uint              `gorm:"not null;index;uniqueIndex:idx_challenges_creator_name" json:"creator_id"`
	Name                   string            `gorm:"size:100;not null;uniqueIndex:idx_challenges_creator_name" json:"name"`
	Duration               int               `gorm:"not null" json:"duration"`
	Amount                 int64             `gorm:"type:bigint;not null" json:"amount"`
	Steps                  int64             `gorm:"not null" json:"steps"`
	StartTime              int64             `gorm:"not null;index" json:"start_time"`
	EndTime                int64             `gorm:"not null" json:"end_time"`
	TotalParticipants      int               `gorm:"not null;default:0" json:"total_participants"`
	SuccessfulParticipants int               `gorm:"not null;default:0" json:"successful_participants"`
	Pool                   int64             `gorm:"type:bigint;not null;default:0" json:"pool"`
	IsPrivate              bool              `gorm:"not null;default:false" json:"is_private"`
	Members                []ChallengeMember `gorm:"foreignKey:ChallengeID" json:"members,omitempty"`
	CreatedAt              time.Time         `json:"created_at"`
	UpdatedAt              time.Time         `json:"-"`
}

func (Challenge) TableName() string {
	return "challenges"
}

// ChallengeMember is one allow-listed identity of a private challenge. Position
// preserves the order the creator supplied.
type ChallengeMember struct {
	ID          uint `gorm:"primaryKey" json:"-"`
	ChallengeID uint `gorm:"not null;uniqueIndex:idx_members_challenge_user" json:"-"`
	UserID      uint `gorm:"not null;uniqueIndex:idx_members_challenge_user;index" json:"user_id"`
	Position    int  `gorm:"not null" json:"position"`
}

func (ChallengeMember) TableName() string {
	return "challenge_members"
}

// NewChallenge builds a challenge with derived end time and zeroed counters.
// No funds move at creation. Private challenges must list the creator and at
// least two members.
func NewChallenge(creatorID uint, name string, duration int, amount, steps, startTime int64, isPrivate bool, memberIDs []uint) (*Challenge, error) {
	name = strings.TrimSpace(name)
	if name == "" || duration <= 0 || amount <= 0 || steps <= 0 || startTime <= 0 {
		return nil, ErrInvalidChallengeConfig
	}

	if isPrivate {
		creatorInGroup := false
		for _, id := range memberIDs {
			if id == creatorID {
				creatorInGroup = true
				break
			}
		}
		if !creatorInGroup {
			return nil, ErrCreatorNotInGroup
		}
		if len(memberIDs) <= 1 {
			return nil, ErrInsufficientGroupMembers
		}
	}

	c := &Challenge{
		CreatorID: creatorID,
		Name:      name,
		Duration:  duration,
		Amount:    amount,
		Steps:     steps,
		StartTime: startTime,
		EndTime:   startTime + int64(duration)*SecondsPerDay,
		IsPrivate: isPrivate,
	}
	if isPrivate {
		for i, id := range memberIDs {
			c.Members = append(c.Members, ChallengeMember{UserID: id, Position: i})
		}
	}
	return c, nil
}

// InGroup reports whether the user may act on this challenge. Public
// challenges admit everyone; private ones require Members to be preloaded.
func (c *Challenge) InGroup(userID uint) bool {
	if !c.IsPrivate {
		return true
	}
	for _, m := range c.Members {
		if m.UserID == userID {
			return true
		}
	}
	return false
}

// CanJoin checks enrollment preconditions: joining closes at start_time and
// private challenges only admit group members.
func (c *Challenge) CanJoin(userID uint, now int64) error {
	if !c.InGroup(userID) {
		return ErrNotInChallengeGroup
	}
	if now >= c.StartTime {
		return ErrChallengeAlreadyStarted
	}
	return nil
}

// DayIndex returns the zero-based elapsed-day bucket for now. Callers must
// have already checked the [StartTime, EndTime] window.
func (c *Challenge) DayIndex(now int64) int {
	return int((now - c.StartTime) / SecondsPerDay)
}

// RewardAmount computes one successful participant's payout: their own stake
// plus an equal floor-divided share of all forfeited stakes. The division
// remainder stays in the pool permanently.
func (c *Challenge) RewardAmount() int64 {
	if c.SuccessfulParticipants == 0 {
		return 0
	}
	failed := int64(c.TotalParticipants - c.SuccessfulParticipants)
	extra := failed * c.Amount
	return c.Amount + extra/int64(c.SuccessfulParticipants)
}
