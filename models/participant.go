package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// StepHistory holds the last reported step sample per elapsed day, indexed by
// day offset. Days that were never reported stay 0. Stored as a JSON column so
// the participant row remains a single atomic record.
type StepHistory []int64

// Value implements driver.Valuer for GORM persistence.
func (h StepHistory) Value() (driver.Value, error) {
	if h == nil {
		return "[]", nil
	}
	b, err := json.Marshal(h)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner for GORM persistence.
func (h *StepHistory) Scan(value interface{}) error {
	if value == nil {
		*h = StepHistory{}
		return nil
	}
	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported step history type %T", value)
	}
	if len(raw) == 0 {
		*h = StepHistory{}
		return nil
	}
	return json.Unmarshal(raw, h)
}

// Participant is one user's enrollment and progress record within a challenge.
// Exactly one row exists per (challenge, user), enforced by a composite unique
// index.
type Participant struct {
	ID            uint        `gorm:"primaryKey" json:"id"`
	ChallengeID   uint        `gorm:"not null;uniqueIndex:idx_participants_challenge_user" json:"challenge_id"`
	UserID        uint        `gorm:"not null;uniqueIndex:idx_participants_challenge_user;index" json:"user_id"`
	History       StepHistory `gorm:"type:text;not null" json:"history"`
	DaysCompleted int         `gorm:"not null;default:0" json:"days_completed"`
	Completed     bool        `gorm:"not null;default:false" json:"completed"`
	RewardTaken   bool        `gorm:"not null;default:false" json:"reward_taken"`
	CreatedAt     time.Time   `json:"joined_at"`
	UpdatedAt     time.Time   `json:"-"`
}

func (Participant) TableName() string {
	return "participants"
}

// SyncResult describes the effect of one oracle progress report.
type SyncResult struct {
	Day          int   `json:"day"`
	Steps        int64 `json:"steps"`
	DayCompleted bool  `json:"day_completed"`
	CompletedNow bool  `json:"completed_now"`
}

// RecordSteps applies one oracle-reported sample to today's bucket and is the
// core lifecycle transition. A day counts toward completion exactly once, on
// the crossing from below-threshold to at-or-above-threshold against the value
// stored before this overwrite; repeated or lowered reports never double-count
// or un-count. When days_completed reaches the duration the Completed latch
// flips once and the challenge's successful counter is incremented once.
// Mutates p and possibly c; the caller persists both in one transaction.
func (p *Participant) RecordSteps(c *Challenge, steps int64, now int64) (SyncResult, error) {
	if !c.InGroup(p.UserID) {
		return SyncResult{}, ErrNotInChallengeGroup
	}
	if now < c.StartTime {
		return SyncResult{}, ErrChallengeNotStarted
	}
	if now > c.EndTime {
		return SyncResult{}, ErrChallengeEnded
	}
	if steps < 0 {
		return SyncResult{}, errors.New("steps must not be negative")
	}

	day := c.DayIndex(now)

	// Grow lazily so unreported days stay at zero.
	for len(p.History) <= day {
		p.History = append(p.History, 0)
	}

	previous := p.History[day]
	crossed := previous < c.Steps && steps >= c.Steps
	p.History[day] = steps

	if crossed {
		p.DaysCompleted++
	}

	completedNow := false
	if p.DaysCompleted >= c.Duration && !p.Completed {
		p.Completed = true
		c.SuccessfulParticipants++
		completedNow = true
	}

	return SyncResult{
		Day:          day,
		Steps:        steps,
		DayCompleted: crossed,
		CompletedNow: completedNow,
	}, nil
}

// CanWithdraw checks settlement preconditions: only the owner, only after the
// challenge window closed (this freezes the payout denominator), only when
// completed, and only once.
func (p *Participant) CanWithdraw(c *Challenge, callerID uint, now int64) error {
	if p.UserID != callerID {
		return ErrNotParticipantOwner
	}
	if !c.InGroup(p.UserID) {
		return ErrNotInChallengeGroup
	}
	if now <= c.EndTime {
		return ErrChallengeStillActive
	}
	if !p.Completed {
		return ErrChallengeNotCompleted
	}
	if p.RewardTaken {
		return ErrRewardAlreadyWithdrawn
	}
	return nil
}
