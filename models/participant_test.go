package models

import (
	"errors"
	"testing"
)

func testParticipant(c *Challenge, userID uint) *Participant {
	return &Participant{ChallengeID: c.ID, UserID: userID, History: StepHistory{}}
}

func mustRecord(t *testing.T, p *Participant, c *Challenge, steps, now int64) SyncResult {
	t.Helper()
	res, err := p.RecordSteps(c, steps, now)
	if err != nil {
		t.Fatalf("RecordSteps(%d) failed: %v", steps, err)
	}
	return res
}

func TestRecordSteps_WindowChecks(t *testing.T) {
	c := testChallenge(3, 100, 1000)
	p := testParticipant(c, 9)

	if _, err := p.RecordSteps(c, 1200, testStart-1); !errors.Is(err, ErrChallengeNotStarted) {
		t.Fatalf("expected ErrChallengeNotStarted, got %v", err)
	}
	if _, err := p.RecordSteps(c, 1200, c.EndTime+1); !errors.Is(err, ErrChallengeEnded) {
		t.Fatalf("expected ErrChallengeEnded, got %v", err)
	}
	// Window is inclusive on both edges.
	if _, err := p.RecordSteps(c, 500, testStart); err != nil {
		t.Fatalf("report at start_time should pass, got %v", err)
	}
	if _, err := p.RecordSteps(c, 500, c.EndTime); err != nil {
		t.Fatalf("report at end_time should pass, got %v", err)
	}
}

func TestRecordSteps_PrivateGroupEnforced(t *testing.T) {
	c, err := NewChallenge(1, "grup", 3, 100, 1000, testStart, true, []uint{1, 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	p := testParticipant(c, 5)
	if _, err := p.RecordSteps(c, 1200, testStart); !errors.Is(err, ErrNotInChallengeGroup) {
		t.Fatalf("expected ErrNotInChallengeGroup, got %v", err)
	}
}

// Full three-day completion walkthrough: the first report of day 0 stays below
// the threshold, the re-sync crosses it, then days 1 and 2 cross directly.
func TestRecordSteps_CompletionScenario(t *testing.T) {
	c := testChallenge(3, 100, 1000)
	p := testParticipant(c, 9)

	res := mustRecord(t, p, c, 500, testStart)
	if res.DayCompleted || p.DaysCompleted != 0 {
		t.Fatalf("below-threshold report must not count: %+v", res)
	}

	res = mustRecord(t, p, c, 1200, testStart+100)
	if !res.DayCompleted || p.DaysCompleted != 1 {
		t.Fatalf("crossing report must count day 0: %+v days=%d", res, p.DaysCompleted)
	}

	res = mustRecord(t, p, c, 1200, testStart+SecondsPerDay)
	if !res.DayCompleted || p.DaysCompleted != 2 {
		t.Fatalf("day 1 must count: %+v days=%d", res, p.DaysCompleted)
	}
	if res.CompletedNow || p.Completed {
		t.Fatalf("must not complete after 2 of 3 days")
	}

	res = mustRecord(t, p, c, 1200, testStart+2*SecondsPerDay)
	if !res.CompletedNow || !p.Completed {
		t.Fatalf("must complete after 3 of 3 days: %+v", res)
	}
	if c.SuccessfulParticipants != 1 {
		t.Fatalf("successful counter = %d, want 1", c.SuccessfulParticipants)
	}
}

func TestRecordSteps_SameDayReportsCountOnce(t *testing.T) {
	c := testChallenge(3, 100, 1000)
	p := testParticipant(c, 9)

	mustRecord(t, p, c, 1500, testStart)
	res := mustRecord(t, p, c, 1500, testStart+3600)
	if res.DayCompleted {
		t.Fatalf("repeated above-threshold report must not double-count")
	}
	if p.DaysCompleted != 1 {
		t.Fatalf("days completed = %d, want 1", p.DaysCompleted)
	}
}

func TestRecordSteps_LoweredSampleDoesNotUncount(t *testing.T) {
	c := testChallenge(3, 100, 1000)
	p := testParticipant(c, 9)

	mustRecord(t, p, c, 1500, testStart)
	// Device re-sync reports a lower value; the crossing already happened.
	res := mustRecord(t, p, c, 400, testStart+7200)
	if res.DayCompleted || p.DaysCompleted != 1 {
		t.Fatalf("lowered sample must not change the tally: %+v days=%d", res, p.DaysCompleted)
	}
	if p.History[0] != 400 {
		t.Fatalf("last write must win: history[0]=%d", p.History[0])
	}
	// A later report above threshold is a fresh crossing against the lowered
	// stored value, so it tallies again.
	res = mustRecord(t, p, c, 1600, testStart+10000)
	if !res.DayCompleted {
		t.Fatalf("expected crossing edge after drop below threshold")
	}
	if p.DaysCompleted != 2 {
		t.Fatalf("days completed = %d after re-cross, want 2", p.DaysCompleted)
	}
}

func TestRecordSteps_SkippedDaysDefaultToZero(t *testing.T) {
	c := testChallenge(5, 100, 1000)
	p := testParticipant(c, 9)

	// First report lands on day 3; days 0-2 stay zero.
	res := mustRecord(t, p, c, 1200, testStart+3*SecondsPerDay+50)
	if res.Day != 3 {
		t.Fatalf("expected day 3, got %d", res.Day)
	}
	if len(p.History) != 4 {
		t.Fatalf("history length = %d, want 4", len(p.History))
	}
	for i := 0; i < 3; i++ {
		if p.History[i] != 0 {
			t.Fatalf("skipped day %d must stay zero, got %d", i, p.History[i])
		}
	}
	if p.DaysCompleted != 1 {
		t.Fatalf("days completed = %d, want 1", p.DaysCompleted)
	}
}

func TestRecordSteps_CompletionLatchFiresOnce(t *testing.T) {
	c := testChallenge(2, 100, 1000)
	p := testParticipant(c, 9)

	mustRecord(t, p, c, 1200, testStart)
	res := mustRecord(t, p, c, 1200, testStart+SecondsPerDay)
	if !res.CompletedNow || c.SuccessfulParticipants != 1 {
		t.Fatalf("expected completion on day 2: %+v successful=%d", res, c.SuccessfulParticipants)
	}

	// Further syncs after completion must never bump the counter again.
	res = mustRecord(t, p, c, 300, testStart+SecondsPerDay+100)
	if res.CompletedNow {
		t.Fatalf("latch fired twice")
	}
	mustRecord(t, p, c, 2000, testStart+SecondsPerDay+200)
	if c.SuccessfulParticipants != 1 {
		t.Fatalf("successful counter = %d after extra syncs, want 1", c.SuccessfulParticipants)
	}
}

func TestRecordSteps_MonotonicCounters(t *testing.T) {
	c := testChallenge(3, 100, 1000)
	p := testParticipant(c, 9)

	lastDays := 0
	samples := []int64{500, 1200, 100, 900, 1300, 0, 1000}
	for i, s := range samples {
		mustRecord(t, p, c, s, testStart+int64(i)*3600)
		if p.DaysCompleted < lastDays {
			t.Fatalf("days_completed decreased: %d -> %d", lastDays, p.DaysCompleted)
		}
		lastDays = p.DaysCompleted
	}
}

func TestCanWithdraw_Preconditions(t *testing.T) {
	c := testChallenge(2, 100, 1000)
	c.TotalParticipants = 2
	p := testParticipant(c, 9)
	p.Completed = true
	c.SuccessfulParticipants = 1

	if err := p.CanWithdraw(c, 7, c.EndTime+1); !errors.Is(err, ErrNotParticipantOwner) {
		t.Fatalf("expected ErrNotParticipantOwner, got %v", err)
	}
	if err := p.CanWithdraw(c, 9, c.EndTime); !errors.Is(err, ErrChallengeStillActive) {
		t.Fatalf("withdraw at end_time must fail, got %v", err)
	}
	if err := p.CanWithdraw(c, 9, c.EndTime+1); err != nil {
		t.Fatalf("withdraw after end_time should pass, got %v", err)
	}

	p.RewardTaken = true
	if err := p.CanWithdraw(c, 9, c.EndTime+1); !errors.Is(err, ErrRewardAlreadyWithdrawn) {
		t.Fatalf("second withdraw must fail, got %v", err)
	}

	p.RewardTaken = false
	p.Completed = false
	if err := p.CanWithdraw(c, 9, c.EndTime+1); !errors.Is(err, ErrChallengeNotCompleted) {
		t.Fatalf("incomplete participant must fail, got %v", err)
	}
}

// Full lifecycle with three stakers: everyone joins, two complete, one gives
// up. The simulated pool mirrors the handler counter updates (join adds the
// stake, withdraw subtracts the payout) and must hold amount*total until the
// first withdrawal, then keep the floor-division remainder locked forever.
func TestChallengeLifecycle_PoolConservation(t *testing.T) {
	c := testChallenge(2, 101, 1000)

	users := []uint{9, 10, 11}
	participants := make([]*Participant, len(users))
	var pool int64
	for i, uid := range users {
		if err := c.CanJoin(uid, testStart-100); err != nil {
			t.Fatalf("user %d join: %v", uid, err)
		}
		participants[i] = testParticipant(c, uid)
		c.TotalParticipants++
		pool += c.Amount
	}
	if pool != c.Amount*int64(c.TotalParticipants) {
		t.Fatalf("pool after joins = %d, want %d", pool, c.Amount*int64(c.TotalParticipants))
	}

	// Users 9 and 10 cross the threshold both days; user 11 stops after day 0.
	for day := int64(0); day < 2; day++ {
		now := testStart + day*SecondsPerDay
		mustRecord(t, participants[0], c, 1500, now)
		mustRecord(t, participants[1], c, 1200, now)
		if day == 0 {
			mustRecord(t, participants[2], c, 1100, now)
		}
		if pool != c.Amount*int64(c.TotalParticipants) {
			t.Fatalf("day %d: syncing must not move funds, pool = %d", day, pool)
		}
	}
	if c.SuccessfulParticipants != 2 {
		t.Fatalf("successful = %d, want 2", c.SuccessfulParticipants)
	}

	// One forfeited stake of 101 split two ways floors to 50 each.
	after := c.EndTime + 1
	wantPayout := c.Amount + (c.Amount*1)/2
	for _, i := range []int{0, 1} {
		p := participants[i]
		if err := p.CanWithdraw(c, p.UserID, after); err != nil {
			t.Fatalf("user %d withdraw: %v", p.UserID, err)
		}
		payout := c.RewardAmount()
		if payout != wantPayout {
			t.Fatalf("payout = %d, want %d", payout, wantPayout)
		}
		if payout > pool {
			t.Fatalf("payout %d overdraws pool %d", payout, pool)
		}
		pool -= payout
		p.RewardTaken = true
	}

	if err := participants[2].CanWithdraw(c, participants[2].UserID, after); !errors.Is(err, ErrChallengeNotCompleted) {
		t.Fatalf("failed participant must not withdraw, got %v", err)
	}
	if err := participants[0].CanWithdraw(c, participants[0].UserID, after); !errors.Is(err, ErrRewardAlreadyWithdrawn) {
		t.Fatalf("second withdraw must fail, got %v", err)
	}

	// 303 staked, 302 paid out: the odd unit stays locked.
	if pool != 1 {
		t.Fatalf("locked remainder = %d, want 1", pool)
	}
}

func TestStepHistory_ScanValueRoundTrip(t *testing.T) {
	h := StepHistory{0, 1200, 0, 800}
	v, err := h.Value()
	if err != nil {
		t.Fatalf("Value failed: %v", err)
	}
	var got StepHistory
	if err := got.Scan(v); err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if len(got) != len(h) {
		t.Fatalf("round trip length %d, want %d", len(got), len(h))
	}
	for i := range h {
		if got[i] != h[i] {
			t.Fatalf("round trip [%d]=%d, want %d", i, got[i], h[i])
		}
	}

	var empty StepHistory
	if err := empty.Scan(nil); err != nil || len(empty) != 0 {
		t.Fatalf("nil scan: %v len=%d", err, len(empty))
	}
}
