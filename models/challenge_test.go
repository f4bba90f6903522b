package models

import (
	"errors"
	"testing"
)

const testStart int64 = 1_700_000_000

func testChallenge(duration int, amount, steps int64) *Challenge {
	c, err := NewChallenge(1, "jalan pagi", duration, amount, steps, testStart, false, nil)
	if err != nil {
		panic(err)
	}
	return c
}

func TestNewChallenge_DerivesEndTime(t *testing.T) {
	c := testChallenge(3, 100, 1000)
	if c.EndTime != testStart+3*SecondsPerDay {
		t.Fatalf("expected end time %d, got %d", testStart+3*SecondsPerDay, c.EndTime)
	}
	if c.TotalParticipants != 0 || c.SuccessfulParticipants != 0 || c.Pool != 0 {
		t.Fatalf("counters must start zeroed: %+v", c)
	}
}

func TestNewChallenge_RejectsBadConfig(t *testing.T) {
	cases := []struct {
		name     string
		duration int
		amount   int64
		steps    int64
	}{
		{"", 3, 100, 1000},
		{"x", 0, 100, 1000},
		{"x", 3, 0, 1000},
		{"x", 3, 100, 0},
	}
	for _, tc := range cases {
		if _, err := NewChallenge(1, tc.name, tc.duration, tc.amount, tc.steps, testStart, false, nil); !errors.Is(err, ErrInvalidChallengeConfig) {
			t.Fatalf("expected ErrInvalidChallengeConfig for %+v, got %v", tc, err)
		}
	}
}

func TestNewChallenge_PrivateNeedsCreatorInGroup(t *testing.T) {
	if _, err := NewChallenge(1, "grup", 3, 100, 1000, testStart, true, []uint{2, 3}); !errors.Is(err, ErrCreatorNotInGroup) {
		t.Fatalf("expected ErrCreatorNotInGroup, got %v", err)
	}
}

func TestNewChallenge_PrivateNeedsTwoMembers(t *testing.T) {
	// Scenario: group containing only the creator must be rejected.
	if _, err := NewChallenge(1, "grup", 3, 100, 1000, testStart, true, []uint{1}); !errors.Is(err, ErrInsufficientGroupMembers) {
		t.Fatalf("expected ErrInsufficientGroupMembers, got %v", err)
	}
}

func TestNewChallenge_PrivateKeepsMemberOrder(t *testing.T) {
	c, err := NewChallenge(1, "grup", 3, 100, 1000, testStart, true, []uint{1, 7, 4})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(c.Members) != 3 {
		t.Fatalf("expected 3 members, got %d", len(c.Members))
	}
	for i, want := range []uint{1, 7, 4} {
		if c.Members[i].UserID != want || c.Members[i].Position != i {
			t.Fatalf("member %d = %+v, want user %d at position %d", i, c.Members[i], want, i)
		}
	}
}

func TestCanJoin_BeforeStartOnly(t *testing.T) {
	c := testChallenge(3, 100, 1000)
	if err := c.CanJoin(9, testStart-1); err != nil {
		t.Fatalf("join before start should pass, got %v", err)
	}
	if err := c.CanJoin(9, testStart); !errors.Is(err, ErrChallengeAlreadyStarted) {
		t.Fatalf("join at start must fail with ErrChallengeAlreadyStarted, got %v", err)
	}
	if err := c.CanJoin(9, testStart+10); !errors.Is(err, ErrChallengeAlreadyStarted) {
		t.Fatalf("join after start must fail, got %v", err)
	}
}

func TestCanJoin_PrivateMembershipRequired(t *testing.T) {
	c, err := NewChallenge(1, "grup", 3, 100, 1000, testStart, true, []uint{1, 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := c.CanJoin(2, testStart-100); err != nil {
		t.Fatalf("member join should pass, got %v", err)
	}
	if err := c.CanJoin(5, testStart-100); !errors.Is(err, ErrNotInChallengeGroup) {
		t.Fatalf("non-member join must fail, got %v", err)
	}
}

func TestRewardAmount_SplitsForfeitedStakes(t *testing.T) {
	// Two participants, one completes: payout = 100 + floor(100/1) = 200.
	c := testChallenge(3, 100, 1000)
	c.TotalParticipants = 2
	c.SuccessfulParticipants = 1
	if got := c.RewardAmount(); got != 200 {
		t.Fatalf("expected payout 200, got %d", got)
	}
}

func TestRewardAmount_FloorDivisionLeavesRemainder(t *testing.T) {
	// 3 failed * 100 = 300 split over 2 winners -> 100 + 150 each, exact.
	c := testChallenge(3, 100, 1000)
	c.TotalParticipants = 5
	c.SuccessfulParticipants = 2
	if got := c.RewardAmount(); got != 250 {
		t.Fatalf("expected payout 250, got %d", got)
	}

	// 2 failed * 101 = 202 over 3 winners -> 101 + 67, remainder 1 locked.
	c = testChallenge(3, 101, 1000)
	c.TotalParticipants = 5
	c.SuccessfulParticipants = 3
	if got := c.RewardAmount(); got != 101+67 {
		t.Fatalf("expected payout %d, got %d", 101+67, got)
	}
}

func TestRewardAmount_ZeroSuccessfulFloor(t *testing.T) {
	c := testChallenge(3, 100, 1000)
	c.TotalParticipants = 4
	if got := c.RewardAmount(); got != 0 {
		t.Fatalf("expected defensive zero payout, got %d", got)
	}
}

func TestRewardAmount_ConservationNeverOverdrawsPool(t *testing.T) {
	// Sum of all payouts must never exceed amount * total_participants.
	for total := 1; total <= 12; total++ {
		for successful := 1; successful <= total; successful++ {
			c := testChallenge(3, 97, 1000)
			c.TotalParticipants = total
			c.SuccessfulParticipants = successful
			pool := c.Amount * int64(total)
			paid := c.RewardAmount() * int64(successful)
			if paid > pool {
				t.Fatalf("pool overdrawn: total=%d successful=%d pool=%d paid=%d", total, successful, pool, paid)
			}
		}
	}
}
