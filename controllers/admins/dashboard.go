package admins

import (
	"net/http"
	"strings"
	"time"

	"solfit/database"
	"solfit/models"
	"solfit/utils"
)

type DailyGrowth struct {
	Day   string `json:"day"`
	Count *int64 `json:"count"`
}

type DailyVolume struct {
	Day    string `json:"day"`
	Amount *int64 `json:"amount"`
}

type TransactionDetail struct {
	UserName  string    `json:"user_name"`
	Amount    int64     `json:"amount"`
	Type      string    `json:"type"`
	Message   *string   `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

type TypeTransactions struct {
	Stake      *int64 `json:"stake"`
	Reward     *int64 `json:"reward"`
	Adjustment *int64 `json:"adjustment"`
}

type DashboardStats struct {
	TotalUsers        int64               `json:"total_users"`
	ActiveUsers       int64               `json:"active_users"`
	GrowthUsers       []DailyGrowth       `json:"growth_users"`
	TotalChallenges   int64               `json:"total_challenges"`
	ActiveChallenges  int64               `json:"active_challenges"`
	PrivateChallenges int64               `json:"private_challenges"`
	TotalParticipants int64               `json:"total_participants"`
	CompletedCount    int64               `json:"completed_count"`
	LockedPool        int64               `json:"locked_pool"`
	OverviewStakes    []DailyVolume       `json:"overview_stakes"`
	TotalBalance      int64               `json:"total_balance"`
	TypeTransactions  TypeTransactions    `json:"type_transactions"`
	LastTransactions  []TransactionDetail `json:"last_transactions"`
}

func GetDashboardStats(w http.ResponseWriter, r *http.Request) {
	var stats DashboardStats
	db := database.DB
	now := time.Now().Unix()

	// initialize slices to ensure empty arrays are returned (not null)
	stats.GrowthUsers = make([]DailyGrowth, 0)
	stats.OverviewStakes = make([]DailyVolume, 0)
	stats.LastTransactions = make([]TransactionDetail, 0)

	// Get total users count
	db.Model(&models.User{}).Count(&stats.TotalUsers)

	// Get active users count
	db.Model(&models.User{}).
		Where("status = ?", "Active").
		Count(&stats.ActiveUsers)

	// Get growth users count by day (users created in the last 7 days)
	growthMap := map[string]int64{}
	rows, err := db.Model(&models.User{}).
		Select("DATE_FORMAT(created_at, '%W') as day, COUNT(*) as count").
		Where("created_at >= NOW() - INTERVAL 7 DAY").
		Group("DATE_FORMAT(created_at, '%W')").
		Rows()
	if err == nil {
		defer rows.Close()
		for rows.Next() {
			var day string
			var count int64
			if scanErr := rows.Scan(&day, &count); scanErr == nil {
				growthMap[strings.TrimSpace(day)] = count
			}
		}
	}
	// Build last 7 days list (from 6 days ago to today)
	for i := 6; i >= 0; i-- {
		d := time.Now().AddDate(0, 0, -i)
		dayName := d.Format("Monday")
		if val, ok := growthMap[dayName]; ok {
			v := val
			stats.GrowthUsers = append(stats.GrowthUsers, DailyGrowth{Day: dayName, Count: &v})
		} else {
			stats.GrowthUsers = append(stats.GrowthUsers, DailyGrowth{Day: dayName, Count: nil})
		}
	}

	// Challenge counters
	db.Model(&models.Challenge{}).Count(&stats.TotalChallenges)
	db.Model(&models.Challenge{}).
		Where("start_time <= ? AND end_time >= ?", now, now).
		Count(&stats.ActiveChallenges)
	db.Model(&models.Challenge{}).
		Where("is_private = ?", true).
		Count(&stats.PrivateChallenges)

	// Participant counters
	db.Model(&models.Participant{}).Count(&stats.TotalParticipants)
	db.Model(&models.Participant{}).
		Where("completed = ?", true).
		Count(&stats.CompletedCount)

	// Funds still locked in challenge pools
	db.Model(&models.Challenge{}).
		Select("COALESCE(SUM(pool), 0)").
		Scan(&stats.LockedPool)

	// Staked volume by day for the last 7 days
	stakeMap := map[string]int64{}
	rows, err = db.Model(&models.Transaction{}).
		Select("DATE_FORMAT(created_at, '%Y-%m-%d') as day, COALESCE(SUM(amount), 0) as amount").
		Where("transaction_type = ? AND status = ? AND created_at >= CURDATE() - INTERVAL 6 DAY", models.TxTypeStake, "Success").
		Group("DATE_FORMAT(created_at, '%Y-%m-%d')").
		Rows()
	if err == nil {
		defer rows.Close()
		for rows.Next() {
			var day string
			var amount int64
			if scanErr := rows.Scan(&day, &amount); scanErr == nil {
				stakeMap[strings.TrimSpace(day)] = amount
			}
		}
	}
	for i := 6; i >= 0; i-- {
		d := time.Now().AddDate(0, 0, -i)
		key := d.Format("2006-01-02")
		if val, ok := stakeMap[key]; ok {
			v := val
			stats.OverviewStakes = append(stats.OverviewStakes, DailyVolume{Day: key, Amount: &v})
		} else {
			stats.OverviewStakes = append(stats.OverviewStakes, DailyVolume{Day: key, Amount: nil})
		}
	}

	// Sum of all user balances
	db.Model(&models.User{}).
		Select("COALESCE(SUM(balance), 0)").
		Scan(&stats.TotalBalance)

	// Transaction counts per type
	countType := func(txType string) *int64 {
		var n int64
		db.Model(&models.Transaction{}).
			Where("transaction_type = ?", txType).
			Count(&n)
		return &n
	}
	stats.TypeTransactions = TypeTransactions{
		Stake:      countType(models.TxTypeStake),
		Reward:     countType(models.TxTypeReward),
		Adjustment: countType(models.TxTypeAdjustment),
	}

	// Last 10 transactions with user names
	rows, err = db.Model(&models.Transaction{}).
		Select("users.name, transactions.amount, transactions.transaction_type, transactions.message, transactions.created_at").
		Joins("JOIN users ON transactions.user_id = users.id").
		Order("transactions.id DESC").
		Limit(10).
		Rows()
	if err == nil {
		defer rows.Close()
		for rows.Next() {
			var detail TransactionDetail
			if scanErr := rows.Scan(&detail.UserName, &detail.Amount, &detail.Type, &detail.Message, &detail.CreatedAt); scanErr == nil {
				stats.LastTransactions = append(stats.LastTransactions, detail)
			}
		}
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Successfully",
		Data:    stats,
	})
}
