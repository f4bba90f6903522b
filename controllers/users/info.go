package users

import (
	"errors"
	"net/http"
	"time"

	"solfit/database"
	"solfit/models"
	"solfit/utils"

	"gorm.io/gorm"
)

func InfoHandler(w http.ResponseWriter, r *http.Request) {
	// Auth middleware sets user ID in context; use that
	uid, ok := utils.GetUserID(r)
	if !ok || uid == 0 {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{Success: false, Message: "Unauthorized"})
		return
	}

	db := database.DB
	var user models.User
	if err := db.First(&user, uid).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.WriteJSON(w, http.StatusNotFound, utils.APIResponse{Success: false, Message: "User not found"})
			return
		}
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Database error"})
		return
	}

	now := time.Now().Unix()

	var activeChallenges int64
	db.Model(&models.Participant{}).
		Joins("JOIN challenges ON challenges.id = participants.challenge_id").
		Where("participants.user_id = ? AND challenges.end_time >= ?", user.ID, now).
		Count(&activeChallenges)

	var completedChallenges int64
	db.Model(&models.Participant{}).
		Where("user_id = ? AND completed = ?", user.ID, true).
		Count(&completedChallenges)

	var pendingRewards int64
	db.Model(&models.Participant{}).
		Joins("JOIN challenges ON challenges.id = participants.challenge_id").
		Where("participants.user_id = ? AND participants.completed = ? AND participants.reward_taken = ? AND challenges.end_time < ?", user.ID, true, false, now).
		Count(&pendingRewards)

	// Presign the avatar so clients never talk to the bucket directly
	var profileURL *string
	if user.Profile != nil && *user.Profile != "" {
		if url, err := utils.GenerateSignedURL(*user.Profile, 3600); err == nil {
			profileURL = &url
		}
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Succesfully",
		Data: map[string]interface{}{
			"user": map[string]interface{}{
				"name":          user.Name,
				"number":        user.Number,
				"balance":       user.Balance,
				"total_staked":  user.TotalStaked,
				"total_rewards": user.TotalRewards,
				"profile":       user.Profile,
				"profile_url":   profileURL,
			},
			"challenges": map[string]interface{}{
				"active":          activeChallenges,
				"completed":       completedChallenges,
				"pending_rewards": pendingRewards,
			},
		},
	})
}
