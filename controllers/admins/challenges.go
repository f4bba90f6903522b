package admins

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"solfit/database"
	"solfit/models"
	"solfit/utils"

	"github.com/gorilla/mux"
	"gorm.io/gorm"
)

type ChallengeResponse struct {
	ID                     uint   `json:"id"`
	Name                   string `json:"name"`
	CreatorID              uint   `json:"creator_id"`
	CreatorName            string `json:"creator_name"`
	Duration               int    `json:"duration"`
	Amount                 int64  `json:"amount"`
	Steps                  int64  `json:"steps"`
	StartTime              int64  `json:"start_time"`
	EndTime                int64  `json:"end_time"`
	TotalParticipants      int    `json:"total_participants"`
	SuccessfulParticipants int    `json:"successful_participants"`
	Pool                   int64  `json:"pool"`
	IsPrivate              bool   `json:"is_private"`
	CreatedAt              string `json:"created_at"`
}

func GetChallenges(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	status := r.URL.Query().Get("status")
	search := strings.TrimSpace(r.URL.Query().Get("search"))

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}

	offset := (page - 1) * limit
	now := time.Now().Unix()

	db := database.DB
	query := db.Model(&models.Challenge{})

	switch status {
	case "upcoming":
		query = query.Where("start_time > ?", now)
	case "active":
		query = query.Where("start_time <= ? AND end_time >= ?", now, now)
	case "ended":
		query = query.Where("end_time < ?", now)
	}
	if search != "" {
		query = query.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(search)+"%")
	}

	var challenges []models.Challenge
	query.Offset(offset).Limit(limit).Order("id DESC").Find(&challenges)

	// Batch-fetch creator names
	creatorIDsSet := make(map[uint]struct{})
	for _, c := range challenges {
		creatorIDsSet[c.CreatorID] = struct{}{}
	}
	var creatorIDs []uint
	for id := range creatorIDsSet {
		creatorIDs = append(creatorIDs, id)
	}
	creatorsByID := make(map[uint]models.User, len(creatorIDs))
	if len(creatorIDs) > 0 {
		var users []models.User
		db.Select("id, name").Where("id IN ?", creatorIDs).Find(&users)
		for _, u := range users {
			creatorsByID[u.ID] = u
		}
	}

	var response []ChallengeResponse
	for _, c := range challenges {
		response = append(response, ChallengeResponse{
			ID:                     c.ID,
			Name:                   c.Name,
			CreatorID:              c.CreatorID,
			CreatorName:            creatorsByID[c.CreatorID].Name,
			Duration:               c.Duration,
			Amount:                 c.Amount,
			Steps:                  c.Steps,
			StartTime:              c.StartTime,
			EndTime:                c.EndTime,
			TotalParticipants:      c.TotalParticipants,
			SuccessfulParticipants: c.SuccessfulParticipants,
			Pool:                   c.Pool,
			IsPrivate:              c.IsPrivate,
			CreatedAt:              c.CreatedAt.Format(time.RFC3339),
		})
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Successfully",
		Data:    response,
	})
}

func GetChallengeDetail(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id, err := strconv.ParseUint(vars["id"], 10, 32)
	if err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{
			Success: false,
			Message: "Challenge tidak valid",
		})
		return
	}

	db := database.DB
	var challenge models.Challenge
	if err := db.Preload("Members").First(&challenge, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.WriteJSON(w, http.StatusNotFound, utils.APIResponse{
				Success: false,
				Message: "Challenge tidak ditemukan",
			})
			return
		}
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{
			Success: false,
			Message: "Terjadi kesalahan sistem, silakan coba lagi",
		})
		return
	}

	var participants []models.Participant
	db.Where("challenge_id = ?", challenge.ID).Order("id ASC").Find(&participants)

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Successfully",
		Data: map[string]interface{}{
			"challenge":    challenge,
			"participants": participants,
		},
	})
}
