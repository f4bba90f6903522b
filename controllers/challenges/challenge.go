package challenges

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"solfit/database"
	"solfit/middleware"
	"solfit/models"
	"solfit/utils"

	"github.com/gorilla/mux"
	"gorm.io/gorm"
)

type CreateChallengeRequest struct {
	Name         string   `json:"name" validate:"required,nameok"`
	Duration     int      `json:"duration"`
	Amount       int64    `json:"amount"`
	Steps        int64    `json:"steps"`
	StartTime    int64    `json:"start_time"`
	IsPrivate    bool     `json:"is_private"`
	GroupNumbers []string `json:"group_numbers"`
}

// CreateChallengeHandler POST /challenges
// Registers a new challenge owned by the caller. No funds move here; the pool
// fills as participants join.
func CreateChallengeHandler(w http.ResponseWriter, r *http.Request) {
	var req CreateChallengeRequest
	if err := middleware.ValidateJSON(w, r, &req); err != nil {
		return
	}

	uid, ok := utils.GetUserID(r)
	if !ok || uid == 0 {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{Success: false, Message: "Unauthorized"})
		return
	}

	db := database.DB

	// Resolve group member phone numbers to user IDs for private challenges.
	var memberIDs []uint
	if req.IsPrivate {
		numbers := make([]string, 0, len(req.GroupNumbers))
		for _, n := range req.GroupNumbers {
			if n = strings.TrimSpace(n); n != "" {
				numbers = append(numbers, n)
			}
		}
		var members []models.User
		if len(numbers) > 0 {
			if err := db.Where("number IN ?", numbers).Find(&members).Error; err != nil {
				log.Printf("[challenge/create] DB error resolving group: %v", err)
				utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Terjadi kesalahan sistem"})
				return
			}
		}
		if len(members) != len(numbers) {
			utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Beberapa nomor anggota grup belum terdaftar"})
			return
		}
		// Keep the order the creator supplied.
		byNumber := make(map[string]uint, len(members))
		for _, m := range members {
			byNumber[m.Number] = m.ID
		}
		for _, n := range numbers {
			memberIDs = append(memberIDs, byNumber[n])
		}
	}

	challenge, err := models.NewChallenge(uid, req.Name, req.Duration, req.Amount, req.Steps, req.StartTime, req.IsPrivate, memberIDs)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrCreatorNotInGroup):
			utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Pembuat tantangan harus termasuk dalam grup"})
		case errors.Is(err, models.ErrInsufficientGroupMembers):
			utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Grup privat minimal harus berisi 2 anggota"})
		default:
			utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Konfigurasi tantangan tidak valid"})
		}
		return
	}

	if err := db.Create(challenge).Error; err != nil {
		if strings.Contains(err.Error(), "Duplicate entry") {
			utils.WriteJSON(w, http.StatusConflict, utils.APIResponse{Success: false, Message: "Anda sudah memiliki tantangan dengan nama ini"})
			return
		}
		log.Printf("[challenge/create] DB error creating challenge: %v", err)
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Gagal membuat tantangan"})
		return
	}

	utils.WriteJSON(w, http.StatusCreated, utils.APIResponse{Success: true, Message: "Tantangan berhasil dibuat", Data: challenge})
}

// ListChallengesHandler GET /challenges
// Public challenges are visible to everyone; private ones only to their group.
func ListChallengesHandler(w http.ResponseWriter, r *http.Request) {
	uid, ok := utils.GetUserID(r)
	if !ok || uid == 0 {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{Success: false, Message: "Unauthorized"})
		return
	}

	db := database.DB

	var memberOf []uint
	if err := db.Model(&models.ChallengeMember{}).Where("user_id = ?", uid).Pluck("challenge_id", &memberOf).Error; err != nil {
		log.Printf("[challenge/list] DB error fetching memberships: %v", err)
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Terjadi kesalahan sistem"})
		return
	}

	var challenges []models.Challenge
	query := db.Preload("Members").Order("start_time DESC")
	if len(memberOf) > 0 {
		query = query.Where("is_private = ? OR id IN ? OR creator_id = ?", false, memberOf, uid)
	} else {
		query = query.Where("is_private = ? OR creator_id = ?", false, uid)
	}
	if err := query.Find(&challenges).Error; err != nil {
		log.Printf("[challenge/list] DB error: %v", err)
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Gagal mengambil daftar tantangan"})
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Successfully", Data: challenges})
}

type enrollmentItem struct {
	Challenge   models.Challenge   `json:"challenge"`
	Participant models.Participant `json:"participant"`
}

// ListMyChallengesHandler GET /users/challenges
// Returns every challenge the caller has staked into, with their progress.
func ListMyChallengesHandler(w http.ResponseWriter, r *http.Request) {
	uid, ok := utils.GetUserID(r)
	if !ok || uid == 0 {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{Success: false, Message: "Unauthorized"})
		return
	}

	db := database.DB

	var participants []models.Participant
	if err := db.Where("user_id = ?", uid).Order("created_at DESC").Find(&participants).Error; err != nil {
		log.Printf("[challenge/mine] DB error fetching participants: %v", err)
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Terjadi kesalahan sistem"})
		return
	}

	items := make([]enrollmentItem, 0, len(participants))
	if len(participants) > 0 {
		ids := make([]uint, 0, len(participants))
		for _, p := range participants {
			ids = append(ids, p.ChallengeID)
		}
		var challenges []models.Challenge
		if err := db.Where("id IN ?", ids).Find(&challenges).Error; err != nil {
			log.Printf("[challenge/mine] DB error fetching challenges: %v", err)
			utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Terjadi kesalahan sistem"})
			return
		}
		byID := make(map[uint]models.Challenge, len(challenges))
		for _, c := range challenges {
			byID[c.ID] = c
		}
		for _, p := range participants {
			if c, found := byID[p.ChallengeID]; found {
				items = append(items, enrollmentItem{Challenge: c, Participant: p})
			}
		}
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Successfully", Data: items})
}

// GetChallengeHandler GET /challenges/{id}
// Returns challenge details plus the caller's participant record when joined.
func GetChallengeHandler(w http.ResponseWriter, r *http.Request) {
	uid, ok := utils.GetUserID(r)
	if !ok || uid == 0 {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{Success: false, Message: "Unauthorized"})
		return
	}

	challenge, ok := loadChallenge(w, r)
	if !ok {
		return
	}

	if challenge.IsPrivate && !challenge.InGroup(uid) && challenge.CreatorID != uid {
		utils.WriteJSON(w, http.StatusForbidden, utils.APIResponse{Success: false, Message: "Tantangan ini bersifat privat"})
		return
	}

	data := map[string]interface{}{
		"challenge": challenge,
	}

	var participant models.Participant
	err := database.DB.Where("challenge_id = ? AND user_id = ?", challenge.ID, uid).First(&participant).Error
	if err == nil {
		data["participant"] = participant
		data["reward_estimate"] = challenge.RewardAmount()
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Printf("[challenge/get] DB error fetching participant: %v", err)
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Terjadi kesalahan sistem"})
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Successfully", Data: data})
}

// loadChallenge parses {id} and fetches the challenge with its group members.
func loadChallenge(w http.ResponseWriter, r *http.Request) (*models.Challenge, bool) {
	idStr := mux.Vars(r)["id"]
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil || id == 0 {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "ID tantangan tidak valid"})
		return nil, false
	}

	var challenge models.Challenge
	if err := database.DB.Preload("Members").First(&challenge, uint(id)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.WriteJSON(w, http.StatusNotFound, utils.APIResponse{Success: false, Message: "Tantangan tidak ditemukan"})
			return nil, false
		}
		log.Printf("[challenge] DB error fetching challenge %d: %v", id, err)
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Terjadi kesalahan sistem"})
		return nil, false
	}
	return &challenge, true
}
