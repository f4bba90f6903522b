package challenges

import (
	"errors"
	"log"
	"net/http"
	"time"

	"solfit/database"
	"solfit/middleware"
	"solfit/models"
	"solfit/utils"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SyncRequest struct {
	ChallengeID uint   `json:"challenge_id"`
	Number      string `json:"number" validate:"required,phone8"`
	Steps       int64  `json:"steps"`
	Timestamp   int64  `json:"timestamp"`
}

// SyncHandler POST /oracle/sync
// Records one step-count observation for today's bucket on behalf of a user.
// Only the configured oracle may call this route; the signature check happens
// in middleware.OracleAuthMiddleware before the body reaches us. Day bucketing
// uses the server clock, not the oracle-supplied timestamp.
func SyncHandler(w http.ResponseWriter, r *http.Request) {
	var req SyncRequest
	if err := middleware.ValidateJSON(w, r, &req); err != nil {
		return
	}
	if req.ChallengeID == 0 {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "challenge_id wajib diisi"})
		return
	}
	if req.Steps < 0 {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Jumlah langkah tidak valid"})
		return
	}

	db := database.DB

	var user models.User
	if err := db.Where("number = ?", req.Number).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.WriteJSON(w, http.StatusNotFound, utils.APIResponse{Success: false, Message: "Pengguna tidak ditemukan"})
			return
		}
		log.Printf("[oracle/sync] DB error fetching user %s: %v", req.Number, err)
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Terjadi kesalahan sistem"})
		return
	}

	now := time.Now().Unix()
	var result models.SyncResult

	err := db.Transaction(func(tx *gorm.DB) error {
		var challenge models.Challenge
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Preload("Members").First(&challenge, req.ChallengeID).Error; err != nil {
			return err
		}
		var participant models.Participant
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("challenge_id = ? AND user_id = ?", challenge.ID, user.ID).
			First(&participant).Error; err != nil {
			return err
		}

		res, err := participant.RecordSteps(&challenge, req.Steps, now)
		if err != nil {
			return err
		}

		if err := tx.Model(&participant).Updates(map[string]interface{}{
			"history":        participant.History,
			"days_completed": participant.DaysCompleted,
			"completed":      participant.Completed,
		}).Error; err != nil {
			return err
		}

		if res.CompletedNow {
			if err := tx.Model(&challenge).
				Update("successful_participants", challenge.SuccessfulParticipants).Error; err != nil {
				return err
			}
		}

		result = res
		return nil
	})

	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			utils.WriteJSON(w, http.StatusNotFound, utils.APIResponse{Success: false, Message: "Peserta atau tantangan tidak ditemukan"})
		case errors.Is(err, models.ErrChallengeNotStarted):
			utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Tantangan belum dimulai"})
		case errors.Is(err, models.ErrChallengeEnded):
			utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Tantangan sudah berakhir"})
		case errors.Is(err, models.ErrNotInChallengeGroup):
			utils.WriteJSON(w, http.StatusForbidden, utils.APIResponse{Success: false, Message: "Pengguna bukan anggota grup tantangan"})
		default:
			log.Printf("[oracle/sync] transaction failed challenge=%d user=%d: %v", req.ChallengeID, user.ID, err)
			utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Gagal menyimpan data langkah"})
		}
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Data langkah tersimpan", Data: result})
}
