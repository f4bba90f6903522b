package challenges

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"solfit/database"
	"solfit/models"
	"solfit/utils"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// JoinChallengeHandler POST /challenges/{id}/join
// Enrolls the caller before start_time and moves their stake into the pool.
// The stake debit, participant creation and counter updates commit atomically;
// a failed debit leaves no trace.
func JoinChallengeHandler(w http.ResponseWriter, r *http.Request) {
	uid, ok := utils.GetUserID(r)
	if !ok || uid == 0 {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{Success: false, Message: "Unauthorized"})
		return
	}

	challenge, ok := loadChallenge(w, r)
	if !ok {
		return
	}

	now := time.Now().Unix()
	if err := challenge.CanJoin(uid, now); err != nil {
		switch {
		case errors.Is(err, models.ErrNotInChallengeGroup):
			utils.WriteJSON(w, http.StatusForbidden, utils.APIResponse{Success: false, Message: "Anda bukan anggota grup tantangan ini"})
		case errors.Is(err, models.ErrChallengeAlreadyStarted):
			utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Tantangan sudah dimulai, pendaftaran ditutup"})
		default:
			utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Tidak dapat bergabung"})
		}
		return
	}

	var participant models.Participant

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		// Lock user and challenge rows for the balance/counter updates.
		var lockedUser models.User
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&lockedUser, uid).Error; err != nil {
			return err
		}
		var lockedChallenge models.Challenge
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&lockedChallenge, challenge.ID).Error; err != nil {
			return err
		}

		// Re-check the join window under lock.
		if now >= lockedChallenge.StartTime {
			return models.ErrChallengeAlreadyStarted
		}
		if lockedUser.Balance < lockedChallenge.Amount {
			return models.ErrInsufficientBalance
		}

		participant = models.Participant{
			ChallengeID: lockedChallenge.ID,
			UserID:      uid,
			History:     models.StepHistory{},
		}
		if err := tx.Create(&participant).Error; err != nil {
			return err
		}

		if err := tx.Model(&lockedUser).Updates(map[string]interface{}{
			"balance":      lockedUser.Balance - lockedChallenge.Amount,
			"total_staked": lockedUser.TotalStaked + lockedChallenge.Amount,
		}).Error; err != nil {
			return err
		}

		if err := tx.Model(&lockedChallenge).Updates(map[string]interface{}{
			"total_participants": lockedChallenge.TotalParticipants + 1,
			"pool":               lockedChallenge.Pool + lockedChallenge.Amount,
		}).Error; err != nil {
			return err
		}

		msg := fmt.Sprintf("Stake tantangan %s", lockedChallenge.Name)
		cid := lockedChallenge.ID
		trx := models.Transaction{
			UserID:          uid,
			ChallengeID:     &cid,
			Amount:          lockedChallenge.Amount,
			OrderID:         utils.GenerateOrderID(uid),
			TransactionFlow: "debit",
			TransactionType: models.TxTypeStake,
			Message:         &msg,
			Status:          "Success",
		}
		return tx.Create(&trx).Error
	})

	if err != nil {
		switch {
		case errors.Is(err, models.ErrChallengeAlreadyStarted):
			utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Tantangan sudah dimulai, pendaftaran ditutup"})
		case errors.Is(err, models.ErrInsufficientBalance):
			utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Saldo Anda tidak mencukupi untuk stake tantangan ini"})
		case strings.Contains(err.Error(), "Duplicate entry"):
			utils.WriteJSON(w, http.StatusConflict, utils.APIResponse{Success: false, Message: "Anda sudah bergabung dengan tantangan ini"})
		default:
			log.Printf("[challenge/join] transaction failed user=%d challenge=%d: %v", uid, challenge.ID, err)
			utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Gagal bergabung, silakan coba lagi"})
		}
		return
	}

	utils.WriteJSON(w, http.StatusCreated, utils.APIResponse{Success: true, Message: "Berhasil bergabung dengan tantangan", Data: participant})
}
