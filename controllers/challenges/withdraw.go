package challenges

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"solfit/database"
	"solfit/models"
	"solfit/utils"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// WithdrawHandler POST /challenges/{id}/withdraw
// Pays a completed participant their stake plus an equal share of forfeited
// stakes, exactly once. The balance credit, pool decrement and reward_taken
// flag commit atomically; a failed credit leaves the flag unset.
func WithdrawHandler(w http.ResponseWriter, r *http.Request) {
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
	var payout int64

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		var lockedChallenge models.Challenge
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Preload("Members").First(&lockedChallenge, challenge.ID).Error; err != nil {
			return err
		}
		var participant models.Participant
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("challenge_id = ? AND user_id = ?", lockedChallenge.ID, uid).
			First(&participant).Error; err != nil {
			return err
		}
		var lockedUser models.User
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&lockedUser, uid).Error; err != nil {
			return err
		}

		if err := participant.CanWithdraw(&lockedChallenge, uid, now); err != nil {
			return err
		}

		payout = lockedChallenge.RewardAmount()
		if payout > lockedChallenge.Pool {
			return fmt.Errorf("payout %d exceeds pool %d for challenge %d", payout, lockedChallenge.Pool, lockedChallenge.ID)
		}

		if err := tx.Model(&participant).Update("reward_taken", true).Error; err != nil {
			return err
		}
		if err := tx.Model(&lockedUser).Updates(map[string]interface{}{
			"balance":       lockedUser.Balance + payout,
			"total_rewards": lockedUser.TotalRewards + payout,
		}).Error; err != nil {
			return err
		}
		if err := tx.Model(&lockedChallenge).Update("pool", lockedChallenge.Pool-payout).Error; err != nil {
			return err
		}

		msg := fmt.Sprintf("Hadiah tantangan %s", lockedChallenge.Name)
		cid := lockedChallenge.ID
		trx := models.Transaction{
			UserID:          uid,
			ChallengeID:     &cid,
			Amount:          payout,
			OrderID:         utils.GenerateOrderID(uid),
			TransactionFlow: "credit",
			TransactionType: models.TxTypeReward,
			Message:         &msg,
			Status:          "Success",
		}
		return tx.Create(&trx).Error
	})

	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			utils.WriteJSON(w, http.StatusNotFound, utils.APIResponse{Success: false, Message: "Anda tidak terdaftar pada tantangan ini"})
		case errors.Is(err, models.ErrNotParticipantOwner), errors.Is(err, models.ErrNotInChallengeGroup):
			utils.WriteJSON(w, http.StatusForbidden, utils.APIResponse{Success: false, Message: "Anda tidak berhak menarik hadiah ini"})
		case errors.Is(err, models.ErrChallengeStillActive):
			utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Tantangan masih berlangsung, penarikan belum dibuka"})
		case errors.Is(err, models.ErrChallengeNotCompleted):
			utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Anda belum menyelesaikan tantangan ini"})
		case errors.Is(err, models.ErrRewardAlreadyWithdrawn):
			utils.WriteJSON(w, http.StatusConflict, utils.APIResponse{Success: false, Message: "Hadiah sudah pernah ditarik"})
		default:
			log.Printf("[challenge/withdraw] transaction failed user=%d challenge=%d: %v", uid, challenge.ID, err)
			utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Gagal menarik hadiah, silakan coba lagi"})
		}
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Hadiah berhasil ditarik",
		Data:    map[string]interface{}{"amount": payout},
	})
}
