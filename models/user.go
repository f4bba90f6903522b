package models

import "time"

type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Name         string    `gorm:"size:100;not null" json:"name"`
	Number       string    `gorm:"size:20;uniqueIndex;not null" json:"number"`
	Password     string    `gorm:"size:255;not null" json:"-"`
	Balance      int64     `gorm:"type:bigint;not null;default:0" json:"balance"`
	TotalStaked  int64     `gorm:"column:total_staked;type:bigint;not null;default:0" json:"total_staked"`
	TotalRewards int64     `gorm:"column:total_rewards;type:bigint;not null;default:0" json:"total_rewards"`
	Status       string    `gorm:"type:enum('Active','Inactive','Suspend');default:'Active'" json:"status"`
	Profile      *string   `gorm:"type:varchar(255);null" json:"profile,omitempty"`
	CreatedAt    time.Time `json:"-"`
	UpdatedAt    time.Time `json:"-"`
}

func (User) TableName() string {
	return "users"
}
