package model

import "time"

// User 参与者档案的只读投影，身份签发由外部服务负责。
// 本服务只读取展示名，不写入。
type User struct {
	ID          string `gorm:"primaryKey;type:varchar(36)"`
	Username    string `gorm:"uniqueIndex;size:64;not null"`
	Email       string `gorm:"uniqueIndex;size:128;not null"`
	DisplayName string `gorm:"size:128"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (User) TableName() string { return "users" }
