package models

import "time"

// 用户账号
type User struct {
	ID        uint   `gorm:"primaryKey"`
	Mobile    string `gorm:"size:11;uniqueIndex"`
	Nickname  string `gorm:"size:30"`
	Avatar    string
	Gender    int8 // 0未知 1男 2女
	Motto     string
	Password  string
	CreatedAt time.Time
	UpdatedAt time.Time
}
