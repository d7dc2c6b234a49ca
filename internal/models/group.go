package models

import "time"

// 聊天群
type Group struct {
	ID        uint   `gorm:"primaryKey"`
	CreatorID uint   // 群主用户ID
	GroupName string `gorm:"size:30"`
	Profile   string // 群简介
	Avatar    string
	MaxNum    int  // 最大成员数
	IsDismiss int8 // 是否已解散 0否 1是
	CreatedAt time.Time
	UpdatedAt time.Time
}

// 群成员关系
type GroupMember struct {
	ID        uint `gorm:"primaryKey"`
	GroupID   uint `gorm:"index:idx_group_user,unique"`
	UserID    uint `gorm:"index:idx_group_user,unique"`
	Leader    int8 // 0成员 1管理员 2群主
	UserCard  string
	IsQuit    int8 // 是否已退群 0否 1是
	CreatedAt time.Time
	UpdatedAt time.Time
}
