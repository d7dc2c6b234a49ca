package service

import (
	"context"
	"fmt"
	"time"

	"CamelliaIM/internal/models"
	"CamelliaIM/pkg/cache"

	lru "github.com/hashicorp/golang-lru/v2"
	"gorm.io/gorm"
)

const membershipCacheTTL = 2 * time.Minute

// GroupMemberService 群成员查询服务，连接建立时用于拉取用户所在群
type GroupMemberService struct {
	db *gorm.DB

	// 进程内有界缓存，避免每次握手都查库
	local *lru.Cache[uint, []string]

	// 可选的二级缓存（如Redis），为nil时只用本地缓存
	shared cache.Cache
}

// NewGroupMemberService 创建群成员服务
func NewGroupMemberService(db *gorm.DB, shared cache.Cache) (*GroupMemberService, error) {
	local, err := lru.New[uint, []string](4096)
	if err != nil {
		return nil, err
	}
	return &GroupMemberService{db: db, local: local, shared: shared}, nil
}

// ListGroupIDsForUser 查询用户加入的所有群ID（字符串形式，与房间ID一致）
func (s *GroupMemberService) ListGroupIDsForUser(ctx context.Context, userID uint) ([]string, error) {
	if ids, ok := s.local.Get(userID); ok {
		return ids, nil
	}

	if s.shared != nil {
		if v, ok := s.shared.Get(ctx, membershipKey(userID)); ok {
			if ids, ok := toStringSlice(v); ok {
				s.local.Add(userID, ids)
				return ids, nil
			}
		}
	}

	var groupIDs []uint
	err := s.db.WithContext(ctx).
		Model(&models.GroupMember{}).
		Where("user_id = ? AND is_quit = 0", userID).
		Pluck("group_id", &groupIDs).Error
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(groupIDs))
	for _, id := range groupIDs {
		ids = append(ids, GroupRoomID(id))
	}

	s.local.Add(userID, ids)
	if s.shared != nil {
		_ = s.shared.Set(ctx, membershipKey(userID), ids, membershipCacheTTL)
	}
	return ids, nil
}

// Invalidate 群成员变动后清除缓存（入群/退群事件处理方调用）
func (s *GroupMemberService) Invalidate(ctx context.Context, userID uint) {
	s.local.Remove(userID)
	if s.shared != nil {
		_ = s.shared.Delete(ctx, membershipKey(userID))
	}
}

// GroupRoomID 群ID到房间ID的统一编码
func GroupRoomID(groupID uint) string {
	return fmt.Sprintf("%d", groupID)
}

func membershipKey(userID uint) string {
	return fmt.Sprintf("im:user:%d:groups", userID)
}

func toStringSlice(v interface{}) ([]string, bool) {
	switch vv := v.(type) {
	case []string:
		return vv, true
	case []interface{}:
		out := make([]string, 0, len(vv))
		for _, item := range vv {
			s, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	}
	return nil, false
}
