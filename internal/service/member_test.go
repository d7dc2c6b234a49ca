package service

import (
	"context"
	"path/filepath"
	"testing"

	"CamelliaIM/internal/models"
	"CamelliaIM/pkg/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "test.db")
	db, err := util.OpenDatabase(&gorm.Config{}, "sqlite", dsn)
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Group{}, &models.GroupMember{}))
	return db
}

func seedMember(t *testing.T, db *gorm.DB, groupID, userID uint, isQuit int8) {
	t.Helper()
	require.NoError(t, db.Create(&models.GroupMember{
		GroupID: groupID,
		UserID:  userID,
		IsQuit:  isQuit,
	}).Error)
}

func TestListGroupIDsForUser(t *testing.T) {
	db := newTestDB(t)
	svc, err := NewGroupMemberService(db, nil)
	require.NoError(t, err)

	seedMember(t, db, 10, 1, 0)
	seedMember(t, db, 11, 1, 0)
	seedMember(t, db, 12, 1, 1) // 已退群，不应返回
	seedMember(t, db, 10, 2, 0)

	ctx := context.Background()
	ids, err := svc.ListGroupIDsForUser(ctx, 1)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"10", "11"}, ids)

	ids, err = svc.ListGroupIDsForUser(ctx, 3)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestListGroupIDsCached(t *testing.T) {
	db := newTestDB(t)
	svc, err := NewGroupMemberService(db, nil)
	require.NoError(t, err)

	seedMember(t, db, 10, 1, 0)

	ctx := context.Background()
	ids, err := svc.ListGroupIDsForUser(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"10"}, ids)

	// 新增成员关系后命中缓存，结果不变
	seedMember(t, db, 11, 1, 0)
	ids, err = svc.ListGroupIDsForUser(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"10"}, ids)

	// 失效后重新查库
	svc.Invalidate(ctx, 1)
	ids, err = svc.ListGroupIDsForUser(ctx, 1)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"10", "11"}, ids)
}

func TestGroupRoomID(t *testing.T) {
	assert.Equal(t, "42", GroupRoomID(42))
}
