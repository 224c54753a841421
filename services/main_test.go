package services_test

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/legacykeep/interaction-service/models"
	"github.com/legacykeep/interaction-service/services"
)

// newTestDB opens an isolated in-memory database with the service schema.
// TranslateError matches production so duplicate-key handling behaves the
// same way under test.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	// A pooled second connection would see its own empty :memory: database.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.Comment{},
		&models.CommentEdit{},
		&models.CommentLike{},
		&models.CommentFlagRecord{},
		&models.Reaction{},
		&models.Rating{},
		&models.Share{},
		&models.Bookmark{},
	))
	return db
}

func newCommentService(t *testing.T) (*services.CommentService, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	events := services.NewEventService(nil, zap.NewNop())
	return services.NewCommentService(db, events, zap.NewNop()), db
}

func newReactionService(t *testing.T) (*services.ReactionService, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	events := services.NewEventService(nil, zap.NewNop())
	return services.NewReactionService(db, events, zap.NewNop()), db
}

var (
	member    = services.Actor{ID: 1}
	other     = services.Actor{ID: 2}
	moderator = services.Actor{ID: 99, Moderator: true}
)
