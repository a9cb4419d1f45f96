package services

import (
	"testing"

	"github.com/filedepot/backend/internal/cache"
	"github.com/filedepot/backend/internal/config"
	"github.com/filedepot/backend/internal/database"
	"github.com/filedepot/backend/internal/models"
	"github.com/filedepot/backend/internal/storage"
	"github.com/filedepot/backend/pkg/logger"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

type testEnv struct {
	db      *gorm.DB
	disk    *storage.Disk
	cache   *cache.Service
	access  *AccessService
	folders *FolderService
	files   *FileService
	thumbs  *ThumbnailService
	cfg     config.StorageConfig
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed opening in-memory sqlite database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed getting sql.DB from gorm: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	if err := database.Migrate(db); err != nil {
		t.Fatalf("failed automigrating models: %v", err)
	}

	log := logger.Discard()

	storageCfg := config.StorageConfig{
		UploadRoot:       t.TempDir(),
		MaxUploadSize:    1024 * 1024,
		AllowedMimeTypes: []string{"text/plain", "image/png", "image/jpeg", "application/pdf"},
		ThumbnailMaxPx:   64,
	}

	disk, err := storage.NewDisk(storageCfg, log)
	if err != nil {
		t.Fatalf("failed initializing disk storage: %v", err)
	}

	cacheService := cache.NewService(cache.NewMemoryBackend(), "test", log)

	access := NewAccessService(db)
	thumbs := NewThumbnailService(db, disk, storageCfg, log)
	folders := NewFolderService(db, disk, cacheService, access, log)
	files := NewFileService(db, disk, cacheService, access, thumbs, storageCfg, log)

	return &testEnv{
		db:      db,
		disk:    disk,
		cache:   cacheService,
		access:  access,
		folders: folders,
		files:   files,
		thumbs:  thumbs,
		cfg:     storageCfg,
	}
}

func createTestUser(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()

	user := &models.User{
		Email:     email,
		FirstName: "Test",
		LastName:  "User",
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed creating test user: %v", err)
	}
	return user
}
