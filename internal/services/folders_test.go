package services

import (
	"bytes"
	"context"
	"os"
	"strings"
	"testing"

	"github.com/filedepot/backend/internal/models"
	"github.com/filedepot/backend/pkg/apperr"
	"github.com/google/uuid"
)

func TestFolderService_Create(t *testing.T) {
	env := setupTestEnv(t)
	owner := createTestUser(t, env.db, "owner@test.com")
	ctx := context.Background()

	t.Run("creates folder with physical directory", func(t *testing.T) {
		folder, err := env.folders.Create(ctx, "Reports", nil, owner.ID)
		if err != nil {
			t.Fatalf("create failed: %v", err)
		}
		if folder.Name != "Reports" {
			t.Errorf("expected name Reports, got %q", folder.Name)
		}
		if folder.ParentID != nil {
			t.Errorf("expected nil parent, got %v", folder.ParentID)
		}

		if _, err := os.Stat(env.disk.DirPath(folder.ID)); err != nil {
			t.Errorf("expected physical directory at %s: %v", env.disk.DirPath(folder.ID), err)
		}
	})

	t.Run("rejects empty name", func(t *testing.T) {
		_, err := env.folders.Create(ctx, "   ", nil, owner.ID)
		if !apperr.IsCode(err, apperr.CodeValidation) {
			t.Fatalf("expected VALIDATION_ERROR, got %v", err)
		}
	})

	t.Run("rejects over-length name", func(t *testing.T) {
		_, err := env.folders.Create(ctx, strings.Repeat("a", 300), nil, owner.ID)
		if !apperr.IsCode(err, apperr.CodeValidation) {
			t.Fatalf("expected VALIDATION_ERROR, got %v", err)
		}
	})

	t.Run("rejects missing parent", func(t *testing.T) {
		missing := uuid.New()
		_, err := env.folders.Create(ctx, "Child", &missing, owner.ID)
		if !apperr.IsCode(err, apperr.CodeFolderNotFound) {
			t.Fatalf("expected FOLDER_NOT_FOUND, got %v", err)
		}
	})

	t.Run("creates nested folder under parent", func(t *testing.T) {
		parent, err := env.folders.Create(ctx, "Parent", nil, owner.ID)
		if err != nil {
			t.Fatalf("create parent failed: %v", err)
		}
		child, err := env.folders.Create(ctx, "Child", &parent.ID, owner.ID)
		if err != nil {
			t.Fatalf("create child failed: %v", err)
		}
		if child.ParentID == nil || *child.ParentID != parent.ID {
			t.Errorf("expected parent %s, got %v", parent.ID, child.ParentID)
		}
	})
}

func TestFolderService_Delete(t *testing.T) {
	env := setupTestEnv(t)
	owner := createTestUser(t, env.db, "owner@test.com")
	ctx := context.Background()

	t.Run("missing folder", func(t *testing.T) {
		err := env.folders.Delete(ctx, uuid.New())
		if !apperr.IsCode(err, apperr.CodeFolderNotFound) {
			t.Fatalf("expected FOLDER_NOT_FOUND, got %v", err)
		}
	})

	t.Run("refuses folder with subfolder and leaves state unchanged", func(t *testing.T) {
		parent, err := env.folders.Create(ctx, "Parent", nil, owner.ID)
		if err != nil {
			t.Fatalf("create failed: %v", err)
		}
		if _, err := env.folders.Create(ctx, "Child", &parent.ID, owner.ID); err != nil {
			t.Fatalf("create child failed: %v", err)
		}

		err = env.folders.Delete(ctx, parent.ID)
		if !apperr.IsCode(err, apperr.CodeValidation) {
			t.Fatalf("expected VALIDATION_ERROR, got %v", err)
		}

		var count int64
		env.db.Model(&models.Folder{}).Where("id = ?", parent.ID).Count(&count)
		if count != 1 {
			t.Error("folder row should survive a refused delete")
		}
		if _, err := os.Stat(env.disk.DirPath(parent.ID)); err != nil {
			t.Error("physical directory should survive a refused delete")
		}
	})

	t.Run("refuses folder containing a file", func(t *testing.T) {
		folder, err := env.folders.Create(ctx, "WithFile", nil, owner.ID)
		if err != nil {
			t.Fatalf("create failed: %v", err)
		}
		uploadTestFile(t, env, "doc.txt", "hello", &folder.ID, owner.ID)

		err = env.folders.Delete(ctx, folder.ID)
		if !apperr.IsCode(err, apperr.CodeValidation) {
			t.Fatalf("expected VALIDATION_ERROR, got %v", err)
		}
	})

	t.Run("deletes empty folder with its directory", func(t *testing.T) {
		folder, err := env.folders.Create(ctx, "Empty", nil, owner.ID)
		if err != nil {
			t.Fatalf("create failed: %v", err)
		}

		if err := env.folders.Delete(ctx, folder.ID); err != nil {
			t.Fatalf("delete failed: %v", err)
		}

		var count int64
		env.db.Model(&models.Folder{}).Where("id = ?", folder.ID).Count(&count)
		if count != 0 {
			t.Error("folder row should be gone")
		}
		if _, err := os.Stat(env.disk.DirPath(folder.ID)); !os.IsNotExist(err) {
			t.Error("physical directory should be gone")
		}
	})
}

func TestFolderService_Tree(t *testing.T) {
	env := setupTestEnv(t)
	owner := createTestUser(t, env.db, "owner@test.com")
	ctx := context.Background()

	folder, err := env.folders.Create(ctx, "Reports", nil, owner.ID)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	uploadTestFile(t, env, "q1.txt", "first quarter", &folder.ID, owner.ID)
	uploadTestFile(t, env, "q2.txt", "second quarter", &folder.ID, owner.ID)

	tree, err := env.folders.Tree(ctx, nil, owner.ID)
	if err != nil {
		t.Fatalf("tree failed: %v", err)
	}

	if len(tree) != 1 {
		t.Fatalf("expected one root folder, got %d", len(tree))
	}
	if tree[0].Name != "Reports" {
		t.Errorf("expected Reports, got %q", tree[0].Name)
	}
	if len(tree[0].Files) != 2 {
		t.Errorf("expected 2 files, got %d", len(tree[0].Files))
	}
	if len(tree[0].Subfolders) != 0 {
		t.Errorf("expected 0 subfolders, got %d", len(tree[0].Subfolders))
	}

	t.Run("nested levels", func(t *testing.T) {
		child, err := env.folders.Create(ctx, "Q3", &folder.ID, owner.ID)
		if err != nil {
			t.Fatalf("create child failed: %v", err)
		}
		uploadTestFile(t, env, "q3.txt", "third quarter", &child.ID, owner.ID)

		tree, err := env.folders.Tree(ctx, nil, owner.ID)
		if err != nil {
			t.Fatalf("tree failed: %v", err)
		}
		if len(tree[0].Subfolders) != 1 {
			t.Fatalf("expected 1 subfolder, got %d", len(tree[0].Subfolders))
		}
		if len(tree[0].Subfolders[0].Files) != 1 {
			t.Errorf("expected 1 nested file, got %d", len(tree[0].Subfolders[0].Files))
		}
	})
}

func TestFolderService_Rename(t *testing.T) {
	env := setupTestEnv(t)
	owner := createTestUser(t, env.db, "owner@test.com")
	ctx := context.Background()

	folder, err := env.folders.Create(ctx, "Old", nil, owner.ID)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	dirBefore := env.disk.DirPath(folder.ID)

	renamed, err := env.folders.Rename(ctx, folder.ID, "New")
	if err != nil {
		t.Fatalf("rename failed: %v", err)
	}
	if renamed.Name != "New" {
		t.Errorf("expected New, got %q", renamed.Name)
	}

	// Directories are keyed by id, so rename must not move anything.
	if _, err := os.Stat(dirBefore); err != nil {
		t.Errorf("physical directory moved on rename: %v", err)
	}

	t.Run("missing folder", func(t *testing.T) {
		_, err := env.folders.Rename(ctx, uuid.New(), "Whatever")
		if !apperr.IsCode(err, apperr.CodeFolderNotFound) {
			t.Fatalf("expected FOLDER_NOT_FOUND, got %v", err)
		}
	})
}

func TestFolderService_ListCacheCoherence(t *testing.T) {
	env := setupTestEnv(t)
	owner := createTestUser(t, env.db, "owner@test.com")
	ctx := context.Background()

	folder, err := env.folders.Create(ctx, "Before", nil, owner.ID)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	// Prime the cache.
	first, err := env.folders.ListForOwner(ctx, nil, owner.ID)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(first) != 1 || first[0].Name != "Before" {
		t.Fatalf("unexpected first listing: %+v", first)
	}

	if _, err := env.folders.Rename(ctx, folder.ID, "After"); err != nil {
		t.Fatalf("rename failed: %v", err)
	}

	second, err := env.folders.ListForOwner(ctx, nil, owner.ID)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(second) != 1 || second[0].Name != "After" {
		t.Errorf("listing served stale cache after mutation: %+v", second)
	}
}

func TestFolderService_Sharing(t *testing.T) {
	env := setupTestEnv(t)
	owner := createTestUser(t, env.db, "owner@test.com")
	friend := createTestUser(t, env.db, "friend@test.com")
	stranger := createTestUser(t, env.db, "stranger@test.com")
	ctx := context.Background()

	folder, err := env.folders.Create(ctx, "Shared", nil, owner.ID)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	t.Run("only owner can share", func(t *testing.T) {
		_, err := env.folders.ShareWithUsers(ctx, folder.ID, stranger.ID, []uuid.UUID{friend.ID}, models.AccessLevelRead)
		if !apperr.IsCode(err, apperr.CodeValidation) {
			t.Fatalf("expected VALIDATION_ERROR, got %v", err)
		}
	})

	t.Run("share then list for recipient", func(t *testing.T) {
		shares, err := env.folders.ShareWithUsers(ctx, folder.ID, owner.ID, []uuid.UUID{friend.ID}, models.AccessLevelWrite)
		if err != nil {
			t.Fatalf("share failed: %v", err)
		}
		if len(shares) != 1 {
			t.Fatalf("expected 1 share, got %d", len(shares))
		}

		sharedWith, err := env.folders.SharedWith(ctx, friend.ID)
		if err != nil {
			t.Fatalf("shared-with failed: %v", err)
		}
		if len(sharedWith) != 1 || sharedWith[0].FolderID != folder.ID {
			t.Fatalf("expected the shared folder, got %+v", sharedWith)
		}
		if sharedWith[0].Folder.Name != "Shared" {
			t.Errorf("expected folder preloaded, got %+v", sharedWith[0].Folder)
		}
	})

	t.Run("re-share upserts the same row", func(t *testing.T) {
		if _, err := env.folders.ShareWithUsers(ctx, folder.ID, owner.ID, []uuid.UUID{friend.ID}, models.AccessLevelRead); err != nil {
			t.Fatalf("re-share failed: %v", err)
		}

		var count int64
		env.db.Model(&models.FolderShare{}).
			Where("folder_id = ? AND shared_with_user_id = ?", folder.ID, friend.ID).
			Count(&count)
		if count != 1 {
			t.Errorf("expected exactly one share row, got %d", count)
		}

		var share models.FolderShare
		env.db.First(&share, "folder_id = ? AND shared_with_user_id = ?", folder.ID, friend.ID)
		if share.AccessLevel != models.AccessLevelRead {
			t.Errorf("expected access level downgraded to read, got %s", share.AccessLevel)
		}
	})

	t.Run("sharing with self is skipped", func(t *testing.T) {
		shares, err := env.folders.ShareWithUsers(ctx, folder.ID, owner.ID, []uuid.UUID{owner.ID}, models.AccessLevelRead)
		if err != nil {
			t.Fatalf("share failed: %v", err)
		}
		if len(shares) != 0 {
			t.Errorf("expected no self-share, got %d", len(shares))
		}
	})
}

func uploadTestFile(t *testing.T, env *testEnv, name, content string, folderID *uuid.UUID, ownerID uuid.UUID) *models.File {
	t.Helper()

	file, err := env.files.Upload(context.Background(), UploadInput{
		Reader:       bytes.NewReader([]byte(content)),
		OriginalName: name,
		MimeType:     "text/plain",
		Size:         int64(len(content)),
		FolderID:     folderID,
		OwnerID:      ownerID,
	})
	if err != nil {
		t.Fatalf("failed uploading test file %s: %v", name, err)
	}
	return file
}
