package cache

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestPolicy(t *testing.T) {
	t.Run("key format", func(t *testing.T) {
		id := uuid.MustParse("11111111-2222-3333-4444-555555555555")
		key := Key("filedepot", EntityFile, UserScope(id), "abc")
		expected := "filedepot:file:user:11111111-2222-3333-4444-555555555555:abc"
		if key != expected {
			t.Errorf("expected %q, got %q", expected, key)
		}

		public := Key("filedepot", EntityFolder, PublicScope, "xyz")
		if public != "filedepot:folder:public:xyz" {
			t.Errorf("unexpected public key %q", public)
		}
	})

	t.Run("pattern covers keys of its scope only", func(t *testing.T) {
		pattern := Pattern("filedepot", EntityFileList, PublicScope)
		if pattern != "filedepot:file-list:public:*" {
			t.Errorf("unexpected pattern %q", pattern)
		}
	})

	t.Run("allow-list gate", func(t *testing.T) {
		for _, entity := range []Entity{EntityUser, EntityFile, EntityFolder, EntityFileList, EntityFolderList, EntityThumbnail} {
			if !ShouldCache(entity) {
				t.Errorf("expected %s to be cacheable", entity)
			}
			if TTLFor(entity) <= 0 {
				t.Errorf("expected positive TTL for %s", entity)
			}
		}
		if ShouldCache(Entity("session")) {
			t.Error("unlisted entity classes must never be cached")
		}
	})

	t.Run("list TTLs shorter than single entities", func(t *testing.T) {
		if TTLFor(EntityFileList) >= TTLFor(EntityFile) {
			t.Error("list entries must expire before single entities")
		}
		if TTLFor(EntityThumbnail) < 10*time.Minute {
			t.Error("thumbnails are immutable per file id and should live long")
		}
	})
}
