package cache

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Entity classifies what a cache key holds. Only classes listed in ttlTable
// are ever cached; anything else is a deliberate cache bypass, not a default
// TTL.
type Entity string

const (
	EntityUser       Entity = "user"
	EntityFile       Entity = "file"
	EntityFolder     Entity = "folder"
	EntityFileList   Entity = "file-list"
	EntityFolderList Entity = "folder-list"
	EntityThumbnail  Entity = "thumbnail"
)

var ttlTable = map[Entity]time.Duration{
	EntityUser:       15 * time.Minute,
	EntityFile:       5 * time.Minute,
	EntityFolder:     5 * time.Minute,
	EntityFileList:   2 * time.Minute,
	EntityFolderList: 2 * time.Minute,
	EntityThumbnail:  30 * time.Minute,
}

// ShouldCache is the allow-list gate: unlisted entity classes are never
// written to the cache.
func ShouldCache(entity Entity) bool {
	_, ok := ttlTable[entity]
	return ok
}

func TTLFor(entity Entity) time.Duration {
	return ttlTable[entity]
}

const PublicScope = "public"

func UserScope(userID uuid.UUID) string {
	return "user:" + userID.String()
}

// Key builds `{prefix}:{entity}:{scope}:{id-or-query}` where scope is either
// "public" or "user:<id>".
func Key(prefix string, entity Entity, scope string, id string) string {
	return fmt.Sprintf("%s:%s:%s:%s", prefix, entity, scope, id)
}

// Pattern builds the wildcard covering every key of an entity class within a
// scope, for pattern invalidation.
func Pattern(prefix string, entity Entity, scope string) string {
	return fmt.Sprintf("%s:%s:%s:*", prefix, entity, scope)
}
