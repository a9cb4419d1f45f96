package cache

import (
	"context"
	"encoding/json"

	"github.com/filedepot/backend/pkg/logger"
	"github.com/google/uuid"
)

// Service wraps a Backend with the key/TTL policy and JSON serialization.
// Every method returns an explicit success signal instead of an error: the
// cache is advisory, so callers discard the signal on the request path and a
// failed cache operation is only ever a log line.
type Service struct {
	backend Backend
	prefix  string
	log     *logger.Logger
}

func NewService(backend Backend, prefix string, log *logger.Logger) *Service {
	return &Service{backend: backend, prefix: prefix, log: log}
}

func (s *Service) BackendName() string {
	return s.backend.Name()
}

func (s *Service) IsConnected() bool {
	return s.backend.IsConnected()
}

// GetJSON loads and decodes the value under (entity, scope, id) into dest.
// It returns false on miss, on a backend failure, and for entity classes
// outside the allow-list.
func (s *Service) GetJSON(ctx context.Context, entity Entity, scope string, id string, dest interface{}) bool {
	if !ShouldCache(entity) {
		return false
	}

	key := Key(s.prefix, entity, scope, id)
	raw, err := s.backend.Get(ctx, key)
	if err != nil {
		s.log.Warn("cache_get_failed", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
		return false
	}
	if raw == nil {
		return false
	}

	if err := json.Unmarshal(raw, dest); err != nil {
		s.log.Warn("cache_decode_failed", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
		_, _ = s.backend.Del(ctx, key)
		return false
	}
	return true
}

// SetJSON stores value under (entity, scope, id) with the entity's TTL.
// Unlisted entity classes are silently skipped.
func (s *Service) SetJSON(ctx context.Context, entity Entity, scope string, id string, value interface{}) bool {
	if !ShouldCache(entity) {
		return false
	}

	raw, err := json.Marshal(value)
	if err != nil {
		s.log.Warn("cache_encode_failed", map[string]interface{}{
			"entity": string(entity),
			"error":  err.Error(),
		})
		return false
	}

	key := Key(s.prefix, entity, scope, id)
	if err := s.backend.Set(ctx, key, raw, TTLFor(entity)); err != nil {
		s.log.Warn("cache_set_failed", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
		return false
	}
	return true
}

// InvalidateScope removes every cached value of the entity class within one
// scope.
func (s *Service) InvalidateScope(ctx context.Context, entity Entity, scope string) bool {
	pattern := Pattern(s.prefix, entity, scope)
	if _, err := s.backend.DelPattern(ctx, pattern); err != nil {
		s.log.Warn("cache_invalidate_failed", map[string]interface{}{
			"pattern": pattern,
			"error":   err.Error(),
		})
		return false
	}
	return true
}

// InvalidateEntityForUsers clears an entity class for the public scope plus
// each affected user: the acting user and any share counterparts. Mutating
// operations call this after every successful write.
func (s *Service) InvalidateEntityForUsers(ctx context.Context, entity Entity, userIDs ...uuid.UUID) bool {
	ok := s.InvalidateScope(ctx, entity, PublicScope)
	seen := make(map[uuid.UUID]bool, len(userIDs))
	for _, userID := range userIDs {
		if seen[userID] {
			continue
		}
		seen[userID] = true
		if !s.InvalidateScope(ctx, entity, UserScope(userID)) {
			ok = false
		}
	}
	return ok
}

func (s *Service) Exists(ctx context.Context, entity Entity, scope string, id string) bool {
	ok, err := s.backend.Exists(ctx, Key(s.prefix, entity, scope, id))
	if err != nil {
		return false
	}
	return ok
}

func (s *Service) Flush(ctx context.Context) bool {
	if err := s.backend.Flush(ctx); err != nil {
		s.log.Warn("cache_flush_failed", map[string]interface{}{
			"error": err.Error(),
		})
		return false
	}
	return true
}
