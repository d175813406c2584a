package notifications

import (
	"context"
	"encoding/json"
	"log"
	"melodica_go/config"
	"melodica_go/database"
	"melodica_go/models"
	"melodica_go/utils"
	"time"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

// Queue item structure stored in Redis.
// Keep minimal to reduce payload size. The DB write is the source of
// truth; if Redis is down we fall back to a direct insert.
type queuedNotification struct {
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Type      string    `json:"type"`
	Data      any       `json:"data,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

const redisListKey = "notifications:queue"

// Service exposes notification creation with optional Redis queue.
// If Redis disabled/unavailable, performs direct DB insert.

type Service struct {
	db       *gorm.DB
	redis    *redis.Client
	useRedis bool
	wsHub    WSHub // WebSocket hub interface
}

// WSHub interface for WebSocket broadcasting
type WSHub interface {
	Broadcast(message interface{})
}

// defaultHub allows services created in different parts of the app (e.g., schedulers)
// to automatically broadcast over the same WebSocket hub without manually wiring each instance.
var defaultHub WSHub

// SetDefaultWSHub sets the package-level default WebSocket hub used by new Service instances.
func SetDefaultWSHub(h WSHub) {
	defaultHub = h
}

func NewService() *Service {
	return &Service{
		db:       database.GetDB(),
		redis:    database.GetRedisClient(),
		useRedis: config.AppConfig != nil && config.AppConfig.UseRedisNotifications && database.GetRedisClient() != nil,
		wsHub:    defaultHub,
	}
}

// SetWebSocketHub sets the WebSocket hub for real-time notifications
func (s *Service) SetWebSocketHub(hub WSHub) {
	s.wsHub = hub
}

// normalizeType keeps only allowed values and defaults to info
func normalizeType(typ string) string {
	switch typ {
	case "info", "warning", "error", "success":
		return typ
	}
	return "info"
}

// Queued creates a minimal queuedNotification (public helper for controllers and schedulers)
func Queued(title, message, typ string) queuedNotification {
	return queuedNotification{Title: title, Message: message, Type: normalizeType(typ)}
}

// QueuedWithData allows attaching a structured data payload (deep-links/actions)
func QueuedWithData(title, message, typ string, data any) queuedNotification {
	return queuedNotification{Title: title, Message: message, Type: normalizeType(typ), Data: data}
}

// EnqueueOrCreate stores a notification using the Redis queue if enabled, else direct insert.
func (s *Service) EnqueueOrCreate(n queuedNotification) error {
	n.CreatedAt = time.Now().UTC()

	if s.useRedis {
		b, err := json.Marshal(n)
		if err != nil {
			return err
		}
		if err = s.redis.RPush(context.Background(), redisListKey, b).Err(); err == nil {
			return nil // queued successfully
		}
		log.Printf("[notif] Redis queue failed, falling back to direct insert: %v", err)
	}

	// fallback: direct db insert
	return s.createDirect(n)
}

// createDirect writes directly to DB (used by worker or fallback).
func (s *Service) createDirect(n queuedNotification) error {
	var dataJSON models.JSON
	if n.Data != nil {
		if b, err := json.Marshal(n.Data); err == nil {
			dataJSON = b
		}
	}

	notif := models.Notification{
		Title:   n.Title,
		Message: n.Message,
		Type:    normalizeType(n.Type),
		Data:    dataJSON,
		Read:    false,
	}

	if err := s.db.Create(&notif).Error; err != nil {
		return err
	}

	// Push to every connected dashboard if the hub is available
	if s.wsHub != nil {
		dto := utils.ToNotificationDTO(notif)
		s.wsHub.Broadcast(map[string]interface{}{
			"type": "notification",
			"data": dto,
		})
	}

	return nil
}

// StartWorker starts a background worker polling the Redis queue and flushing to DB
func (s *Service) StartWorker(stop <-chan struct{}) {
	if !s.useRedis {
		log.Println("[notif] Redis notifications disabled; worker not started")
		return
	}
	go func() {
		log.Println("[notif] Redis notification worker started")
		ticker := time.NewTicker(2 * time.Second)
		defer ticker.Stop()
		ctx := context.Background()
		batchSize := 200
		for {
			select {
			case <-stop:
				log.Println("[notif] Worker stopping")
				return
			case <-ticker.C:
				s.flushBatch(ctx, batchSize)
			}
		}
	}()
}

// flushBatch polls the redis queue and processes notifications in batches.
func (s *Service) flushBatch(ctx context.Context, batchSize int) {
	if s.redis == nil {
		return
	}
	// Use pipeline: LRange + LTrim approach to make it safe for moderate concurrency
	for i := 0; i < 5; i++ { // up to 5 sub-batches per tick
		vals, err := s.redis.LRange(ctx, redisListKey, 0, int64(batchSize-1)).Result()
		if err != nil || len(vals) == 0 {
			return
		}
		// Trim immediately to avoid duplicates (best-effort)
		if err = s.redis.LTrim(ctx, redisListKey, int64(len(vals)), -1).Err(); err != nil {
			log.Printf("[notif] LTrim failed: %v", err)
		}
		for _, raw := range vals {
			var q queuedNotification
			if err := json.Unmarshal([]byte(raw), &q); err != nil {
				continue
			}
			if err := s.createDirect(q); err != nil {
				log.Printf("[notif] DB insert failed (retry later?): %v", err)
			}
		}
		if len(vals) < batchSize {
			return
		}
	}
}
