package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"parley-backend/internal/models"
	"parley-backend/internal/services"
)

const titleQueue = "queue:title-generation"

type chatTitleRepo interface {
	UpdateTitle(ctx context.Context, id uuid.UUID, title string) error
}

// Pool consumes title-generation jobs from the redis queue, stores the
// derived title, and notifies the owning user's sockets over pub/sub.
type Pool struct {
	redis       *redis.Client
	chatRepo    chatTitleRepo
	workerCount int
	stopChan    chan struct{}
}

func NewPool(redisClient *redis.Client, chatRepo chatTitleRepo, workerCount int) *Pool {
	return &Pool{
		redis:       redisClient,
		chatRepo:    chatRepo,
		workerCount: workerCount,
		stopChan:    make(chan struct{}),
	}
}

func (p *Pool) Start() {
	for i := 0; i < p.workerCount; i++ {
		go p.worker(i)
	}
	log.Printf("Started %d title worker goroutines", p.workerCount)
}

func (p *Pool) Stop() {
	close(p.stopChan)
}

func (p *Pool) worker(id int) {
	for {
		select {
		case <-p.stopChan:
			log.Printf("Title worker %d shutting down", id)
			return
		default:
		}

		ctx := context.Background()

		// BLPOP with 30s timeout
		result, err := p.redis.BLPop(ctx, 30*time.Second, titleQueue).Result()
		if err != nil {
			continue // Timeout or error, retry
		}

		if len(result) < 2 {
			continue
		}

		var job models.TitleJob
		if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
			log.Printf("Title worker %d: failed to parse job: %v", id, err)
			continue
		}

		// A lock keeps two workers from titling the same chat
		lockKey := fmt.Sprintf("title_lock:%s", job.ChatID.String())
		locked, err := p.redis.SetNX(ctx, lockKey, "1", time.Minute).Result()
		if err != nil || !locked {
			continue
		}

		if err := p.process(ctx, &job); err != nil {
			log.Printf("Title worker %d: job for chat %s failed: %v", id, job.ChatID, err)
		}

		p.redis.Del(ctx, lockKey)
	}
}

func (p *Pool) process(ctx context.Context, job *models.TitleJob) error {
	title := services.GenerateChatTitle(job.Message)
	if title == "" {
		return nil
	}

	if err := p.chatRepo.UpdateTitle(ctx, job.ChatID, title); err != nil {
		return fmt.Errorf("failed to update chat title: %w", err)
	}

	msg := models.WSMessage{
		Type:    "chat_updated",
		Payload: models.ChatUpdate{ChatID: job.ChatID, Title: title},
	}
	data, _ := json.Marshal(msg)
	if err := p.redis.Publish(ctx, "user_updates:"+job.UserID.String(), string(data)).Err(); err != nil {
		return fmt.Errorf("failed to publish chat update: %w", err)
	}

	return nil
}
