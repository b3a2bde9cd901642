package store

import (
	"context"
	"errors"

	"github.com/mvembar/SyllabusAPI/internal/config"
	"github.com/mvembar/SyllabusAPI/internal/data/redisStore"
	"github.com/mvembar/SyllabusAPI/internal/domain/jobModel"
	"github.com/mvembar/SyllabusAPI/pkg/logger_i"
)

type RedisMessageStore struct {
	store  *redisStore.Store
	logger *logger_i.Logger
}

func GetRedisMessageStore(ctx context.Context) *RedisMessageStore {
	internal := redisStore.GetRedisStore(ctx, config.RedisMessageStore)
	if internal == nil {
		return nil
	}
	return &RedisMessageStore{
		store:  internal,
		logger: logger_i.NewLogger("MessageStore"),
	}
}

func (s *RedisMessageStore) ValidateChatId(ctx context.Context, chatId string) bool {
	log := s.logger.With("traceId", ctx.Value(config.TRACE_ID_KEY), "chatId", chatId)
	isFound, err := s.store.Exists(ctx, chatId)
	if err != nil && !s.store.IsNil(err) {
		log.Error("failed to check chatId", "error", err)
		return false
	}
	return isFound
}

func (s *RedisMessageStore) TrySaveChat(ctx context.Context, id string, conversation jobModel.JobPayload) error {
	log := s.logger.With("traceId", ctx.Value(config.TRACE_ID_KEY), "chatId", id)
	if !s.ValidateChatId(ctx, id) {
		err := errors.New("invalid chat id")
		log.Error("failed validation before saving", "error", err)
		return err
	}
	return s.saveChat(ctx, id, conversation)
}

func (s *RedisMessageStore) saveChat(ctx context.Context, id string, conversation jobModel.JobPayload) error {
	log := s.logger.With("traceId", ctx.Value(config.TRACE_ID_KEY), "chatId", id)
	err := s.store.ListPush(ctx, id, renderTurn(conversation))
	if err != nil {
		log.Error("error saving chat", "error", err)
	}
	return err
}

// InitNewChat resets the list for the id and seeds it so the key exists for
// later validation.
func (s *RedisMessageStore) InitNewChat(ctx context.Context, id string) error {
	log := s.logger.With("traceId", ctx.Value(config.TRACE_ID_KEY), "chatId", id)
	log.Debug("initializing new chat")
	if err := s.store.Del(ctx, id); err != nil && !s.store.IsNil(err) {
		log.Error("error resetting chat", "error", err)
	}
	return s.saveChat(ctx, id, jobModel.JobPayload{})
}

func (s *RedisMessageStore) GetMessageHistory(ctx context.Context, chatId string) ([]string, error) {
	log := s.logger.With("traceId", ctx.Value(config.TRACE_ID_KEY), "chatId", chatId)

	res, err := s.store.ListGet5PastMessage(ctx, chatId)
	if err != nil {
		log.Error("error getting history", "error", err)
		return nil, err
	}
	return pruneEmptyTurns(res), nil
}

func TestMessageStore(store *redisStore.Store) *RedisMessageStore {
	return &RedisMessageStore{
		store:  store,
		logger: logger_i.NewLogger("test redis"),
	}
}

// renderTurn flattens a finished exchange into the form the LLM history
// prompt expects. The init sentinel renders empty.
func renderTurn(payload jobModel.JobPayload) string {
	if payload.Question == "" && payload.Answer == "" {
		return ""
	}
	return "Question: " + payload.Question + "\nAnswer: " + payload.Answer
}

func pruneEmptyTurns(turns []string) []string {
	out := make([]string, 0, len(turns))
	for _, t := range turns {
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}
