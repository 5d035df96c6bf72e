package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"shikkha_backend/internal/model"
	"time"

	"github.com/go-redis/redis/v8"
)

var ErrDraftNotFound = errors.New("draft not found")

const draftKeyPrefix = "exam:draft:"

// DraftRepository 考试草稿与开始时间存放在 redis
type DraftRepository struct {
	Redis *redis.Client
}

func NewDraftRepository(rdb *redis.Client) *DraftRepository {
	return &DraftRepository{Redis: rdb}
}

func draftKey(examID, studentID string) string {
	return fmt.Sprintf("%s%s:%s", draftKeyPrefix, examID, studentID)
}

func startedKey(examID, studentID string) string {
	return draftKey(examID, studentID) + ":started"
}

// MarkStarted 只在第一次调用时记录开始时间，返回实际生效的时间
func (r *DraftRepository) MarkStarted(ctx context.Context, examID, studentID string, at time.Time, ttl time.Duration) (time.Time, error) {
	key := startedKey(examID, studentID)
	ok, err := r.Redis.SetNX(ctx, key, at.UTC().Format(time.RFC3339Nano), ttl).Result()
	if err != nil {
		return time.Time{}, err
	}
	if ok {
		return at, nil
	}
	started, err := r.StartedAt(ctx, examID, studentID)
	if err != nil {
		return time.Time{}, err
	}
	if started == nil {
		// key 在两次调用之间过期
		return at, r.Redis.Set(ctx, key, at.UTC().Format(time.RFC3339Nano), ttl).Err()
	}
	return *started, nil
}

// StartedAt 未记录时返回 nil
func (r *DraftRepository) StartedAt(ctx context.Context, examID, studentID string) (*time.Time, error) {
	val, err := r.Redis.Get(ctx, startedKey(examID, studentID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	t, err := time.Parse(time.RFC3339Nano, val)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *DraftRepository) Save(ctx context.Context, draft *model.ExamDraft, ttl time.Duration) error {
	data, err := json.Marshal(draft)
	if err != nil {
		return err
	}
	return r.Redis.Set(ctx, draftKey(draft.ExamID, draft.StudentID), data, ttl).Err()
}

func (r *DraftRepository) Get(ctx context.Context, examID, studentID string) (*model.ExamDraft, error) {
	val, err := r.Redis.Get(ctx, draftKey(examID, studentID)).Bytes()
	if err == redis.Nil {
		return nil, ErrDraftNotFound
	}
	if err != nil {
		return nil, err
	}
	var draft model.ExamDraft
	if err := json.Unmarshal(val, &draft); err != nil {
		return nil, err
	}
	return &draft, nil
}

// Delete 只删除草稿，开始时间保留用于迟交校验
func (r *DraftRepository) Delete(ctx context.Context, examID, studentID string) error {
	return r.Redis.Del(ctx, draftKey(examID, studentID)).Err()
}

// Clear 提交成功后同时删除草稿和开始时间
func (r *DraftRepository) Clear(ctx context.Context, examID, studentID string) error {
	return r.Redis.Del(ctx, draftKey(examID, studentID), startedKey(examID, studentID)).Err()
}
