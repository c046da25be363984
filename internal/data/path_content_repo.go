package data

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dyalgarh/gurbani-vyakhya-dev/internal/biz"
	"github.com/dyalgarh/gurbani-vyakhya-dev/internal/constants"
	"github.com/dyalgarh/gurbani-vyakhya-dev/internal/data/model"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// pathContentRepo 内容仓库实现 (read-only)
type pathContentRepo struct {
	data *Data
	log  *log.Helper
}

// NewPathContentRepo 创建内容仓库
func NewPathContentRepo(data *Data, logger log.Logger) biz.PathContentRepo {
	return &pathContentRepo{
		data: data,
		log:  log.NewHelper(logger),
	}
}

// GetContentByDay 获取 (path, day) 对应的内容
func (r *pathContentRepo) GetContentByDay(ctx context.Context, pathID uint64, day int) (*biz.PathContent, error) {
	var m model.PathContent
	err := r.data.DB(ctx).
		Where("path_id = ? AND day_number = ? AND active = ?", pathID, day, true).
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		r.log.Errorf("Failed to get content for path %d day %d: %v", pathID, day, err)
		return nil, err
	}
	return toPathContent(&m), nil
}

// GetLatestDailyContent 获取 path 最新创建的 active 内容, 不看 day_number.
// Every daily-path subscriber reads the same row during a run, so it sits
// behind a short redis TTL cache.
func (r *pathContentRepo) GetLatestDailyContent(ctx context.Context, pathID uint64) (*biz.PathContent, error) {
	cacheKey := fmt.Sprintf("%s%d", constants.DailyContentCacheKeyPrefix, pathID)

	if cached, err := r.data.rdb.Get(ctx, cacheKey).Bytes(); err == nil {
		var content biz.PathContent
		if err := json.Unmarshal(cached, &content); err == nil {
			return &content, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		r.log.Warnf("Daily content cache read failed for path %d: %v", pathID, err)
	}

	var m model.PathContent
	err := r.data.DB(ctx).
		Where("path_id = ? AND active = ?", pathID, true).
		Order("created_at DESC, path_content_id DESC").
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		r.log.Errorf("Failed to get latest daily content for path %d: %v", pathID, err)
		return nil, err
	}

	content := toPathContent(&m)
	if payload, err := json.Marshal(content); err == nil {
		if err := r.data.rdb.Set(ctx, cacheKey, payload, constants.DailyContentCacheExpiration).Err(); err != nil {
			r.log.Warnf("Daily content cache write failed for path %d: %v", pathID, err)
		}
	}
	return content, nil
}

func toPathContent(m *model.PathContent) *biz.PathContent {
	return &biz.PathContent{
		ID:         m.ID,
		PathID:     m.PathID,
		DayNumber:  m.DayNumber,
		Snippet:    m.Snippet,
		MeaningPb:  m.MeaningPb,
		MeaningEn:  m.MeaningEn,
		Reflection: m.Reflection,
		Active:     m.Active,
		CreatedAt:  m.CreatedAt,
	}
}
