package biz

import (
	"context"
	"errors"
	"time"

	"github.com/dyalgarh/gurbani-vyakhya-dev/internal/constants"

	"github.com/go-kratos/kratos/v2/log"
)

var (
	// ErrNotSubscribed secure token 无效或订阅非 active
	ErrNotSubscribed = errors.New("not subscribed")
	// ErrNotYetAvailable 请求的 day 超过订阅当前进度
	ErrNotYetAvailable = errors.New("available later")
	// ErrContentNotFound 内容不存在
	ErrContentNotFound = errors.New("content not found")
)

// PathContent 每日内容
type PathContent struct {
	ID         uint64
	PathID     uint64
	DayNumber  int
	Snippet    string
	MeaningPb  string
	MeaningEn  string
	Reflection string
	Active     bool
	CreatedAt  time.Time
}

// PathContentRepo 数据层接口
type PathContentRepo interface {
	// GetContentByDay returns the active content at exactly (pathID, day), or nil.
	GetContentByDay(ctx context.Context, pathID uint64, day int) (*PathContent, error)
	// GetLatestDailyContent returns the most recently created active content for
	// the path irrespective of day_number, or nil.
	GetLatestDailyContent(ctx context.Context, pathID uint64) (*PathContent, error)
}

// DayReading 阅读页数据
type DayReading struct {
	Content *PathContent
	// CanGoNext reports whether a later day is already unlocked.
	CanGoNext bool
}

// ContentUsecase 内容阅读业务逻辑
type ContentUsecase struct {
	subRepo     SubscriptionRepo
	pathRepo    PathRepo
	contentRepo PathContentRepo
	log         *log.Helper
}

func NewContentUsecase(subRepo SubscriptionRepo, pathRepo PathRepo, contentRepo PathContentRepo, logger log.Logger) *ContentUsecase {
	return &ContentUsecase{
		subRepo:     subRepo,
		pathRepo:    pathRepo,
		contentRepo: contentRepo,
		log:         log.NewHelper(logger),
	}
}

// ReadDay resolves the content behind a read-on-web link. The secure token is
// the only credential; a day beyond the subscription's progress stays locked.
func (uc *ContentUsecase) ReadDay(ctx context.Context, token string, day int) (*DayReading, error) {
	if token == "" || day < 1 {
		return nil, ErrContentNotFound
	}

	sub, err := uc.subRepo.GetBySecureToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if sub == nil || sub.Status != constants.StatusActive {
		return nil, ErrNotSubscribed
	}

	if day > sub.CurrentDay {
		return nil, ErrNotYetAvailable
	}

	path, err := uc.pathRepo.GetPath(ctx, sub.PathID)
	if err != nil {
		return nil, err
	}

	var content *PathContent
	if path != nil && path.ContentType == constants.ContentTypeDaily {
		content, err = uc.contentRepo.GetLatestDailyContent(ctx, sub.PathID)
	} else {
		content, err = uc.contentRepo.GetContentByDay(ctx, sub.PathID, day)
	}
	if err != nil {
		return nil, err
	}
	if content == nil {
		return nil, ErrContentNotFound
	}

	return &DayReading{
		Content:   content,
		CanGoNext: day < sub.CurrentDay,
	}, nil
}
