package data

import (
	"context"
	"errors"

	"github.com/dyalgarh/gurbani-vyakhya-dev/internal/biz"
	"github.com/dyalgarh/gurbani-vyakhya-dev/internal/data/model"

	"github.com/go-kratos/kratos/v2/log"
	"gorm.io/gorm"
)

// pathRepo path 仓库实现 (read-only)
type pathRepo struct {
	data *Data
	log  *log.Helper
}

// NewPathRepo 创建 path 仓库
func NewPathRepo(data *Data, logger log.Logger) biz.PathRepo {
	return &pathRepo{
		data: data,
		log:  log.NewHelper(logger),
	}
}

// GetPath 获取 path
func (r *pathRepo) GetPath(ctx context.Context, id uint64) (*biz.Path, error) {
	var m model.Path
	err := r.data.DB(ctx).Where("path_id = ?", id).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		r.log.Errorf("Failed to get path %d: %v", id, err)
		return nil, err
	}
	return &biz.Path{
		ID:          m.ID,
		Name:        m.Name,
		Description: m.Description,
		ContentType: m.ContentType,
		TotalDays:   m.TotalDays,
		IsPaid:      m.IsPaid,
		PriceCents:  m.PriceCents,
		Currency:    m.Currency,
		Active:      m.Active,
	}, nil
}
