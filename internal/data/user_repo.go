package data

import (
	"context"
	"errors"

	"github.com/dyalgarh/gurbani-vyakhya-dev/internal/biz"
	"github.com/dyalgarh/gurbani-vyakhya-dev/internal/data/model"

	"github.com/go-kratos/kratos/v2/log"
	"gorm.io/gorm"
)

// userRepo 用户仓库实现
type userRepo struct {
	data *Data
	log  *log.Helper
}

// NewUserRepo 创建用户仓库
func NewUserRepo(data *Data, logger log.Logger) biz.UserRepo {
	return &userRepo{
		data: data,
		log:  log.NewHelper(logger),
	}
}

// UpsertByContact 按邮箱或手机号匹配已有用户, 不存在则创建
func (r *userRepo) UpsertByContact(ctx context.Context, name, email, phone string) (*biz.User, error) {
	db := r.data.DB(ctx)

	var m model.User
	var err error
	if email != "" {
		err = db.Where("email = ?", email).First(&m).Error
	} else {
		err = db.Where("phone = ?", phone).First(&m).Error
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		m = model.User{Name: name}
		if email != "" {
			m.Email = &email
		}
		if phone != "" {
			m.Phone = &phone
		}
		if err := db.Create(&m).Error; err != nil {
			r.log.Errorf("Failed to create user %q: %v", name, err)
			return nil, err
		}
		return toUser(&m), nil
	}
	if err != nil {
		r.log.Errorf("Failed to look up user by contact: %v", err)
		return nil, err
	}

	// 补全缺失的联系方式
	updated := false
	if m.Email == nil && email != "" {
		m.Email = &email
		updated = true
	}
	if m.Phone == nil && phone != "" {
		m.Phone = &phone
		updated = true
	}
	if m.Name == "" && name != "" {
		m.Name = name
		updated = true
	}
	if updated {
		if err := db.Save(&m).Error; err != nil {
			r.log.Errorf("Failed to update user %d contact: %v", m.ID, err)
			return nil, err
		}
	}

	return toUser(&m), nil
}

func toUser(m *model.User) *biz.User {
	u := &biz.User{
		ID:        m.ID,
		Name:      m.Name,
		CreatedAt: m.CreatedAt,
	}
	if m.Email != nil {
		u.Email = *m.Email
	}
	if m.Phone != nil {
		u.Phone = *m.Phone
	}
	return u
}
