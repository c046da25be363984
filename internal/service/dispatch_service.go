package service

import (
	"context"
	"crypto/subtle"

	"github.com/dyalgarh/gurbani-vyakhya-dev/internal/biz"
	"github.com/dyalgarh/gurbani-vyakhya-dev/internal/conf"

	kerrors "github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
)

// DispatchRunner runs one daily delivery batch.
type DispatchRunner interface {
	Run(ctx context.Context) (*biz.RunReport, error)
}

// DispatchService 定时触发接口
type DispatchService struct {
	runner  DispatchRunner
	enabled bool
	secret  string
	log     *log.Helper
}

// NewDispatchService 创建触发服务实例
func NewDispatchService(c *conf.Bootstrap, runner DispatchRunner, logger log.Logger) *DispatchService {
	s := &DispatchService{
		runner: runner,
		log:    log.NewHelper(logger),
	}
	if c != nil && c.Cron != nil {
		s.enabled = c.Cron.Enabled
		s.secret = c.Cron.Secret
	}
	return s
}

type TriggerReply struct {
	OK      bool   `json:"ok"`
	Message string `json:"message,omitempty"`
}

// TriggerDaily authenticates the external scheduler and runs the batch.
// Infrastructure failures inside the run surface as 500; per-subscriber
// outcomes never do.
func (s *DispatchService) TriggerDaily(ctx context.Context, secret string) (*TriggerReply, error) {
	if subtle.ConstantTimeCompare([]byte(secret), []byte(s.secret)) != 1 {
		return nil, kerrors.Unauthorized("UNAUTHORIZED", "invalid cron secret")
	}

	if !s.enabled {
		s.log.Info("Daily dispatch trigger received but the job is disabled")
		return &TriggerReply{OK: false, Message: "disabled"}, nil
	}

	report, err := s.runner.Run(ctx)
	if err != nil {
		s.log.Errorf("Daily dispatch run failed: %v", err)
		return nil, kerrors.InternalServer("DISPATCH_FAILED", err.Error())
	}

	return &TriggerReply{OK: !report.AlreadyRunning, Message: report.String()}, nil
}
