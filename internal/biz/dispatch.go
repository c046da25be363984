package biz

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dyalgarh/gurbani-vyakhya-dev/internal/conf"
	"github.com/dyalgarh/gurbani-vyakhya-dev/internal/constants"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-redsync/redsync/v4"
	"golang.org/x/sync/errgroup"
)

// EmailSender 邮件通道接口
type EmailSender interface {
	SendEmail(ctx context.Context, to, subject, htmlBody string) error
}

// SMSSender 短信通道接口
type SMSSender interface {
	SendSMS(ctx context.Context, to, body string) error
}

// DeliveryOutcome is the typed result of one subscription's dispatch. An empty
// Status means the subscription was short-circuited (past completion or already
// delivered) and no ledger row was written.
type DeliveryOutcome struct {
	SubscriptionID uint64
	Day            int
	Status         string // success, failed, skipped, or "" when short-circuited
	Detail         string
}

// RunReport 一次批量投递的汇总结果
type RunReport struct {
	// AlreadyRunning is set when another run holds the dispatch lock; nothing
	// was advanced or delivered.
	AlreadyRunning bool
	// Advanced is how many subscriptions had their day moved forward.
	Advanced  int64
	Total     int
	Delivered int
	Failed    int
	Skipped   int
}

func (r *RunReport) String() string {
	if r.AlreadyRunning {
		return "dispatch already in progress"
	}
	return fmt.Sprintf("advanced=%d total=%d delivered=%d failed=%d skipped=%d",
		r.Advanced, r.Total, r.Delivered, r.Failed, r.Skipped)
}

// DispatchUsecase is the daily delivery engine: advance every active
// subscription by one day, then fan out per-subscription dispatch with failure
// isolation, recording exactly one ledger row per attempted delivery.
type DispatchUsecase struct {
	subRepo     SubscriptionRepo
	contentRepo PathContentRepo
	ledger      DeliveryLogRepo
	email       EmailSender
	sms         SMSSender
	composer    *MessageComposer

	rs               *redsync.Redsync
	workerCount      int
	deliveryTimeout  time.Duration
	lockExpiry       time.Duration
	completeFinished bool

	log *log.Helper
}

func NewDispatchUsecase(c *conf.Bootstrap, subRepo SubscriptionRepo, contentRepo PathContentRepo, ledger DeliveryLogRepo,
	email EmailSender, sms SMSSender, composer *MessageComposer, rs *redsync.Redsync, logger log.Logger) *DispatchUsecase {
	uc := &DispatchUsecase{
		subRepo:         subRepo,
		contentRepo:     contentRepo,
		ledger:          ledger,
		email:           email,
		sms:             sms,
		composer:        composer,
		rs:              rs,
		workerCount:     constants.DefaultWorkerCount,
		deliveryTimeout: 30 * time.Second,
		lockExpiry:      10 * time.Minute,
		log:             log.NewHelper(logger),
	}
	if c != nil && c.Cron != nil {
		if c.Cron.WorkerCount > 0 {
			uc.workerCount = c.Cron.WorkerCount
		}
		uc.deliveryTimeout = c.Cron.DeliveryTimeoutDuration()
		uc.lockExpiry = c.Cron.LockExpiryDuration()
		uc.completeFinished = c.Cron.CompleteFinished
	}
	return uc
}

// Run executes one daily dispatch batch.
//
// Day advancement and the subscription load are fatal: failing either aborts
// the run before any delivery. Everything after that is isolated per
// subscription — no subscriber's failure reaches another subscriber or the
// run's own result.
func (uc *DispatchUsecase) Run(ctx context.Context) (*RunReport, error) {
	// 运行级互斥锁: 重叠触发直接返回, 不产生副作用
	mutex := uc.rs.NewMutex(
		constants.DispatchLockKey,
		redsync.WithExpiry(uc.lockExpiry),
		redsync.WithTries(constants.DispatchLockRetries),
	)
	if err := mutex.LockContext(ctx); err != nil {
		uc.log.Infof("Dispatch lock busy, skipping run: %v", err)
		return &RunReport{AlreadyRunning: true}, nil
	}
	defer func() {
		if _, err := mutex.UnlockContext(ctx); err != nil {
			uc.log.Warnf("Failed to release dispatch lock: %v", err)
		}
	}()

	report := &RunReport{}

	advanced, err := uc.subRepo.AdvanceActiveDay(ctx)
	if err != nil {
		uc.log.Errorf("Day advancement failed, aborting run: %v", err)
		return nil, fmt.Errorf("day advancement failed: %w", err)
	}
	report.Advanced = advanced

	subs, err := uc.subRepo.ListActiveForDispatch(ctx)
	if err != nil {
		uc.log.Errorf("Failed to load active subscriptions, aborting run: %v", err)
		return nil, fmt.Errorf("subscription load failed: %w", err)
	}
	report.Total = len(subs)
	if len(subs) == 0 {
		uc.log.Info("No active subscriptions, nothing to dispatch")
		return report, nil
	}

	outcomes := make([]DeliveryOutcome, len(subs))
	g := new(errgroup.Group)
	g.SetLimit(uc.workerCount)
	for i, sub := range subs {
		i, sub := i, sub
		g.Go(func() error {
			outcomes[i] = uc.dispatchOne(ctx, sub)
			return nil
		})
	}
	_ = g.Wait()

	for _, o := range outcomes {
		switch o.Status {
		case constants.DeliveryStatusSuccess:
			report.Delivered++
		case constants.DeliveryStatusFailed:
			report.Failed++
		case constants.DeliveryStatusSkipped, "":
			report.Skipped++
		}
	}

	uc.log.Infof("Dispatch run completed: %s", report)
	return report, nil
}

// dispatchOne walks one subscription through eligibility, dedup, content
// resolution and delivery, then records the outcome. It never returns an
// error: every failure becomes a failed outcome for this subscription only.
func (uc *DispatchUsecase) dispatchOne(ctx context.Context, sub *DispatchSubscription) DeliveryOutcome {
	outcome := DeliveryOutcome{SubscriptionID: sub.SubscriptionID, Day: sub.CurrentDay}

	// 1. Eligibility: progressive past its last day is a terminal skip, no row.
	if sub.ContentType == constants.ContentTypeProgressive && sub.TotalDays > 0 && sub.CurrentDay > sub.TotalDays {
		uc.log.Debugf("Subscription %d past completion (day %d of %d)", sub.SubscriptionID, sub.CurrentDay, sub.TotalDays)
		if uc.completeFinished {
			if err := uc.subRepo.UpdateStatus(ctx, sub.SubscriptionID, constants.StatusCompleted); err != nil {
				uc.log.Errorf("Failed to mark subscription %d completed: %v", sub.SubscriptionID, err)
			}
		}
		return outcome
	}

	// 2. Dedup: an existing ledger row means this day was already handled.
	delivered, err := uc.ledger.HasDelivery(ctx, sub.SubscriptionID, sub.CurrentDay)
	if err != nil {
		// 唯一索引兜底, record 不会写出重复行
		uc.log.Errorf("Dedup check failed for subscription %d: %v", sub.SubscriptionID, err)
		outcome.Status = constants.DeliveryStatusFailed
		outcome.Detail = "dedup check failed: " + err.Error()
		uc.record(ctx, sub, &outcome)
		return outcome
	}
	if delivered {
		uc.log.Debugf("Subscription %d already delivered for day %d", sub.SubscriptionID, sub.CurrentDay)
		return outcome
	}

	// 3. Content resolution. A miss is tolerated: the message renders fallback
	// text rather than blocking the send.
	content, err := uc.resolveContent(ctx, sub)
	if err != nil {
		outcome.Status = constants.DeliveryStatusFailed
		outcome.Detail = "content resolution failed: " + err.Error()
		uc.record(ctx, sub, &outcome)
		return outcome
	}

	// 4. Delivery.
	switch {
	case sub.DeliveryMethod == constants.DeliveryMethodEmail && sub.Email != "":
		subject, html := uc.composer.ComposeEmail(sub, content)
		if err := uc.sendWithTimeout(ctx, func(ctx context.Context) error {
			return uc.email.SendEmail(ctx, sub.Email, subject, html)
		}); err != nil {
			outcome.Status = constants.DeliveryStatusFailed
			outcome.Detail = "email send failed: " + err.Error()
		} else {
			outcome.Status = constants.DeliveryStatusSuccess
		}
	case sub.DeliveryMethod == constants.DeliveryMethodSMS && sub.Phone != "":
		body := uc.composer.ComposeSMS(sub, content)
		if err := uc.sendWithTimeout(ctx, func(ctx context.Context) error {
			return uc.sms.SendSMS(ctx, sub.Phone, body)
		}); err != nil {
			outcome.Status = constants.DeliveryStatusFailed
			outcome.Detail = "sms send failed: " + err.Error()
		} else {
			outcome.Status = constants.DeliveryStatusSuccess
		}
	default:
		// 配置了投递方式但联系方式缺失, 或投递方式无法识别
		outcome.Status = constants.DeliveryStatusSkipped
		outcome.Detail = fmt.Sprintf("no usable contact for method %q", sub.DeliveryMethod)
	}

	uc.record(ctx, sub, &outcome)
	return outcome
}

func (uc *DispatchUsecase) resolveContent(ctx context.Context, sub *DispatchSubscription) (*PathContent, error) {
	if sub.ContentType == constants.ContentTypeDaily {
		return uc.contentRepo.GetLatestDailyContent(ctx, sub.PathID)
	}
	return uc.contentRepo.GetContentByDay(ctx, sub.PathID, sub.CurrentDay)
}

// sendWithTimeout runs one adapter call under the per-delivery deadline. The
// call runs in its own goroutine so a hung provider cannot stall the batch
// past the deadline.
func (uc *DispatchUsecase) sendWithTimeout(ctx context.Context, send func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, uc.deliveryTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- send(ctx)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// record appends the ledger row for a non-short-circuited outcome. A ledger
// write failure is logged and absorbed; a duplicate-key collision means a
// concurrent run won the race, which downgrades the outcome to a skip.
func (uc *DispatchUsecase) record(ctx context.Context, sub *DispatchSubscription, outcome *DeliveryOutcome) {
	entry := &DeliveryLog{
		SubscriptionID: sub.SubscriptionID,
		DayNumber:      sub.CurrentDay,
		DeliveryMethod: sub.DeliveryMethod,
		DeliveryStatus: outcome.Status,
		Detail:         outcome.Detail,
	}
	if err := uc.ledger.Append(ctx, entry); err != nil {
		if errors.Is(err, ErrDuplicateDelivery) {
			uc.log.Infof("Subscription %d day %d already recorded by a concurrent run", sub.SubscriptionID, sub.CurrentDay)
			outcome.Status = ""
			outcome.Detail = ""
			return
		}
		uc.log.Errorf("Failed to write ledger row for subscription %d day %d: %v", sub.SubscriptionID, sub.CurrentDay, err)
	}
}
