package biz

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/dyalgarh/gurbani-vyakhya-dev/internal/constants"

	"github.com/stretchr/testify/require"
)

func TestRunDeliversAndRecords(t *testing.T) {
	f := newDispatchFixture(t)
	f.subRepo.subs = []*DispatchSubscription{progressiveSub(1, 3, 40, "sukh@example.com")}
	f.content.put(1, 3, &PathContent{PathID: 1, DayNumber: 3, Snippet: "ਸਲੋਕੁ", MeaningEn: "Salok"})

	report, err := f.uc.Run(context.Background())
	require.NoError(t, err)
	require.False(t, report.AlreadyRunning)
	require.Equal(t, 1, report.Total)
	require.Equal(t, 1, report.Delivered)
	require.Equal(t, 0, report.Failed)
	require.Equal(t, 0, report.Skipped)

	require.Len(t, f.email.sent, 1)
	msg := f.email.sent[0]
	require.Equal(t, "sukh@example.com", msg.to)
	require.Contains(t, msg.subject, "Day 3")
	require.Contains(t, msg.html, "ਸਲੋਕੁ")
	require.Contains(t, msg.html, "todays-path?token=secure-1&day=3")
	require.Contains(t, msg.html, "unsubscribe?token=unsub-1")

	row := f.ledger.row(1, 3)
	require.NotNil(t, row)
	require.Equal(t, constants.DeliveryStatusSuccess, row.DeliveryStatus)
	require.Equal(t, constants.DeliveryMethodEmail, row.DeliveryMethod)
}

func TestRunSMSDelivery(t *testing.T) {
	f := newDispatchFixture(t)
	sub := progressiveSub(1, 2, 40, "")
	sub.DeliveryMethod = constants.DeliveryMethodSMS
	sub.Phone = "+15551234567"
	f.subRepo.subs = []*DispatchSubscription{sub}
	f.content.put(1, 2, &PathContent{PathID: 1, DayNumber: 2})

	report, err := f.uc.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, report.Delivered)

	body, ok := f.sms.sent["+15551234567"]
	require.True(t, ok)
	require.Contains(t, body, "day 2")
	require.Contains(t, body, "token=secure-1")
	require.Equal(t, constants.DeliveryStatusSuccess, f.ledger.row(1, 2).DeliveryStatus)
}

func TestRunSecondInvocationIsNoOp(t *testing.T) {
	// The fake advance does not move current_day, so a second run sees the
	// same day and must be stopped by the ledger alone.
	f := newDispatchFixture(t)
	f.subRepo.subs = []*DispatchSubscription{progressiveSub(1, 5, 40, "sukh@example.com")}
	f.content.put(1, 5, &PathContent{PathID: 1, DayNumber: 5})

	_, err := f.uc.Run(context.Background())
	require.NoError(t, err)
	report, err := f.uc.Run(context.Background())
	require.NoError(t, err)

	require.Equal(t, 0, report.Delivered)
	require.Equal(t, 1, report.Skipped)
	require.Equal(t, 1, f.email.count())
	require.Equal(t, 1, f.ledger.count())
}

func TestRunDedupAgainstExistingRow(t *testing.T) {
	f := newDispatchFixture(t)
	f.subRepo.subs = []*DispatchSubscription{progressiveSub(1, 7, 40, "sukh@example.com")}
	f.ledger.seed(1, 7, constants.DeliveryStatusSuccess)

	report, err := f.uc.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 0, report.Delivered)
	require.Equal(t, 1, report.Skipped)
	require.Equal(t, 0, f.email.count())
	require.Equal(t, 1, f.ledger.count())
}

func TestRunPastCompletionIsTerminalSkip(t *testing.T) {
	f := newDispatchFixture(t)
	f.subRepo.subs = []*DispatchSubscription{progressiveSub(1, 41, 40, "sukh@example.com")}

	report, err := f.uc.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, report.Skipped)
	require.Equal(t, 0, f.email.count())
	// Terminal skip writes no ledger row.
	require.Equal(t, 0, f.ledger.count())
	// Auto-completion off by default.
	require.Empty(t, f.subRepo.statusUpdates)
}

func TestRunPastCompletionMarksCompleted(t *testing.T) {
	f := newDispatchFixture(t, func(f *dispatchFixture) {
		f.conf.Cron.CompleteFinished = true
	})
	f.subRepo.subs = []*DispatchSubscription{progressiveSub(1, 41, 40, "sukh@example.com")}

	_, err := f.uc.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, constants.StatusCompleted, f.subRepo.statusUpdates[1])
}

func TestRunUnboundedPathNeverCompletes(t *testing.T) {
	f := newDispatchFixture(t)
	// total_days 0 means the path has no end.
	f.subRepo.subs = []*DispatchSubscription{progressiveSub(1, 500, 0, "sukh@example.com")}
	f.content.put(1, 500, &PathContent{PathID: 1, DayNumber: 500})

	report, err := f.uc.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, report.Delivered)
}

func TestRunDailyPathIgnoresDayBound(t *testing.T) {
	f := newDispatchFixture(t)
	sub := progressiveSub(1, 999, 10, "sukh@example.com")
	sub.ContentType = constants.ContentTypeDaily
	f.subRepo.subs = []*DispatchSubscription{sub}
	f.content.daily[1] = &PathContent{PathID: 1, DayNumber: 321, Reflection: "Hukamnama of the day"}

	report, err := f.uc.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, report.Delivered)
	require.Contains(t, f.email.sent[0].subject, "Today's Reflection")
	require.Contains(t, f.email.sent[0].html, "Hukamnama of the day")
}

func TestRunMissingContentSendsFallback(t *testing.T) {
	f := newDispatchFixture(t)
	f.subRepo.subs = []*DispatchSubscription{progressiveSub(1, 9, 40, "sukh@example.com")}
	// no content seeded for day 9

	report, err := f.uc.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, report.Delivered)
	require.Contains(t, f.email.sent[0].html, fallbackReflection)
}

func TestRunContentLookupErrorIsFailed(t *testing.T) {
	f := newDispatchFixture(t)
	f.subRepo.subs = []*DispatchSubscription{progressiveSub(1, 3, 40, "sukh@example.com")}
	f.content.fetchErr = errors.New("db gone")

	report, err := f.uc.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, report.Failed)
	require.Equal(t, 0, f.email.count())

	row := f.ledger.row(1, 3)
	require.NotNil(t, row)
	require.Equal(t, constants.DeliveryStatusFailed, row.DeliveryStatus)
	require.True(t, strings.HasPrefix(row.Detail, "content resolution failed"))
}

func TestRunMissingContactIsSkipped(t *testing.T) {
	f := newDispatchFixture(t)
	f.subRepo.subs = []*DispatchSubscription{progressiveSub(1, 3, 40, "")}
	f.content.put(1, 3, &PathContent{PathID: 1, DayNumber: 3})

	report, err := f.uc.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, report.Skipped)
	require.Equal(t, 0, f.email.count())

	row := f.ledger.row(1, 3)
	require.NotNil(t, row)
	require.Equal(t, constants.DeliveryStatusSkipped, row.DeliveryStatus)
	require.Contains(t, row.Detail, "no usable contact")
}

func TestRunFailureIsolation(t *testing.T) {
	f := newDispatchFixture(t)
	bad := progressiveSub(1, 3, 40, "bad@example.com")
	good := progressiveSub(2, 8, 40, "good@example.com")
	f.subRepo.subs = []*DispatchSubscription{bad, good}
	f.content.put(1, 3, &PathContent{PathID: 1, DayNumber: 3})
	f.content.put(1, 8, &PathContent{PathID: 1, DayNumber: 8})
	f.email.errFor["bad@example.com"] = errors.New("mailbox full")

	report, err := f.uc.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, report.Total)
	require.Equal(t, 1, report.Delivered)
	require.Equal(t, 1, report.Failed)

	require.Equal(t, constants.DeliveryStatusFailed, f.ledger.row(1, 3).DeliveryStatus)
	require.Contains(t, f.ledger.row(1, 3).Detail, "mailbox full")
	require.Equal(t, constants.DeliveryStatusSuccess, f.ledger.row(2, 8).DeliveryStatus)
}

func TestRunHungProviderHitsDeadline(t *testing.T) {
	f := newDispatchFixture(t)
	f.subRepo.subs = []*DispatchSubscription{progressiveSub(1, 3, 40, "sukh@example.com")}
	f.content.put(1, 3, &PathContent{PathID: 1, DayNumber: 3})
	f.email.block = true

	report, err := f.uc.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, report.Failed)

	row := f.ledger.row(1, 3)
	require.NotNil(t, row)
	require.Contains(t, row.Detail, context.DeadlineExceeded.Error())
}

func TestRunDedupQueryErrorIsFailed(t *testing.T) {
	f := newDispatchFixture(t)
	f.subRepo.subs = []*DispatchSubscription{progressiveSub(1, 3, 40, "sukh@example.com")}
	f.ledger.hasErr = errors.New("redis timeout")

	report, err := f.uc.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, report.Failed)
	require.Equal(t, 0, f.email.count())
}

func TestRunAdvanceFailureIsFatal(t *testing.T) {
	f := newDispatchFixture(t)
	f.subRepo.subs = []*DispatchSubscription{progressiveSub(1, 3, 40, "sukh@example.com")}
	f.subRepo.advanceErr = errors.New("deadlock")

	report, err := f.uc.Run(context.Background())
	require.Error(t, err)
	require.Nil(t, report)
	require.Equal(t, 0, f.subRepo.listCalls)
	require.Equal(t, 0, f.email.count())
}

func TestRunLoadFailureIsFatal(t *testing.T) {
	f := newDispatchFixture(t)
	f.subRepo.listErr = errors.New("connection refused")

	report, err := f.uc.Run(context.Background())
	require.Error(t, err)
	require.Nil(t, report)
	require.Equal(t, 0, f.email.count())
}

func TestRunEmptyBatch(t *testing.T) {
	f := newDispatchFixture(t)

	report, err := f.uc.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 0, report.Total)
	require.Equal(t, 1, f.subRepo.advanceCalls)
}

func TestRunLockBusy(t *testing.T) {
	f := newDispatchFixture(t)
	f.subRepo.subs = []*DispatchSubscription{progressiveSub(1, 3, 40, "sukh@example.com")}

	// Hold the lock the way a concurrent run would.
	mutex := f.uc.rs.NewMutex(constants.DispatchLockKey)
	require.NoError(t, mutex.Lock())
	defer func() { _, _ = mutex.Unlock() }()

	report, err := f.uc.Run(context.Background())
	require.NoError(t, err)
	require.True(t, report.AlreadyRunning)
	require.Equal(t, 0, f.subRepo.advanceCalls)
	require.Equal(t, 0, f.email.count())
}

func TestRunConcurrentAppendCollisionIsSilent(t *testing.T) {
	// Another run wrote the ledger row between our dedup check and the append.
	f := newDispatchFixture(t)
	f.subRepo.subs = []*DispatchSubscription{progressiveSub(1, 3, 40, "sukh@example.com")}
	f.content.put(1, 3, &PathContent{PathID: 1, DayNumber: 3})
	f.ledger.appendErr = ErrDuplicateDelivery

	report, err := f.uc.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 0, report.Delivered)
	require.Equal(t, 0, report.Failed)
	require.Equal(t, 1, report.Skipped)
}

func TestRunMixedBatch(t *testing.T) {
	f := newDispatchFixture(t)
	delivered := progressiveSub(1, 3, 40, "a@example.com")
	alreadyDone := progressiveSub(2, 5, 40, "b@example.com")
	finished := progressiveSub(3, 41, 40, "c@example.com")
	noContact := progressiveSub(4, 2, 40, "")
	f.subRepo.subs = []*DispatchSubscription{delivered, alreadyDone, finished, noContact}
	f.content.put(1, 3, &PathContent{PathID: 1, DayNumber: 3})
	f.content.put(1, 2, &PathContent{PathID: 1, DayNumber: 2})
	f.ledger.seed(2, 5, constants.DeliveryStatusSuccess)

	report, err := f.uc.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 4, report.Total)
	require.Equal(t, 1, report.Delivered)
	require.Equal(t, 0, report.Failed)
	require.Equal(t, 3, report.Skipped)
	require.Equal(t, 1, f.email.count())
}
