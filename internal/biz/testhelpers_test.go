package biz

import (
	"context"
	"fmt"
	"io"
	"sync"
	"testing"

	"github.com/dyalgarh/gurbani-vyakhya-dev/internal/conf"
	"github.com/dyalgarh/gurbani-vyakhya-dev/internal/constants"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/redis/go-redis/v9"
)

func testLogger() log.Logger {
	return log.NewStdLogger(io.Discard)
}

func testConf() *conf.Bootstrap {
	return &conf.Bootstrap{
		Cron: &conf.Cron{
			Enabled:         true,
			Secret:          "test-secret",
			WorkerCount:     2,
			DeliveryTimeout: "250ms",
			LockExpiry:      "30s",
		},
		Delivery: &conf.Delivery{BaseURL: "https://example.org/"},
	}
}

func testRedsync(t *testing.T) *redsync.Redsync {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return redsync.New(goredis.NewPool(client))
}

// ---------------------------------------------------------------------------
// fakes
// ---------------------------------------------------------------------------

type fakeSubRepo struct {
	mu sync.Mutex

	subs       []*DispatchSubscription
	advanceErr error
	listErr    error

	advanceCalls  int
	listCalls     int
	statusUpdates map[uint64]string

	bySecureToken      map[string]*Subscription
	byUnsubscribeToken map[string]*Subscription
	created            []*Subscription
	createErr          error
	paid               map[string]bool
}

func newFakeSubRepo() *fakeSubRepo {
	return &fakeSubRepo{
		statusUpdates:      make(map[uint64]string),
		bySecureToken:      make(map[string]*Subscription),
		byUnsubscribeToken: make(map[string]*Subscription),
		paid:               make(map[string]bool),
	}
}

func (f *fakeSubRepo) CreateSubscription(_ context.Context, sub *Subscription) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	sub.ID = uint64(len(f.created) + 1)
	f.created = append(f.created, sub)
	return nil
}

func (f *fakeSubRepo) GetBySecureToken(_ context.Context, token string) (*Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.bySecureToken[token], nil
}

func (f *fakeSubRepo) GetByUnsubscribeToken(_ context.Context, token string) (*Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.byUnsubscribeToken[token], nil
}

func (f *fakeSubRepo) UpdateStatus(_ context.Context, id uint64, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statusUpdates[id] = status
	return nil
}

func (f *fakeSubRepo) MarkPaid(_ context.Context, userID, pathID uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.paid[fmt.Sprintf("%d/%d", userID, pathID)] = true
	return nil
}

func (f *fakeSubRepo) AdvanceActiveDay(_ context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.advanceCalls++
	if f.advanceErr != nil {
		return 0, f.advanceErr
	}
	return int64(len(f.subs)), nil
}

func (f *fakeSubRepo) ListActiveForDispatch(_ context.Context) ([]*DispatchSubscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.subs, nil
}

type fakePathRepo struct {
	paths map[uint64]*Path
}

func (f *fakePathRepo) GetPath(_ context.Context, id uint64) (*Path, error) {
	return f.paths[id], nil
}

type fakeContentRepo struct {
	mu       sync.Mutex
	byDay    map[string]*PathContent // "pathID/day"
	daily    map[uint64]*PathContent
	fetchErr error
}

func newFakeContentRepo() *fakeContentRepo {
	return &fakeContentRepo{
		byDay: make(map[string]*PathContent),
		daily: make(map[uint64]*PathContent),
	}
}

func (f *fakeContentRepo) put(pathID uint64, day int, content *PathContent) {
	f.byDay[fmt.Sprintf("%d/%d", pathID, day)] = content
}

func (f *fakeContentRepo) GetContentByDay(_ context.Context, pathID uint64, day int) (*PathContent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return f.byDay[fmt.Sprintf("%d/%d", pathID, day)], nil
}

func (f *fakeContentRepo) GetLatestDailyContent(_ context.Context, pathID uint64) (*PathContent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return f.daily[pathID], nil
}

type fakeLedger struct {
	mu        sync.Mutex
	rows      map[string]*DeliveryLog // "subID/day"
	hasErr    error
	appendErr error
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{rows: make(map[string]*DeliveryLog)}
}

func ledgerKey(subscriptionID uint64, day int) string {
	return fmt.Sprintf("%d/%d", subscriptionID, day)
}

func (f *fakeLedger) seed(subscriptionID uint64, day int, status string) {
	f.rows[ledgerKey(subscriptionID, day)] = &DeliveryLog{
		SubscriptionID: subscriptionID,
		DayNumber:      day,
		DeliveryStatus: status,
	}
}

func (f *fakeLedger) HasDelivery(_ context.Context, subscriptionID uint64, day int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.hasErr != nil {
		return false, f.hasErr
	}
	_, ok := f.rows[ledgerKey(subscriptionID, day)]
	return ok, nil
}

func (f *fakeLedger) Append(_ context.Context, entry *DeliveryLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.appendErr != nil {
		return f.appendErr
	}
	key := ledgerKey(entry.SubscriptionID, entry.DayNumber)
	if _, ok := f.rows[key]; ok {
		return ErrDuplicateDelivery
	}
	f.rows[key] = entry
	return nil
}

func (f *fakeLedger) row(subscriptionID uint64, day int) *DeliveryLog {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rows[ledgerKey(subscriptionID, day)]
}

func (f *fakeLedger) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.rows)
}

type sentEmail struct {
	to      string
	subject string
	html    string
}

type fakeEmailSender struct {
	mu     sync.Mutex
	sent   []sentEmail
	errFor map[string]error
	// block makes sends hang until the context expires.
	block bool
}

func newFakeEmailSender() *fakeEmailSender {
	return &fakeEmailSender{errFor: make(map[string]error)}
}

func (f *fakeEmailSender) SendEmail(ctx context.Context, to, subject, htmlBody string) error {
	if f.block {
		<-ctx.Done()
		return ctx.Err()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.errFor[to]; err != nil {
		return err
	}
	f.sent = append(f.sent, sentEmail{to: to, subject: subject, html: htmlBody})
	return nil
}

func (f *fakeEmailSender) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

type fakeSMSSender struct {
	mu     sync.Mutex
	sent   map[string]string // to -> body
	errFor map[string]error
}

func newFakeSMSSender() *fakeSMSSender {
	return &fakeSMSSender{sent: make(map[string]string), errFor: make(map[string]error)}
}

func (f *fakeSMSSender) SendSMS(_ context.Context, to, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.errFor[to]; err != nil {
		return err
	}
	f.sent[to] = body
	return nil
}

type fakeTx struct{}

func (fakeTx) Exec(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakePaymentClient struct {
	mu        sync.Mutex
	createErr error
	sessions  map[string]*CheckoutSession
	metadata  map[string]map[string]string
	nextID    int
	event     *WebhookEvent
	verifyErr error
}

func newFakePaymentClient() *fakePaymentClient {
	return &fakePaymentClient{
		sessions: make(map[string]*CheckoutSession),
		metadata: make(map[string]map[string]string),
	}
}

func (f *fakePaymentClient) CreateCheckoutSession(_ context.Context, email string, amountCents int64, currency, productName string, metadata map[string]string) (string, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return "", "", f.createErr
	}
	f.nextID++
	id := fmt.Sprintf("cs_test_%d", f.nextID)
	f.sessions[id] = &CheckoutSession{ID: id, URL: "https://checkout.stripe.com/" + id, Metadata: metadata}
	return id, "https://checkout.stripe.com/" + id, nil
}

func (f *fakePaymentClient) GetCheckoutSession(_ context.Context, sessionID string) (*CheckoutSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sessions[sessionID], nil
}

func (f *fakePaymentClient) VerifyWebhook(_ []byte, _ string) (*WebhookEvent, error) {
	if f.verifyErr != nil {
		return nil, f.verifyErr
	}
	return f.event, nil
}

type fakeDonationRepo struct {
	mu        sync.Mutex
	donations []*Donation
	succeeded map[string]string // sessionID -> paymentIntentID
}

func newFakeDonationRepo() *fakeDonationRepo {
	return &fakeDonationRepo{succeeded: make(map[string]string)}
}

func (f *fakeDonationRepo) CreateDonation(_ context.Context, d *Donation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	d.ID = uint64(len(f.donations) + 1)
	f.donations = append(f.donations, d)
	return nil
}

func (f *fakeDonationRepo) MarkSucceeded(_ context.Context, stripeSessionID, paymentIntentID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.succeeded[stripeSessionID] = paymentIntentID
	return nil
}

// ---------------------------------------------------------------------------
// dispatch fixture
// ---------------------------------------------------------------------------

type dispatchFixture struct {
	uc      *DispatchUsecase
	subRepo *fakeSubRepo
	content *fakeContentRepo
	ledger  *fakeLedger
	email   *fakeEmailSender
	sms     *fakeSMSSender
	conf    *conf.Bootstrap
}

func newDispatchFixture(t *testing.T, mutate ...func(*dispatchFixture)) *dispatchFixture {
	t.Helper()
	f := &dispatchFixture{
		subRepo: newFakeSubRepo(),
		content: newFakeContentRepo(),
		ledger:  newFakeLedger(),
		email:   newFakeEmailSender(),
		sms:     newFakeSMSSender(),
		conf:    testConf(),
	}
	for _, m := range mutate {
		m(f)
	}
	composer := NewMessageComposer(f.conf)
	f.uc = NewDispatchUsecase(f.conf, f.subRepo, f.content, f.ledger, f.email, f.sms, composer, testRedsync(t), testLogger())
	return f
}

func progressiveSub(id uint64, day, totalDays int, email string) *DispatchSubscription {
	return &DispatchSubscription{
		SubscriptionID:   id,
		PathID:           1,
		PathName:         "Japji Sahib",
		ContentType:      constants.ContentTypeProgressive,
		TotalDays:        totalDays,
		CurrentDay:       day,
		DeliveryMethod:   constants.DeliveryMethodEmail,
		SecureToken:      fmt.Sprintf("secure-%d", id),
		UnsubscribeToken: fmt.Sprintf("unsub-%d", id),
		Email:            email,
	}
}
