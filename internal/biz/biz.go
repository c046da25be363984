package biz

import (
	"context"

	"github.com/google/wire"
)

// ProviderSet is biz providers.
var ProviderSet = wire.NewSet(
	NewMessageComposer,
	NewSubscriptionUsecase,
	NewContentUsecase,
	NewDispatchUsecase,
	NewDonationUsecase,
)

// Transaction 事务接口
type Transaction interface {
	Exec(ctx context.Context, fn func(ctx context.Context) error) error
}
