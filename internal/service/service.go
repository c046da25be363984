package service

import (
	"github.com/dyalgarh/gurbani-vyakhya-dev/internal/biz"

	"github.com/google/wire"
)

// ProviderSet is service providers.
var ProviderSet = wire.NewSet(
	NewSubscriptionService,
	NewDispatchService,
	NewDonationService,
	wire.Bind(new(DispatchRunner), new(*biz.DispatchUsecase)),
)
