package server

import (
	"encoding/json"
	"io"
	stdhttp "net/http"
	"time"

	"github.com/dyalgarh/gurbani-vyakhya-dev/internal/conf"
	"github.com/dyalgarh/gurbani-vyakhya-dev/internal/service"

	kerrors "github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/middleware/recovery"
	"github.com/go-kratos/kratos/v2/transport/http"
	"github.com/google/wire"
)

// ProviderSet is server providers.
var ProviderSet = wire.NewSet(NewHTTPServer)

// NewHTTPServer new an HTTP server.
func NewHTTPServer(c *conf.Bootstrap, sub *service.SubscriptionService, dispatch *service.DispatchService, donation *service.DonationService, logger log.Logger) *http.Server {
	var opts = []http.ServerOption{
		http.Middleware(
			recovery.Recovery(),
		),
		http.ErrorEncoder(customErrorEncoder),
	}
	if c.Server.Http.Addr != "" {
		opts = append(opts, http.Address(c.Server.Http.Addr))
	}
	if c.Server.Http.Timeout != "" {
		if d, err := time.ParseDuration(c.Server.Http.Timeout); err == nil {
			opts = append(opts, http.Timeout(d))
		}
	}
	srv := http.NewServer(opts...)

	registerRoutes(srv, sub, dispatch, donation)

	// 健康检查
	srv.Route("/").GET("/health", func(ctx http.Context) error {
		return ctx.Result(200, map[string]string{"status": "ok", "service": "gurbani-vyakhya"})
	})

	return srv
}

func registerRoutes(srv *http.Server, sub *service.SubscriptionService, dispatch *service.DispatchService, donation *service.DonationService) {
	api := srv.Route("/api")

	api.POST("/signup", func(ctx http.Context) error {
		var req service.SignupRequest
		if err := ctx.Bind(&req); err != nil {
			return err
		}
		reply, err := sub.Signup(ctx, &req)
		if err != nil {
			return err
		}
		return ctx.Result(200, reply)
	})

	api.POST("/unsubscribe", func(ctx http.Context) error {
		var req service.UnsubscribeRequest
		if err := ctx.Bind(&req); err != nil {
			return err
		}
		reply, err := sub.Unsubscribe(ctx, &req)
		if err != nil {
			return err
		}
		return ctx.Result(200, reply)
	})

	api.GET("/todays-path", func(ctx http.Context) error {
		var req service.TodaysPathRequest
		if err := ctx.BindQuery(&req); err != nil {
			return err
		}
		reply, err := sub.TodaysPath(ctx, &req)
		if err != nil {
			return err
		}
		return ctx.Result(200, reply)
	})

	api.POST("/confirm-payment", func(ctx http.Context) error {
		var req service.ConfirmPaymentRequest
		if err := ctx.Bind(&req); err != nil {
			return err
		}
		reply, err := sub.ConfirmPayment(ctx, &req)
		if err != nil {
			return err
		}
		return ctx.Result(200, reply)
	})

	api.POST("/donate", func(ctx http.Context) error {
		var req service.DonateRequest
		if err := ctx.Bind(&req); err != nil {
			return err
		}
		reply, err := donation.Donate(ctx, &req)
		if err != nil {
			return err
		}
		return ctx.Result(200, reply)
	})

	// Stripe 需要原始 body 做签名校验
	api.POST("/stripe-webhook", func(ctx http.Context) error {
		payload, err := io.ReadAll(ctx.Request().Body)
		if err != nil {
			return kerrors.BadRequest("READ_BODY", "failed to read request body")
		}
		reply, err := donation.StripeWebhook(ctx, payload, ctx.Header().Get("Stripe-Signature"))
		if err != nil {
			return err
		}
		return ctx.Result(200, reply)
	})

	// 定时触发: secret 来自 header 或 query
	api.POST("/cron/daily", func(ctx http.Context) error {
		secret := ctx.Header().Get("X-Cron-Secret")
		if secret == "" {
			secret = ctx.Request().URL.Query().Get("secret")
		}
		reply, err := dispatch.TriggerDaily(ctx, secret)
		if err != nil {
			return err
		}
		return ctx.Result(200, reply)
	})
}

func customErrorEncoder(w stdhttp.ResponseWriter, r *stdhttp.Request, err error) {
	se := kerrors.FromError(err)
	status := stdhttp.StatusInternalServerError
	response := map[string]interface{}{
		"ok":      false,
		"message": "internal server error",
	}

	if se != nil {
		status = mapErrorStatus(int(se.Code))
		response["reason"] = se.Reason
		response["message"] = se.Message
	} else if err != nil {
		response["message"] = err.Error()
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(response)
}

func mapErrorStatus(code int) int {
	if code >= 100 && code < 600 {
		return code
	}
	return stdhttp.StatusInternalServerError
}
