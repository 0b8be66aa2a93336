package healthcheck

import (
	"github.com/octans/marketplace/base/ctx"
)

// HealthCheckUsecase reports whether the service and its journal
// storage are able to serve traffic.
type HealthCheckUsecase interface {
	Check(c ctx.Ctx) error
}

// HealthCheckRepo is repository layer of healthCheck
type HealthCheckRepo interface {
	PingDB(c ctx.Ctx) error
}
