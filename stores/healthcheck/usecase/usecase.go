package usecase

import (
	"github.com/octans/marketplace/base/ctx"
	hcdomain "github.com/octans/marketplace/domain/healthcheck"
	"github.com/octans/marketplace/base/log"
)

type impl struct {
	repo hcdomain.HealthCheckRepo
}

// New creates new healthCheckUsecase object representation of HealthCheckUsecase interface
func New(repo hcdomain.HealthCheckRepo) hcdomain.HealthCheckUsecase {
	return &impl{
		repo: repo,
	}
}

func (im *impl) Check(c ctx.Ctx) error {
	if err := im.repo.PingDB(c); err != nil {
		c.WithFields(log.Fields{"err": err}).Error("healthcheck ping failed")
		return err
	}
	return nil
}
