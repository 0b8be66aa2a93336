package repository

import (
	"time"

	"github.com/octans/marketplace/base/ctx"
	hcdomain "github.com/octans/marketplace/domain/healthcheck"
	"github.com/octans/marketplace/domain/journal"
)

type impl struct {
	journal journal.Repo
}

// New creates new healthCheckRepo backed by the settlement journal store
func New(journalRepo journal.Repo) hcdomain.HealthCheckRepo {
	return &impl{
		journal: journalRepo,
	}
}

func (im *impl) PingDB(context ctx.Ctx) error {
	ctx, cancel := ctx.WithTimeout(context, 2*time.Second)
	defer cancel()
	if _, err := im.journal.Count(ctx); err != nil {
		context.WithField("err", err).Error("ping journal store error")
		return err
	}
	return nil
}
