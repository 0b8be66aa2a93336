package usecase

import (
	"encoding/json"
	"time"

	"github.com/asaskevich/EventBus"
	"github.com/google/uuid"
	"github.com/octans/marketplace/base/ctx"
	"github.com/octans/marketplace/base/log"
	"github.com/octans/marketplace/domain"
	"github.com/octans/marketplace/domain/journal"
)

var topics = []string{
	domain.TopicListed,
	domain.TopicListingUpdated,
	domain.TopicListingCanceled,
	domain.TopicItemSold,
	domain.TopicAuctionCreated,
	domain.TopicBidPlaced,
	domain.TopicBidRefunded,
	domain.TopicAuctionResulted,
	domain.TopicAuctionCancelled,
}

type JournalUseCaseCfg struct {
	JournalRepo journal.Repo
	Bus         EventBus.Bus

	// Now is the journal clock; defaults to time.Now.
	Now func() time.Time
}

type impl struct {
	journalRepo journal.Repo
	bus         EventBus.Bus
	now         func() time.Time
}

func New(cfg *JournalUseCaseCfg) journal.UseCase {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &impl{
		journalRepo: cfg.JournalRepo,
		bus:         cfg.Bus,
		now:         now,
	}
}

func (im *impl) Subscribe() error {
	for _, topic := range topics {
		topic := topic
		if err := im.bus.Subscribe(topic, func(ev interface{}) {
			im.record(topic, ev)
		}); err != nil {
			return err
		}
	}
	return nil
}

func (im *impl) record(topic string, ev interface{}) {
	c := ctx.Background()

	payload, err := json.Marshal(ev)
	if err != nil {
		c.WithFields(log.Fields{
			"err":   err,
			"topic": topic,
		}).Error("failed to marshal event")
		return
	}

	entry := &journal.Entry{
		Id:        uuid.NewString(),
		Topic:     topic,
		Payload:   string(payload),
		CreatedAt: im.now().UTC(),
	}
	if err := im.journalRepo.Insert(c, entry); err != nil {
		c.WithFields(log.Fields{
			"err":   err,
			"topic": topic,
		}).Error("failed to journalRepo.Insert")
	}
}

func (im *impl) GetEntries(c ctx.Ctx, opts ...journal.FindAllOptions) ([]*journal.Entry, error) {
	res, err := im.journalRepo.FindAll(c, opts...)
	if err != nil {
		c.WithField("err", err).Error("failed to journalRepo.FindAll")
		return nil, err
	}
	return res, nil
}

func (im *impl) CountEntries(c ctx.Ctx, opts ...journal.FindAllOptions) (int, error) {
	res, err := im.journalRepo.Count(c, opts...)
	if err != nil {
		c.WithField("err", err).Error("failed to journalRepo.Count")
		return 0, err
	}
	return res, nil
}
