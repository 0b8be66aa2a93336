package journal

import (
	"time"

	"github.com/octans/marketplace/base/ctx"
)

// Entry is one persisted settlement event. Id is assigned by the writer;
// Payload is the event's JSON encoding.
type Entry struct {
	Id        string    `json:"id"`
	Topic     string    `json:"topic"`
	Payload   string    `json:"payload"`
	CreatedAt time.Time `json:"createdAt"`
}

type findAllOptions struct {
	Topic  *string
	Offset *int32
	Limit  *int32
}

type FindAllOptions func(*findAllOptions) error

func GetFindAllOptions(opts ...FindAllOptions) (findAllOptions, error) {
	res := findAllOptions{}

	for _, opt := range opts {
		if err := opt(&res); err != nil {
			return res, err
		}
	}

	return res, nil
}

func WithTopic(topic string) FindAllOptions {
	return func(options *findAllOptions) error {
		options.Topic = &topic
		return nil
	}
}

func WithPagination(offset, limit int32) FindAllOptions {
	return func(options *findAllOptions) error {
		options.Offset = &offset
		options.Limit = &limit
		return nil
	}
}

type Repo interface {
	Insert(c ctx.Ctx, entry *Entry) error
	FindAll(c ctx.Ctx, opts ...FindAllOptions) ([]*Entry, error)
	Count(c ctx.Ctx, opts ...FindAllOptions) (int, error)
}

type UseCase interface {
	// Subscribe starts recording every settlement event published on the bus.
	Subscribe() error

	GetEntries(c ctx.Ctx, opts ...FindAllOptions) ([]*Entry, error)
	CountEntries(c ctx.Ctx, opts ...FindAllOptions) (int, error)
}
