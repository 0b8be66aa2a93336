package repository

import (
	"database/sql"

	"github.com/octans/marketplace/base/ctx"
	"github.com/octans/marketplace/base/log"
	"github.com/octans/marketplace/domain"
	"github.com/octans/marketplace/domain/journal"
	"golang.org/x/xerrors"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS settlement_events (
	id         TEXT PRIMARY KEY,
	topic      TEXT NOT NULL,
	payload    TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_settlement_events_topic ON settlement_events (topic, created_at);
`

type journalRepoImpl struct {
	db *sql.DB
}

// NewJournalRepo opens (and migrates) the settlement journal at dsn.
// Use ":memory:" for an ephemeral journal.
func NewJournalRepo(dsn string) (journal.Repo, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, xerrors.Errorf("open journal: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, xerrors.Errorf("migrate journal: %w", err)
	}
	return &journalRepoImpl{db: db}, nil
}

func (im *journalRepoImpl) Insert(c ctx.Ctx, entry *journal.Entry) error {
	if entry == nil || entry.Id == "" {
		return domain.ErrBadParamInput
	}

	_, err := im.db.ExecContext(c, `INSERT INTO settlement_events (id, topic, payload, created_at) VALUES (?, ?, ?, ?)`,
		entry.Id, entry.Topic, entry.Payload, entry.CreatedAt)
	if err != nil {
		c.WithFields(log.Fields{
			"err":   err,
			"topic": entry.Topic,
		}).Error("failed to insert journal entry")
		return err
	}
	return nil
}

func (im *journalRepoImpl) FindAll(c ctx.Ctx, opts ...journal.FindAllOptions) ([]*journal.Entry, error) {
	options, err := journal.GetFindAllOptions(opts...)
	if err != nil {
		return nil, err
	}

	query := `SELECT id, topic, payload, created_at FROM settlement_events`
	args := []interface{}{}
	if options.Topic != nil {
		query += ` WHERE topic = ?`
		args = append(args, *options.Topic)
	}
	query += ` ORDER BY created_at, id`
	if options.Limit != nil {
		query += ` LIMIT ? OFFSET ?`
		offset := int32(0)
		if options.Offset != nil {
			offset = *options.Offset
		}
		args = append(args, *options.Limit, offset)
	}

	rows, err := im.db.QueryContext(c, query, args...)
	if err != nil {
		c.WithField("err", err).Error("failed to query journal")
		return nil, err
	}
	defer rows.Close()

	res := []*journal.Entry{}
	for rows.Next() {
		entry := &journal.Entry{}
		if err := rows.Scan(&entry.Id, &entry.Topic, &entry.Payload, &entry.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, entry)
	}
	return res, rows.Err()
}

func (im *journalRepoImpl) Count(c ctx.Ctx, opts ...journal.FindAllOptions) (int, error) {
	options, err := journal.GetFindAllOptions(opts...)
	if err != nil {
		return 0, err
	}

	query := `SELECT COUNT(*) FROM settlement_events`
	args := []interface{}{}
	if options.Topic != nil {
		query += ` WHERE topic = ?`
		args = append(args, *options.Topic)
	}

	var count int
	if err := im.db.QueryRowContext(c, query, args...).Scan(&count); err != nil {
		c.WithField("err", err).Error("failed to count journal")
		return 0, err
	}
	return count, nil
}
