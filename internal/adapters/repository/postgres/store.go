package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/vncsmyrnk/tabletop/internal/core/ports"
)

// DBTX is what the repositories need from either *sql.DB or *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{
		db: db,
	}
}

var _ ports.UnitOfWork = (*Store)(nil)

func (s *Store) Do(ctx context.Context, fn func(ctx context.Context, repos ports.Repositories) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(ctx, NewRepositories(tx)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

type repositories struct {
	db DBTX
}

// NewRepositories binds every repository to db, typically a transaction.
func NewRepositories(db DBTX) ports.Repositories {
	return repositories{db: db}
}

func (r repositories) Members() ports.MemberRepository         { return NewMemberRepository(r.db) }
func (r repositories) Events() ports.EventRepository           { return NewEventRepository(r.db) }
func (r repositories) Games() ports.GameRepository             { return NewGameRepository(r.db) }
func (r repositories) Suggestions() ports.SuggestionRepository { return NewSuggestionRepository(r.db) }
func (r repositories) Votes() ports.VoteRepository             { return NewVoteRepository(r.db) }
func (r repositories) Polls() ports.PollRepository             { return NewPollRepository(r.db) }
func (r repositories) Messages() ports.MessageRepository       { return NewMessageRepository(r.db) }
func (r repositories) Rsvps() ports.RsvpRepository             { return NewRsvpRepository(r.db) }
