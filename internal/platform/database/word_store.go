package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/phrazzld/wordqueue/internal/domain"
	"github.com/phrazzld/wordqueue/internal/platform/logger"
	"github.com/phrazzld/wordqueue/internal/store"
)

// insertBatchSize bounds the rows per INSERT statement so a large file
// stays under the bind parameter limits of both databases.
const insertBatchSize = 500

// sortColumns maps each allowed sort field to its column. Only these
// literals are ever interpolated into ORDER BY.
var sortColumns = map[store.SortField]string{
	store.SortFieldFilename: "filename",
	store.SortFieldFilepath: "filepath",
	store.SortFieldToken:    "token",
}

// wordEntity names words in store errors.
const wordEntity = "word"

// WordStore implements store.WordStore on a SQL database.
type WordStore struct {
	db *DB
}

var _ store.WordStore = (*WordStore)(nil)

// NewWordStore creates a new WordStore.
func NewWordStore(db *DB) *WordStore {
	return &WordStore{db: db}
}

// CreateMany inserts all words in one transaction. Either every word is
// stored or none is. IDs assigned by the database are not read back.
func (s *WordStore) CreateMany(ctx context.Context, words []*domain.Word) error {
	if len(words) == 0 {
		return nil
	}

	for _, w := range words {
		if err := w.Validate(); err != nil {
			return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
		}
	}

	log := logger.FromContext(ctx)

	err := store.RunInTransaction(ctx, s.db.DB, func(ctx context.Context, tx *sql.Tx) error {
		for start := 0; start < len(words); start += insertBatchSize {
			end := min(start+insertBatchSize, len(words))
			if err := insertWords(ctx, tx, words[start:end]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Error("failed to insert words", "count", len(words), "error", err)
		return store.NewStoreError(wordEntity, "create", "failed to insert words", MapError(err))
	}

	log.Debug("inserted words", "count", len(words))
	return nil
}

func insertWords(ctx context.Context, tx store.DBTX, words []*domain.Word) error {
	var b strings.Builder
	b.WriteString("INSERT INTO words (filename, filepath, token) VALUES ")

	args := make([]any, 0, len(words)*3)
	for i, w := range words {
		if i > 0 {
			b.WriteString(", ")
		}
		n := i * 3
		fmt.Fprintf(&b, "($%d, $%d, $%d)", n+1, n+2, n+3)
		args = append(args, w.Filename, w.Filepath, w.Token)
	}

	_, err := tx.ExecContext(ctx, b.String(), args...)
	return err
}

// List returns one window of words and the total word count. Both are read
// in one transaction that sees a single snapshot, so a concurrent ingestion
// is either fully counted and visible or neither.
func (s *WordStore) List(ctx context.Context, params store.ListParams) (store.WordPage, error) {
	if err := params.Validate(); err != nil {
		return store.WordPage{}, err
	}

	query := "SELECT id, filename, filepath, token FROM words ORDER BY " +
		orderBy(params) + " LIMIT $1 OFFSET $2"

	var page store.WordPage
	err := store.RunInTransactionWithOptions(ctx, s.db.DB, snapshotTxOptions(s.db.Dialect()), func(ctx context.Context, tx *sql.Tx) error {
		if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM words").Scan(&page.Count); err != nil {
			return fmt.Errorf("failed to count words: %w", err)
		}

		rows, err := tx.QueryContext(ctx, query, params.Limit, params.Offset)
		if err != nil {
			return fmt.Errorf("failed to query words: %w", err)
		}
		defer func() { _ = rows.Close() }()

		page.Items = make([]*domain.Word, 0, params.Limit)
		for rows.Next() {
			var w domain.Word
			if err := rows.Scan(&w.ID, &w.Filename, &w.Filepath, &w.Token); err != nil {
				return fmt.Errorf("failed to scan word: %w", err)
			}
			page.Items = append(page.Items, &w)
		}
		return rows.Err()
	})
	if err != nil {
		return store.WordPage{}, store.NewStoreError(wordEntity, "list", "failed to list words", MapError(err))
	}

	return page, nil
}

// snapshotTxOptions returns the options for a read-only transaction whose
// statements share one snapshot. Postgres needs REPEATABLE READ for that;
// its default READ COMMITTED takes a new snapshot per statement. A SQLite
// read transaction already reads from a single snapshot, and the driver
// takes the defaults.
func snapshotTxOptions(dialect Dialect) *sql.TxOptions {
	if dialect == DialectPostgres {
		return &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}
	}
	return nil
}

// orderBy builds the ORDER BY clause from validated params. Rows with the
// same sort value keep insertion order.
func orderBy(params store.ListParams) string {
	column, ok := sortColumns[params.SortField]
	if !ok {
		return "id ASC"
	}

	direction := "ASC"
	if order, _ := store.ParseSortOrder(string(params.SortOrder)); order == store.SortDesc {
		direction = "DESC"
	}
	return column + " " + direction + ", id ASC"
}

// Reset deletes every word.
func (s *WordStore) Reset(ctx context.Context) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM words")
	if err != nil {
		return store.NewStoreError(wordEntity, "reset", "failed to delete words", MapError(err))
	}

	if n, err := res.RowsAffected(); err == nil {
		logger.FromContext(ctx).Info("reset words table", "deleted", n)
	}
	return nil
}
