package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/hugr-lab/dynfilter/filter"
	"github.com/hugr-lab/dynfilter/paging"
)

// DuckDBConfig configures a DuckDBStore.
type DuckDBConfig struct {
	// DB is an open DuckDB connection pool.
	// REQUIRED: MUST NOT be nil.
	DB *sql.DB

	// Tables maps entity names to table or view names.
	// REQUIRED: entities without a table are reported as ErrUnknownEntity.
	Tables map[string]string

	// Encoder configures column rendering for filters and sort keys.
	// OPTIONAL: field paths are rendered as struct field access when nil.
	Encoder *filter.EncoderOptions

	// Logger for query logging.
	// OPTIONAL: Uses slog.Default() if nil.
	Logger *slog.Logger
}

// DuckDBStore runs queries as SQL against DuckDB.
type DuckDBStore struct {
	db      *sql.DB
	tables  map[string]string
	encoder *filter.DuckDBEncoder
	logger  *slog.Logger
}

// OpenDuckDB opens a DuckDB database. An empty dsn opens an in-memory database.
func OpenDuckDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("duckdb", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open duckdb: %w", err)
	}
	return db, nil
}

// NewDuckDBStore creates a store over config.DB.
func NewDuckDBStore(config DuckDBConfig) (*DuckDBStore, error) {
	if config.DB == nil {
		return nil, errors.New("duckdb store: db is required")
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	tables := make(map[string]string, len(config.Tables))
	for entity, table := range config.Tables {
		tables[entity] = table
	}

	return &DuckDBStore{
		db:      config.DB,
		tables:  tables,
		encoder: filter.NewDuckDBEncoder(config.Encoder),
		logger:  logger,
	}, nil
}

// Find implements Executor. It counts the matching rows, then selects the
// requested page ordered by the sort keys.
func (s *DuckDBStore) Find(ctx context.Context, q Query) (paging.Page[Record], error) {
	table, ok := s.tables[q.Entity]
	if !ok {
		return paging.Page[Record]{}, fmt.Errorf("%w: %s", ErrUnknownEntity, q.Entity)
	}

	where, err := s.whereClause(q.Where)
	if err != nil {
		return paging.Page[Record]{}, err
	}
	from := " FROM " + filter.QuotePath(table) + where

	var total int64
	countQuery := "SELECT count(*)" + from
	s.logger.Debug("Counting rows", "entity", q.Entity, "query", countQuery)
	if err := s.db.QueryRowContext(ctx, countQuery).Scan(&total); err != nil {
		return paging.Page[Record]{}, fmt.Errorf("failed to count %s: %w", q.Entity, err)
	}

	selectQuery := "SELECT *" + from + s.orderBy(q.Pageable.Sort) + limitClause(q.Pageable)
	s.logger.Debug("Selecting rows", "entity", q.Entity, "query", selectQuery)

	rows, err := s.db.QueryContext(ctx, selectQuery)
	if err != nil {
		return paging.Page[Record]{}, fmt.Errorf("failed to query %s: %w", q.Entity, err)
	}
	defer rows.Close()

	content, err := scanRecords(rows)
	if err != nil {
		return paging.Page[Record]{}, fmt.Errorf("failed to read %s: %w", q.Entity, err)
	}

	return paging.NewPage(content, q.Pageable, total), nil
}

func (s *DuckDBStore) whereClause(where filter.Expression) (string, error) {
	if where == nil || filter.IsTrue(where) {
		return "", nil
	}
	cond, ok := s.encoder.EncodeStrict(where)
	if !ok {
		return "", fmt.Errorf("%w: %T cannot be rendered as SQL", ErrUnsupportedPredicate, where)
	}
	return " WHERE " + cond, nil
}

func (s *DuckDBStore) orderBy(sort paging.Sort) string {
	if len(sort) == 0 {
		return ""
	}

	keys := make([]string, 0, len(sort))
	for _, o := range sort {
		key := s.encoder.Encode(filter.Column(o.Property, ""))
		if o.Direction == paging.Desc {
			key += " DESC"
		} else {
			key += " ASC"
		}
		switch o.Nulls {
		case paging.NullsFirst:
			key += " NULLS FIRST"
		case paging.NullsLast:
			key += " NULLS LAST"
		}
		keys = append(keys, key)
	}
	return " ORDER BY " + strings.Join(keys, ", ")
}

// maxOffset is the largest OFFSET DuckDB accepts; any larger offset is past
// the end of every table anyway.
const maxOffset = 1<<62 - 1

func limitClause(p paging.Pageable) string {
	if p.Size <= 0 {
		return ""
	}
	return fmt.Sprintf(" LIMIT %d OFFSET %d", p.Size, min(p.Offset(), maxOffset))
}

// scanRecords reads every row into a Record. STRUCT columns arrive as
// map[string]any and LIST columns as []any.
func scanRecords(rows *sql.Rows) ([]Record, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	records := []Record{}
	values := make([]any, len(columns))
	dest := make([]any, len(columns))
	for i := range values {
		dest[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		record := make(Record, len(columns))
		for i, name := range columns {
			record[name] = values[i]
		}
		records = append(records, record)
	}
	return records, rows.Err()
}
