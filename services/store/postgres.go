package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/aahmdakml/MatkulBigdata/internal/extractor"
	"github.com/aahmdakml/MatkulBigdata/internal/record"
	"github.com/aahmdakml/MatkulBigdata/logger"
	"github.com/aahmdakml/MatkulBigdata/pkg/errors"
)

const schema = `
CREATE TABLE IF NOT EXISTS price_records (
    dedupe_key     TEXT PRIMARY KEY,
    id             TEXT NOT NULL,
    source         TEXT NOT NULL,
    source_type    TEXT NOT NULL,
    title          TEXT NOT NULL DEFAULT '',
    url            TEXT NOT NULL DEFAULT '',
    snippet        TEXT NOT NULL DEFAULT '',
    keyword        TEXT NOT NULL DEFAULT '',
    published_at   TEXT NOT NULL DEFAULT '',
    scraped_at     TIMESTAMPTZ NOT NULL,
    language       TEXT NOT NULL DEFAULT '',
    terms          TEXT[],
    likes          INTEGER,
    reshares       INTEGER,
    commodity      TEXT NOT NULL DEFAULT '',
    price          INTEGER,
    unit           TEXT NOT NULL DEFAULT '',
    quality        TEXT NOT NULL DEFAULT '',
    location       TEXT NOT NULL DEFAULT '',
    confidence     INTEGER NOT NULL,
    price_category TEXT NOT NULL DEFAULT '',
    context_type   TEXT NOT NULL DEFAULT '',
    date_mention   TEXT NOT NULL DEFAULT '',
    varieties      TEXT[],
    subdistricts   TEXT[],
    addresses      TEXT[]
);
CREATE INDEX IF NOT EXISTS price_records_scraped_at_idx ON price_records (scraped_at DESC);
CREATE INDEX IF NOT EXISTS price_records_commodity_location_idx ON price_records (commodity, location);
`

// A conflicting row is only replaced by a record at least as confident
const upsert = `
INSERT INTO price_records (
    dedupe_key, id, source, source_type, title, url, snippet, keyword, published_at,
    scraped_at, language, terms, likes, reshares, commodity, price, unit, quality,
    location, confidence, price_category, context_type, date_mention, varieties,
    subdistricts, addresses
) VALUES (
    :dedupe_key, :id, :source, :source_type, :title, :url, :snippet, :keyword, :published_at,
    :scraped_at, :language, :terms, :likes, :reshares, :commodity, :price, :unit, :quality,
    :location, :confidence, :price_category, :context_type, :date_mention, :varieties,
    :subdistricts, :addresses
)
ON CONFLICT (dedupe_key) DO UPDATE SET
    id = EXCLUDED.id,
    title = EXCLUDED.title,
    snippet = EXCLUDED.snippet,
    published_at = EXCLUDED.published_at,
    scraped_at = EXCLUDED.scraped_at,
    language = EXCLUDED.language,
    terms = EXCLUDED.terms,
    likes = EXCLUDED.likes,
    reshares = EXCLUDED.reshares,
    commodity = EXCLUDED.commodity,
    price = EXCLUDED.price,
    unit = EXCLUDED.unit,
    quality = EXCLUDED.quality,
    location = EXCLUDED.location,
    confidence = EXCLUDED.confidence,
    price_category = EXCLUDED.price_category,
    context_type = EXCLUDED.context_type,
    date_mention = EXCLUDED.date_mention,
    varieties = EXCLUDED.varieties,
    subdistricts = EXCLUDED.subdistricts,
    addresses = EXCLUDED.addresses
WHERE price_records.confidence <= EXCLUDED.confidence
`

// row is the price_records representation of a record
type row struct {
	DedupeKey     string         `db:"dedupe_key"`
	ID            string         `db:"id"`
	Source        string         `db:"source"`
	SourceType    string         `db:"source_type"`
	Title         string         `db:"title"`
	URL           string         `db:"url"`
	Snippet       string         `db:"snippet"`
	Keyword       string         `db:"keyword"`
	PublishedAt   string         `db:"published_at"`
	ScrapedAt     time.Time      `db:"scraped_at"`
	Language      string         `db:"language"`
	Terms         pq.StringArray `db:"terms"`
	Likes         sql.NullInt64  `db:"likes"`
	Reshares      sql.NullInt64  `db:"reshares"`
	Commodity     string         `db:"commodity"`
	Price         sql.NullInt64  `db:"price"`
	Unit          string         `db:"unit"`
	Quality       string         `db:"quality"`
	Location      string         `db:"location"`
	Confidence    int            `db:"confidence"`
	PriceCategory string         `db:"price_category"`
	ContextType   string         `db:"context_type"`
	DateMention   string         `db:"date_mention"`
	Varieties     pq.StringArray `db:"varieties"`
	Subdistricts  pq.StringArray `db:"subdistricts"`
	Addresses     pq.StringArray `db:"addresses"`
}

func toRow(r record.Record) row {
	out := row{
		DedupeKey:     r.DedupeKey(),
		ID:            r.ID,
		Source:        r.Source,
		SourceType:    r.SourceType,
		Title:         r.Title,
		URL:           r.URL,
		Snippet:       r.Snippet,
		Keyword:       r.Keyword,
		PublishedAt:   r.PublishedAt,
		ScrapedAt:     r.ScrapedAt,
		Language:      r.Language,
		Terms:         r.Terms,
		Commodity:     string(r.Commodity),
		Unit:          string(r.Unit),
		Quality:       string(r.Quality),
		Location:      r.Location,
		Confidence:    r.Confidence,
		PriceCategory: r.PriceCategory,
		ContextType:   r.ContextType,
		DateMention:   r.DateMention,
		Varieties:     r.Varieties,
		Subdistricts:  r.Subdistricts,
		Addresses:     r.Addresses,
	}
	if r.Price != nil {
		out.Price = sql.NullInt64{Int64: int64(*r.Price), Valid: true}
	}
	if r.Engagement != nil {
		out.Likes = sql.NullInt64{Int64: int64(r.Engagement.Likes), Valid: true}
		out.Reshares = sql.NullInt64{Int64: int64(r.Engagement.Reshares), Valid: true}
	}
	return out
}

func (w row) record() record.Record {
	r := record.Record{
		ID:          w.ID,
		Source:      w.Source,
		SourceType:  w.SourceType,
		Title:       w.Title,
		URL:         w.URL,
		Snippet:     w.Snippet,
		Keyword:     w.Keyword,
		PublishedAt: w.PublishedAt,
		ScrapedAt:   w.ScrapedAt,
		Language:    w.Language,
		Terms:       w.Terms,
		Fact: extractor.Fact{
			Commodity:  extractor.Commodity(w.Commodity),
			Unit:       extractor.Unit(w.Unit),
			Quality:    extractor.Quality(w.Quality),
			Location:   w.Location,
			Confidence: w.Confidence,
		},
		Annotations: extractor.Annotations{
			PriceCategory: w.PriceCategory,
			ContextType:   w.ContextType,
			DateMention:   w.DateMention,
			Varieties:     w.Varieties,
			Subdistricts:  w.Subdistricts,
			Addresses:     w.Addresses,
		},
	}
	if w.Price.Valid {
		p := int(w.Price.Int64)
		r.Price = &p
	}
	if w.Likes.Valid || w.Reshares.Valid {
		r.Engagement = &extractor.Engagement{Likes: int(w.Likes.Int64), Reshares: int(w.Reshares.Int64)}
	}
	return r
}

// PostgresStore implements Store on PostgreSQL
type PostgresStore struct {
	db *sqlx.DB
}

// NewPostgresStore connects to dsn
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, errors.NewStorage("cannot connect to postgres", err)
	}
	db.SetMaxOpenConns(4)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return &PostgresStore{db: db}, nil
}

// Migrate creates the table and its indexes
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return errors.NewStorage("migration failed", err)
	}
	return nil
}

// Save upserts records in one transaction
func (s *PostgresStore) Save(ctx context.Context, records []record.Record) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, errors.NewStorage("cannot begin transaction", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareNamedContext(ctx, upsert)
	if err != nil {
		return 0, errors.NewStorage("cannot prepare upsert", err)
	}
	defer stmt.Close()

	changed := 0
	for _, r := range records {
		res, err := stmt.ExecContext(ctx, toRow(r))
		if err != nil {
			return 0, errors.NewStorage(fmt.Sprintf("upsert of %s failed", r.URL), err)
		}
		if n, err := res.RowsAffected(); err == nil {
			changed += int(n)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, errors.NewStorage("commit failed", err)
	}

	logger.ForStore().Debug().Int("records", len(records)).Int("changed", changed).Msg("Saved records")
	return changed, nil
}

// List returns the records matching q, newest first
func (s *PostgresStore) List(ctx context.Context, q Query) ([]record.Record, error) {
	query, args := buildListQuery(q)

	var rows []row
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		return nil, errors.NewStorage("list failed", err)
	}

	out := make([]record.Record, 0, len(rows))
	for _, w := range rows {
		out = append(out, w.record())
	}
	return out, nil
}

// Close closes the database
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// buildListQuery returns the SELECT of q with "?" placeholders
func buildListQuery(q Query) (string, []interface{}) {
	var (
		where []string
		args  []interface{}
	)
	if q.Commodity != "" {
		where = append(where, "commodity = ?")
		args = append(args, q.Commodity)
	}
	if q.Location != "" {
		where = append(where, "location = ?")
		args = append(args, q.Location)
	}
	if q.Source != "" {
		where = append(where, "source = ?")
		args = append(args, q.Source)
	}
	if q.MinConfidence > 0 {
		where = append(where, "confidence > ?")
		args = append(args, q.MinConfidence)
	}
	if !q.Since.IsZero() {
		where = append(where, "scraped_at >= ?")
		args = append(args, q.Since)
	}

	query := "SELECT * FROM price_records"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY scraped_at DESC, confidence DESC"

	limit := q.Limit
	if limit <= 0 {
		limit = 1000
	}
	query += " LIMIT ?"
	args = append(args, limit)

	return query, args
}
