// Package sqlstore provides the relational implementation of driven.RecordStore.
//
// Two drivers are supported through database/sql:
//
//   - sqlite: modernc.org/sqlite, a pure Go SQLite that needs no CGO.
//     The database lives at <data dir>/finrag.db.
//   - postgres: github.com/lib/pq, selected by the store driver setting
//     or a postgres:// URL in FINRAG_DATABASE_URL.
//
// # Schema
//
// Four tables hold the source records: stock_prices, financial_reports,
// economic_indicators and news_articles. The schema is managed through
// versioned migrations in the migrations/ directory and recorded in
// schema_migrations. Queries are written with ? placeholders and rebound
// to $n for postgres.
//
// Calendar dates are stored as YYYY-MM-DD text and timestamps as fixed-width
// UTC RFC 3339 text so ordering is lexicographic on both drivers.
package sqlstore
