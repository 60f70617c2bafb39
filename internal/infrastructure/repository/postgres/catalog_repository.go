package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/beedev/recommender/internal/core/domain"
	"github.com/beedev/recommender/internal/core/ports"
)

// CatalogRepository is the source of truth for the product catalog. The
// vector index and the compatibility graph are projections rebuilt from it.
type CatalogRepository struct {
	db *sql.DB
}

var _ ports.CatalogRepository = (*CatalogRepository)(nil)

func NewCatalogRepository(db *sql.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *CatalogRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/indexer startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026082901)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS products (
	key TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	component_type TEXT NOT NULL,
	category TEXT,
	description TEXT,
	attributes JSONB NOT NULL DEFAULT '{}'::jsonb,
	compatible_with JSONB NOT NULL DEFAULT '[]'::jsonb,
	search_tsv TSVECTOR GENERATED ALWAYS AS (
		setweight(to_tsvector('english', coalesce(name, '')), 'A') ||
		setweight(to_tsvector('english', coalesce(category, '')), 'B') ||
		setweight(to_tsvector('english', coalesce(description, '')), 'C')
	) STORED,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_products_component_type ON products(component_type);
CREATE INDEX IF NOT EXISTS idx_products_search_tsv ON products USING GIN (search_tsv);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (r *CatalogRepository) UpsertProducts(ctx context.Context, products []domain.Product) error {
	if len(products) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upsert tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	now := time.Now().UTC()
	for _, product := range products {
		attributesJSON, err := json.Marshal(product.Attributes)
		if err != nil {
			return fmt.Errorf("marshal attributes for %s: %w", product.Key, err)
		}
		compatibleJSON, err := json.Marshal(product.CompatibleWith)
		if err != nil {
			return fmt.Errorf("marshal compatible_with for %s: %w", product.Key, err)
		}

		_, err = tx.ExecContext(ctx, `
INSERT INTO products (key, name, component_type, category, description, attributes, compatible_with, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$8)
ON CONFLICT (key) DO UPDATE SET
	name = EXCLUDED.name,
	component_type = EXCLUDED.component_type,
	category = EXCLUDED.category,
	description = EXCLUDED.description,
	attributes = EXCLUDED.attributes,
	compatible_with = EXCLUDED.compatible_with,
	updated_at = EXCLUDED.updated_at
`,
			product.Key, product.Name, product.ComponentType, product.Category, product.Description,
			attributesJSON, compatibleJSON, now,
		)
		if err != nil {
			return fmt.Errorf("upsert product %s: %w", product.Key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit upsert tx: %w", err)
	}
	return nil
}

func (r *CatalogRepository) GetByKey(ctx context.Context, key string) (*domain.Product, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT key, name, component_type, category, description, attributes, compatible_with, created_at, updated_at
FROM products
WHERE key = $1
`, key)

	product, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrProductNotFound, "get product", fmt.Errorf("key %s", key))
		}
		return nil, err
	}
	return product, nil
}

func (r *CatalogRepository) ListByComponentType(ctx context.Context, componentType string, limit int) ([]domain.Product, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT key, name, component_type, category, description, attributes, compatible_with, created_at, updated_at
FROM products
WHERE component_type = $1
ORDER BY name
LIMIT $2
`, componentType, limit)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, *product)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}
	return products, nil
}

// SearchRanked runs weighted full-text search over the generated tsvector.
// websearch_to_tsquery accepts raw user text, so the query string needs no
// sanitizing here. The ts_rank normalization flag 32 maps raw ranks through
// rank/(rank+1), keeping every score inside [0,1).
func (r *CatalogRepository) SearchRanked(ctx context.Context, componentType, query string, limit int) ([]domain.Candidate, map[string]float64, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT key, name, category, description,
       ts_rank(search_tsv, websearch_to_tsquery('english', $2), 32) AS rank
FROM products
WHERE component_type = $1
  AND search_tsv @@ websearch_to_tsquery('english', $2)
ORDER BY rank DESC, name
LIMIT $3
`, componentType, query, limit)
	if err != nil {
		return nil, nil, fmt.Errorf("fulltext search: %w", err)
	}
	defer rows.Close()

	var candidates []domain.Candidate
	scores := make(map[string]float64)
	for rows.Next() {
		var cand domain.Candidate
		var category, description sql.NullString
		var rank float64
		if err := rows.Scan(&cand.Key, &cand.Name, &category, &description, &rank); err != nil {
			return nil, nil, fmt.Errorf("scan fulltext row: %w", err)
		}
		cand.Category = category.String
		cand.Description = description.String
		candidates = append(candidates, cand)
		scores[cand.Key] = rank
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate fulltext rows: %w", err)
	}
	return candidates, scores, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (*domain.Product, error) {
	var product domain.Product
	var category, description sql.NullString
	var attributesRaw, compatibleRaw []byte

	err := row.Scan(
		&product.Key, &product.Name, &product.ComponentType, &category, &description,
		&attributesRaw, &compatibleRaw, &product.CreatedAt, &product.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan product: %w", err)
	}
	product.Category = category.String
	product.Description = description.String

	if len(attributesRaw) > 0 {
		if err := json.Unmarshal(attributesRaw, &product.Attributes); err != nil {
			return nil, fmt.Errorf("unmarshal attributes: %w", err)
		}
	}
	if len(compatibleRaw) > 0 {
		if err := json.Unmarshal(compatibleRaw, &product.CompatibleWith); err != nil {
			return nil, fmt.Errorf("unmarshal compatible_with: %w", err)
		}
	}
	return &product, nil
}
