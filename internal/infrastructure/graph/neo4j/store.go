package neo4j

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/beedev/recommender/internal/core/domain"
	"github.com/beedev/recommender/internal/core/ports"
)

// Store keeps the product compatibility graph in Neo4j. Products are nodes,
// compatibility is an undirected COMPATIBLE_WITH relation; "undirected" is
// modeled by matching the relation in either direction.
type Store struct {
	driver neo4j.DriverWithContext
}

var _ ports.CompatibilityGraph = (*Store)(nil)

func NewStore(uri, user, password string) (*Store, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(user, password, ""))
	if err != nil {
		return nil, fmt.Errorf("neo4j driver: %w", err)
	}
	return &Store{driver: driver}, nil
}

func (s *Store) Close(ctx context.Context) error {
	return s.driver.Close(ctx)
}

func (s *Store) UpsertProducts(ctx context.Context, products []domain.Product) error {
	if len(products) == 0 {
		return nil
	}

	nodes := make([]map[string]any, 0, len(products))
	relations := make([]map[string]any, 0)
	for _, product := range products {
		nodes = append(nodes, map[string]any{
			"key":           product.Key,
			"name":          product.Name,
			"componentType": product.ComponentType,
			"category":      product.Category,
			"description":   product.Description,
		})
		for _, other := range product.CompatibleWith {
			relations = append(relations, map[string]any{
				"from": product.Key,
				"to":   other,
			})
		}
	}

	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		_, err := tx.Run(ctx, `
			UNWIND $nodes AS p
			MERGE (n:Product {key: p.key})
			SET n.name = p.name,
			    n.componentType = p.componentType,
			    n.category = p.category,
			    n.description = p.description`,
			map[string]any{"nodes": nodes})
		if err != nil {
			return nil, err
		}
		if len(relations) == 0 {
			return nil, nil
		}
		// The related product may arrive in a later batch; MERGE on key
		// creates a placeholder node that a later upsert fills in.
		_, err = tx.Run(ctx, `
			UNWIND $relations AS r
			MATCH (a:Product {key: r.from})
			MERGE (b:Product {key: r.to})
			MERGE (a)-[:COMPATIBLE_WITH]->(b)`,
			map[string]any{"relations": relations})
		return nil, err
	})
	if err != nil {
		return domain.WrapError(domain.ErrTemporary, "neo4j upsert products", err)
	}
	return nil
}

func (s *Store) FindCompatible(ctx context.Context, componentType string, selections map[string]string, limit int) ([]domain.Candidate, error) {
	selectionKeys := make([]string, 0, len(selections))
	for _, key := range selections {
		selectionKeys = append(selectionKeys, key)
	}

	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	records, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		// A candidate must be compatible with every selected product, not
		// just one of them.
		result, err := tx.Run(ctx, `
			MATCH (cand:Product {componentType: $componentType})
			WHERE ALL(key IN $selectionKeys WHERE
				EXISTS { MATCH (cand)-[:COMPATIBLE_WITH]-(:Product {key: key}) })
			RETURN cand.key AS key, cand.name AS name,
			       cand.category AS category, cand.description AS description
			ORDER BY cand.name
			LIMIT $limit`,
			map[string]any{
				"componentType": componentType,
				"selectionKeys": selectionKeys,
				"limit":         limit,
			})
		if err != nil {
			return nil, err
		}
		return result.Collect(ctx)
	})
	if err != nil {
		return nil, domain.WrapError(domain.ErrTemporary, "neo4j find compatible", err)
	}

	rows, ok := records.([]*neo4j.Record)
	if !ok {
		return nil, fmt.Errorf("neo4j find compatible: unexpected result type %T", records)
	}
	candidates := make([]domain.Candidate, 0, len(rows))
	for _, record := range rows {
		candidates = append(candidates, domain.Candidate{
			Key:         recordString(record, "key"),
			Name:        recordString(record, "name"),
			Category:    recordString(record, "category"),
			Description: recordString(record, "description"),
		})
	}
	return candidates, nil
}

func recordString(record *neo4j.Record, key string) string {
	value, ok := record.Get(key)
	if !ok || value == nil {
		return ""
	}
	s, ok := value.(string)
	if !ok {
		return fmt.Sprintf("%v", value)
	}
	return s
}
