package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/beedev/recommender/internal/core/domain"
)

type fakeLoader struct {
	products []domain.Product
	err      error
}

func (f *fakeLoader) Load(string) ([]domain.Product, error) { return f.products, f.err }

type fakeCatalogRepo struct {
	upserted []domain.Product
	err      error
}

func (f *fakeCatalogRepo) UpsertProducts(_ context.Context, products []domain.Product) error {
	f.upserted = append(f.upserted, products...)
	return f.err
}
func (f *fakeCatalogRepo) GetByKey(context.Context, string) (*domain.Product, error) {
	return nil, domain.ErrProductNotFound
}
func (f *fakeCatalogRepo) ListByComponentType(context.Context, string, int) ([]domain.Product, error) {
	return nil, nil
}

type fakeEmbedder struct {
	texts []string
	err   error
}

func (f *fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.texts = append(f.texts, texts...)
	vectors := make([][]float32, len(texts))
	for i := range vectors {
		vectors[i] = []float32{0.1, 0.2}
	}
	return vectors, nil
}

func (f *fakeEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := f.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

type fakeVectorIndex struct {
	indexed int
}

func (f *fakeVectorIndex) IndexProducts(_ context.Context, products []domain.Product, _ [][]float32) error {
	f.indexed += len(products)
	return nil
}
func (f *fakeVectorIndex) Search(context.Context, []float32, string, int) ([]domain.Candidate, map[string]float64, error) {
	return nil, nil, nil
}

type fakeGraph struct {
	upserted int
}

func (f *fakeGraph) UpsertProducts(_ context.Context, products []domain.Product) error {
	f.upserted += len(products)
	return nil
}
func (f *fakeGraph) FindCompatible(context.Context, string, map[string]string, int) ([]domain.Candidate, error) {
	return nil, nil
}

func catalogFixture(n int) []domain.Product {
	products := make([]domain.Product, n)
	for i := range products {
		products[i] = domain.Product{
			Key:           "p" + string(rune('a'+i)),
			Name:          "Product " + string(rune('A'+i)),
			ComponentType: "power_source",
		}
	}
	return products
}

func TestIngestWorkbookProjectsToAllBackends(t *testing.T) {
	repo := &fakeCatalogRepo{}
	index := &fakeVectorIndex{}
	graph := &fakeGraph{}
	uc := NewIngestCatalogUseCase(&fakeLoader{products: catalogFixture(3)}, repo, &fakeEmbedder{}, index, graph)

	if err := uc.IngestWorkbook(context.Background(), "catalog.xlsx"); err != nil {
		t.Fatalf("IngestWorkbook() error = %v", err)
	}
	if len(repo.upserted) != 3 || index.indexed != 3 || graph.upserted != 3 {
		t.Fatalf("backends saw %d/%d/%d products", len(repo.upserted), index.indexed, graph.upserted)
	}
}

func TestIngestWorkbookBatches(t *testing.T) {
	repo := &fakeCatalogRepo{}
	uc := NewIngestCatalogUseCase(
		&fakeLoader{products: catalogFixture(5)},
		repo, &fakeEmbedder{}, &fakeVectorIndex{}, &fakeGraph{},
		WithIngestBatchSize(2),
	)

	if err := uc.IngestWorkbook(context.Background(), "catalog.xlsx"); err != nil {
		t.Fatalf("IngestWorkbook() error = %v", err)
	}
	if len(repo.upserted) != 5 {
		t.Fatalf("upserted = %d", len(repo.upserted))
	}
}

func TestIngestWorkbookEmbedsNameCategoryAndAttributes(t *testing.T) {
	embedder := &fakeEmbedder{}
	products := []domain.Product{{
		Key:           "aristo-500ix",
		Name:          "Aristo 500ix CE",
		ComponentType: "power_source",
		Category:      "mig",
		Description:   "500A inverter",
		Attributes:    map[string]string{"duty_cycle": "60%"},
	}}
	uc := NewIngestCatalogUseCase(&fakeLoader{products: products}, &fakeCatalogRepo{}, embedder, &fakeVectorIndex{}, &fakeGraph{})

	if err := uc.IngestWorkbook(context.Background(), "catalog.xlsx"); err != nil {
		t.Fatalf("IngestWorkbook() error = %v", err)
	}
	if len(embedder.texts) != 1 {
		t.Fatalf("texts = %v", embedder.texts)
	}
	text := embedder.texts[0]
	for _, want := range []string{"Aristo 500ix CE", "mig", "500A inverter", "duty_cycle 60%"} {
		if !strings.Contains(text, want) {
			t.Fatalf("embedding text missing %q: %s", want, text)
		}
	}
}

func TestIngestWorkbookStopsOnEmbedFailure(t *testing.T) {
	graph := &fakeGraph{}
	uc := NewIngestCatalogUseCase(
		&fakeLoader{products: catalogFixture(2)},
		&fakeCatalogRepo{}, &fakeEmbedder{err: errors.New("model offline")}, &fakeVectorIndex{}, graph,
	)

	if err := uc.IngestWorkbook(context.Background(), "catalog.xlsx"); err == nil {
		t.Fatalf("expected embed failure to propagate")
	}
	if graph.upserted != 0 {
		t.Fatalf("graph must not be written after embed failure")
	}
}

func TestIngestWorkbookLoaderFailure(t *testing.T) {
	uc := NewIngestCatalogUseCase(&fakeLoader{err: errors.New("bad workbook")}, &fakeCatalogRepo{}, &fakeEmbedder{}, &fakeVectorIndex{}, &fakeGraph{})

	if err := uc.IngestWorkbook(context.Background(), "catalog.xlsx"); err == nil {
		t.Fatalf("expected loader error")
	}
}
