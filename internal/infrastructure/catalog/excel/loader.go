package excel

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/beedev/recommender/internal/core/domain"
	"github.com/beedev/recommender/internal/core/ports"
)

// Well-known header names. Any other column becomes a product attribute
// keyed by its lowercased header.
const (
	columnKey            = "key"
	columnName           = "name"
	columnComponentType  = "component_type"
	columnCategory       = "category"
	columnDescription    = "description"
	columnCompatibleWith = "compatible_with"
)

// Loader reads the product catalog from an Excel workbook. The first sheet
// holds one product per row under a header row.
type Loader struct{}

var _ ports.WorkbookLoader = (*Loader)(nil)

func NewLoader() *Loader {
	return &Loader{}
}

func (l *Loader) Load(path string) ([]domain.Product, error) {
	file, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook %s: %w", path, err)
	}
	defer file.Close()

	sheets := file.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook %s has no sheets", path)
	}
	rows, err := file.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("workbook %s has no product rows", path)
	}

	header := make([]string, len(rows[0]))
	for i, cell := range rows[0] {
		header[i] = strings.ToLower(strings.TrimSpace(cell))
	}

	products := make([]domain.Product, 0, len(rows)-1)
	for rowIdx, row := range rows[1:] {
		product := domain.Product{Attributes: map[string]string{}}
		for colIdx, cell := range row {
			if colIdx >= len(header) {
				break
			}
			value := strings.TrimSpace(cell)
			switch header[colIdx] {
			case columnKey:
				product.Key = value
			case columnName:
				product.Name = value
			case columnComponentType:
				product.ComponentType = value
			case columnCategory:
				product.Category = value
			case columnDescription:
				product.Description = value
			case columnCompatibleWith:
				product.CompatibleWith = splitList(value)
			case "":
			default:
				if value != "" {
					product.Attributes[header[colIdx]] = value
				}
			}
		}
		if product.Key == "" {
			// Trailing blank rows are common in hand-edited workbooks.
			if rowIsEmpty(row) {
				continue
			}
			return nil, fmt.Errorf("row %d: missing product key", rowIdx+2)
		}
		if product.ComponentType == "" {
			return nil, fmt.Errorf("row %d (%s): missing component_type", rowIdx+2, product.Key)
		}
		products = append(products, product)
	}
	return products, nil
}

func splitList(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ";")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func rowIsEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
