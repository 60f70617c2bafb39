package excel

import (
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"
)

func writeWorkbook(t *testing.T, rows [][]any) string {
	t.Helper()
	file := excelize.NewFile()
	sheet := file.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("cell name: %v", err)
		}
		if err := file.SetSheetRow(sheet, cell, &row); err != nil {
			t.Fatalf("set row: %v", err)
		}
	}
	path := filepath.Join(t.TempDir(), "catalog.xlsx")
	if err := file.SaveAs(path); err != nil {
		t.Fatalf("save workbook: %v", err)
	}
	return path
}

func TestLoadParsesProductsAndAttributes(t *testing.T) {
	path := writeWorkbook(t, [][]any{
		{"key", "name", "component_type", "category", "description", "compatible_with", "current_max"},
		{"aristo-500ix", "Aristo 500ix CE", "power_source", "mig", "500A inverter", "robustfeed-u6; exeor-450", "500"},
		{"robustfeed-u6", "RobustFeed U6", "feeder", "mig", "Wire feeder", "", ""},
	})

	products, err := NewLoader().Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(products) != 2 {
		t.Fatalf("products = %d", len(products))
	}
	first := products[0]
	if first.Key != "aristo-500ix" || first.ComponentType != "power_source" {
		t.Fatalf("first product = %+v", first)
	}
	if len(first.CompatibleWith) != 2 || first.CompatibleWith[1] != "exeor-450" {
		t.Fatalf("compatible_with = %v", first.CompatibleWith)
	}
	if first.Attributes["current_max"] != "500" {
		t.Fatalf("attributes = %v", first.Attributes)
	}
}

func TestLoadSkipsBlankRows(t *testing.T) {
	path := writeWorkbook(t, [][]any{
		{"key", "name", "component_type"},
		{"a", "A", "torch"},
		{"", "", ""},
	})

	products, err := NewLoader().Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(products) != 1 {
		t.Fatalf("products = %d", len(products))
	}
}

func TestLoadRejectsRowWithoutKey(t *testing.T) {
	path := writeWorkbook(t, [][]any{
		{"key", "name", "component_type"},
		{"", "Nameless", "torch"},
	})

	if _, err := NewLoader().Load(path); err == nil {
		t.Fatalf("expected error for missing key")
	}
}

func TestLoadRejectsRowWithoutComponentType(t *testing.T) {
	path := writeWorkbook(t, [][]any{
		{"key", "name", "component_type"},
		{"a", "A", ""},
	})

	if _, err := NewLoader().Load(path); err == nil {
		t.Fatalf("expected error for missing component_type")
	}
}
