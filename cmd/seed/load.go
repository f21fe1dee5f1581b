package main

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pageza/foodgram/backend/internal/models"
)

type ingredientRecord struct {
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
}

// loadIngredients reads a .json array of {name, measurement_unit} objects or
// a .csv file with one "name,unit" pair per line.
func loadIngredients(path string) ([]models.Ingredient, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	var records []ingredientRecord
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		records, err = decodeJSON(f)
	case ".csv":
		records, err = decodeCSV(f)
	default:
		return nil, fmt.Errorf("unsupported file type %q, expected .json or .csv", filepath.Ext(path))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	ingredients := make([]models.Ingredient, 0, len(records))
	for i, r := range records {
		name, unit := strings.TrimSpace(r.Name), strings.TrimSpace(r.MeasurementUnit)
		if name == "" || unit == "" {
			return nil, fmt.Errorf("record %d: name and measurement_unit are required", i+1)
		}
		ingredients = append(ingredients, models.Ingredient{Name: name, MeasurementUnit: unit})
	}
	return ingredients, nil
}

func decodeJSON(r io.Reader) ([]ingredientRecord, error) {
	var records []ingredientRecord
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, err
	}
	return records, nil
}

func decodeCSV(r io.Reader) ([]ingredientRecord, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = 2

	var records []ingredientRecord
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return records, nil
		}
		if err != nil {
			return nil, err
		}
		records = append(records, ingredientRecord{Name: row[0], MeasurementUnit: row[1]})
	}
}
