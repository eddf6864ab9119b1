package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"recipe-engine/internal/core/dictionary"
	"recipe-engine/internal/pkg/common"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// seedFile 種子檔格式
type seedFile struct {
	Entries []seedEntry `yaml:"entries"`
}

type seedEntry struct {
	Source    string         `yaml:"source"`
	Specific  string         `yaml:"specific"`
	General   string         `yaml:"general"`
	Category  string         `yaml:"category"`
	Nutrition *seedNutrition `yaml:"nutrition"`
}

type seedNutrition struct {
	Calories float64 `yaml:"calories"`
	Protein  float64 `yaml:"protein"`
	Carbs    float64 `yaml:"carbs"`
	Fat      float64 `yaml:"fat"`
	Fiber    float64 `yaml:"fiber"`
}

// seedReport 匯入結果
type seedReport struct {
	Created  int
	Existing int
	Skipped  int
}

func loadSeedFile(path string) ([]dictionary.Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var f seedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}

	entries := make([]dictionary.Entry, 0, len(f.Entries))
	for i, e := range f.Entries {
		if e.Source == "" || e.Specific == "" {
			return nil, fmt.Errorf("seed entry %d: source and specific are required", i)
		}
		entry := dictionary.Entry{
			Source:     e.Source,
			Target:     dictionary.Target{Specific: e.Specific, General: e.General, Category: e.Category},
			Provenance: dictionary.ProvenanceBootstrap,
		}
		if entry.Target.General == "" {
			entry.Target.General = e.Specific
		}
		if n := e.Nutrition; n != nil {
			entry.NutritionPer100g = &dictionary.Nutrition{
				Calories: n.Calories, Protein: n.Protein, Carbs: n.Carbs, Fat: n.Fat, Fiber: n.Fiber,
			}
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// seedDictionary 逐筆寫入；已存在的項目略過，不中斷匯入
func seedDictionary(ctx context.Context, dict *dictionary.Dictionary, entries []dictionary.Entry) (seedReport, error) {
	var report seedReport
	for _, e := range entries {
		res, err := dict.AddEntry(ctx, e)
		var dup *dictionary.DuplicateError
		switch {
		case errors.As(err, &dup):
			report.Skipped++
			common.LogDebug("略過重複的種子項目", zap.String("source", e.Source), zap.String("field", dup.Field))
		case err != nil:
			return report, fmt.Errorf("seed %q: %w", e.Source, err)
		case res.Status == dictionary.InsertExisting:
			report.Existing++
		default:
			report.Created++
		}
	}
	return report, nil
}
