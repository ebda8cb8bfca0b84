package db

import (
	"fmt"
	"strconv"

	"skillfolio/internal/config"
)

// LoadConfig reads config from SQLite. If empty, returns defaults.
func (d *DB) LoadConfig() *config.Config {
	cfg := config.Default()

	rows, err := d.sql.Query("SELECT key, value FROM config")
	if err != nil {
		return cfg
	}
	defer rows.Close()

	m := make(map[string]string)
	for rows.Next() {
		var k, v string
		rows.Scan(&k, &v)
		m[k] = v
	}

	if len(m) == 0 {
		return cfg
	}

	if v, ok := m["bound_min"]; ok {
		cfg.BoundMin, _ = strconv.ParseFloat(v, 64)
	}
	if v, ok := m["bound_max"]; ok {
		cfg.BoundMax, _ = strconv.ParseFloat(v, 64)
	}
	if v, ok := m["frontier_points"]; ok {
		cfg.FrontierPoints, _ = strconv.Atoi(v)
	}
	if v, ok := m["risk_tolerance"]; ok {
		cfg.RiskTolerance, _ = strconv.ParseFloat(v, 64)
	}
	if v, ok := m["rare_threshold"]; ok {
		cfg.RareThreshold, _ = strconv.Atoi(v)
	}
	if v, ok := m["skip_weight_threshold"]; ok {
		cfg.SkipWeightThreshold, _ = strconv.ParseFloat(v, 64)
	}
	if v, ok := m["catalog_path"]; ok {
		cfg.CatalogPath = v
	}
	if v, ok := m["llm_base_url"]; ok {
		cfg.LLMBaseURL = v
	}
	if v, ok := m["llm_model"]; ok {
		cfg.LLMModel = v
	}
	if v, ok := m["model_cache_minutes"]; ok {
		cfg.ModelCacheMinutes, _ = strconv.Atoi(v)
	}

	return cfg
}

// SaveConfig writes config to SQLite (upsert all fields).
func (d *DB) SaveConfig(cfg *config.Config) error {
	pairs := map[string]string{
		"bound_min":             fmt.Sprintf("%g", cfg.BoundMin),
		"bound_max":             fmt.Sprintf("%g", cfg.BoundMax),
		"frontier_points":       strconv.Itoa(cfg.FrontierPoints),
		"risk_tolerance":        fmt.Sprintf("%g", cfg.RiskTolerance),
		"rare_threshold":        strconv.Itoa(cfg.RareThreshold),
		"skip_weight_threshold": fmt.Sprintf("%g", cfg.SkipWeightThreshold),
		"catalog_path":          cfg.CatalogPath,
		"llm_base_url":          cfg.LLMBaseURL,
		"llm_model":             cfg.LLMModel,
		"model_cache_minutes":   strconv.Itoa(cfg.ModelCacheMinutes),
	}

	tx, err := d.sql.Begin()
	if err != nil {
		return err
	}
	stmt, err := tx.Prepare("INSERT INTO config (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value")
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for k, v := range pairs {
		if _, err := stmt.Exec(k, v); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}
