package db

import (
	"encoding/json"
	"log"
	"time"

	"skillfolio/internal/engine"
)

// RunRecord represents a stored optimization run.
type RunRecord struct {
	ID            int64           `json:"id"`
	Timestamp     string          `json:"timestamp"`
	Source        string          `json:"source"`
	TopicCount    int             `json:"topic_count"`
	RiskTolerance float64         `json:"risk_tolerance"`
	Optimal       json.RawMessage `json:"optimal_portfolio"`
	Selected      json.RawMessage `json:"selected_portfolio"`
}

// InsertRun stores an optimization run with its frontier and returns its ID.
func (d *DB) InsertRun(source string, topicCount int, riskTolerance float64, optimal, selected *engine.SelectedPortfolio, frontier []engine.FrontierPoint) int64 {
	optimalJSON, _ := json.Marshal(optimal)
	selectedJSON, _ := json.Marshal(selected)

	result, err := d.sql.Exec(
		"INSERT INTO analysis_history (timestamp, source, topic_count, risk_tolerance, optimal_json, selected_json) VALUES (?, ?, ?, ?, ?, ?)",
		time.Now().Format(time.RFC3339), source, topicCount, riskTolerance, string(optimalJSON), string(selectedJSON),
	)
	if err != nil {
		log.Printf("[DB] InsertRun: %v", err)
		return 0
	}
	id, _ := result.LastInsertId()

	if len(frontier) > 0 {
		d.insertFrontier(id, frontier)
	}
	return id
}

func (d *DB) insertFrontier(runID int64, frontier []engine.FrontierPoint) {
	tx, err := d.sql.Begin()
	if err != nil {
		log.Printf("[DB] insertFrontier begin tx: %v", err)
		return
	}

	stmt, err := tx.Prepare("INSERT INTO frontier_points (run_id, point_index, risk, ret, sharpe_ratio, weights_json) VALUES (?, ?, ?, ?, ?, ?)")
	if err != nil {
		tx.Rollback()
		log.Printf("[DB] insertFrontier prepare: %v", err)
		return
	}
	defer stmt.Close()

	for i, p := range frontier {
		weightsJSON, _ := json.Marshal(p.Weights)
		stmt.Exec(runID, i, p.Risk, p.Return, p.SharpeRatio, string(weightsJSON))
	}

	if err := tx.Commit(); err != nil {
		log.Printf("[DB] insertFrontier commit: %v", err)
	}
}

// GetRuns returns the last N runs (newest first).
func (d *DB) GetRuns(limit int) []RunRecord {
	if limit <= 0 {
		limit = 50
	}
	rows, err := d.sql.Query(
		`SELECT id, timestamp, source, topic_count, risk_tolerance, optimal_json, selected_json
		 FROM analysis_history ORDER BY id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return []RunRecord{}
	}
	defer rows.Close()

	var records []RunRecord
	for rows.Next() {
		var r RunRecord
		var optimalStr, selectedStr string
		rows.Scan(&r.ID, &r.Timestamp, &r.Source, &r.TopicCount, &r.RiskTolerance, &optimalStr, &selectedStr)
		r.Optimal = json.RawMessage(optimalStr)
		r.Selected = json.RawMessage(selectedStr)
		records = append(records, r)
	}
	if records == nil {
		return []RunRecord{}
	}
	return records
}

// GetRun returns a single run, or nil if it does not exist.
func (d *DB) GetRun(id int64) *RunRecord {
	row := d.sql.QueryRow(
		`SELECT id, timestamp, source, topic_count, risk_tolerance, optimal_json, selected_json
		 FROM analysis_history WHERE id = ?`,
		id,
	)
	var r RunRecord
	var optimalStr, selectedStr string
	if err := row.Scan(&r.ID, &r.Timestamp, &r.Source, &r.TopicCount, &r.RiskTolerance, &optimalStr, &selectedStr); err != nil {
		return nil
	}
	r.Optimal = json.RawMessage(optimalStr)
	r.Selected = json.RawMessage(selectedStr)
	return &r
}

// GetFrontier returns the stored frontier points of a run in sweep order.
func (d *DB) GetFrontier(runID int64) []engine.FrontierPoint {
	rows, err := d.sql.Query(
		"SELECT risk, ret, sharpe_ratio, weights_json FROM frontier_points WHERE run_id = ? ORDER BY point_index",
		runID,
	)
	if err != nil {
		return nil
	}
	defer rows.Close()

	var points []engine.FrontierPoint
	for rows.Next() {
		var p engine.FrontierPoint
		var weightsStr string
		rows.Scan(&p.Risk, &p.Return, &p.SharpeRatio, &weightsStr)
		json.Unmarshal([]byte(weightsStr), &p.Weights)
		points = append(points, p)
	}
	return points
}

// DeleteRun deletes a run and its frontier points.
func (d *DB) DeleteRun(id int64) error {
	tx, err := d.sql.Begin()
	if err != nil {
		return err
	}
	tx.Exec("DELETE FROM frontier_points WHERE run_id = ?", id)
	tx.Exec("DELETE FROM analysis_history WHERE id = ?", id)
	return tx.Commit()
}

// ClearRuns deletes all runs at or older than the given number of days and
// returns how many were removed. Zero days clears everything. The cutoff
// comparison is inclusive: timestamps carry second precision, so runs
// stored in the same second as the clear must still match.
func (d *DB) ClearRuns(olderThanDays int) (int64, error) {
	cutoff := time.Now().AddDate(0, 0, -olderThanDays).Format(time.RFC3339)

	tx, err := d.sql.Begin()
	if err != nil {
		return 0, err
	}
	tx.Exec("DELETE FROM frontier_points WHERE run_id IN (SELECT id FROM analysis_history WHERE timestamp <= ?)", cutoff)
	res, err := tx.Exec("DELETE FROM analysis_history WHERE timestamp <= ?", cutoff)
	if err != nil {
		tx.Rollback()
		return 0, err
	}
	n, _ := res.RowsAffected()
	return n, tx.Commit()
}
