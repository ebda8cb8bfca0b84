// Package corpus parses topic-model exports into the topic list the
// analysis engine consumes. The expected input is the topic-info CSV a
// topic-modeling run produces: one row per topic cluster with its number,
// paper count, label, and representative keywords.
package corpus

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"skillfolio/internal/engine"
)

// DefaultRareThreshold is the paper count at or below which a topic is
// labeled RARE. Small clusters mark scarce/novel literature, which the
// aggregator rewards with a premium.
const DefaultRareThreshold = 10

// LabelRarity derives a topic's rarity label from its paper count. The -1
// noise topic is always NO_TOPIC regardless of size.
func LabelRarity(topicNumber, count, rareThreshold int) engine.RarityLabel {
	if topicNumber == engine.NoiseTopicNumber {
		return engine.RarityNoTopic
	}
	if count <= rareThreshold {
		return engine.RarityRare
	}
	return engine.RarityCommon
}

// ParseTopicsCSV reads a topic-info CSV and returns the topic list with
// rarity labels assigned. The header row is matched case-insensitively;
// "topic" and "count" columns are required, "name" and
// "representation"/"keywords" are optional. Rows with malformed numbers are
// skipped rather than failing the whole upload.
func ParseTopicsCSV(r io.Reader, rareThreshold int) ([]engine.Topic, error) {
	if rareThreshold <= 0 {
		rareThreshold = DefaultRareThreshold
	}

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1 // tolerate ragged exports
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	topicCol, countCol, nameCol, keywordsCol := -1, -1, -1, -1
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "topic", "topic_number":
			topicCol = i
		case "count", "paper_count":
			countCol = i
		case "name":
			nameCol = i
		case "representation", "keywords":
			keywordsCol = i
		}
	}
	if topicCol < 0 || countCol < 0 {
		return nil, fmt.Errorf("missing required columns: need topic and count, got %v", header)
	}

	var topics []engine.Topic
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		if topicCol >= len(record) || countCol >= len(record) {
			continue
		}

		topicNumber, err := strconv.Atoi(strings.TrimSpace(record[topicCol]))
		if err != nil {
			continue
		}
		count, err := strconv.Atoi(strings.TrimSpace(record[countCol]))
		if err != nil || count < 0 {
			continue
		}

		topic := engine.Topic{
			TopicNumber: topicNumber,
			Count:       count,
			Rarity:      LabelRarity(topicNumber, count, rareThreshold),
		}
		if nameCol >= 0 && nameCol < len(record) {
			topic.Name = strings.TrimSpace(record[nameCol])
		}
		if keywordsCol >= 0 && keywordsCol < len(record) {
			topic.Keywords = parseKeywords(record[keywordsCol])
		}
		topics = append(topics, topic)
	}
	return topics, nil
}

// parseKeywords splits a representation cell into individual keywords.
// Exports vary between "a, b, c" and "['a' 'b' 'c']" styles.
func parseKeywords(cell string) []string {
	cell = strings.Trim(strings.TrimSpace(cell), "[]")
	if cell == "" {
		return nil
	}
	fields := strings.FieldsFunc(cell, func(r rune) bool {
		return r == ',' || r == ';'
	})
	var keywords []string
	for _, f := range fields {
		f = strings.Trim(strings.TrimSpace(f), `'" `)
		if f != "" {
			keywords = append(keywords, f)
		}
	}
	return keywords
}
