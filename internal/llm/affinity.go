package llm

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"skillfolio/internal/catalog"
	"skillfolio/internal/engine"
)

const affinitySystemPrompt = `You are a labor market analyst. You score how strongly a research topic relates to a set of training directions. Respond with JSON only, no prose and no code fences.`

// AnalyzeAffinity asks the model to score each topic against every catalog
// direction. Scores come back clamped to [0,1] so downstream aggregation
// never sees out-of-range values.
func (c *Client) AnalyzeAffinity(model string, topics []engine.Topic, cat *catalog.Catalog) (engine.AffinityMatrix, error) {
	if len(topics) == 0 {
		return nil, fmt.Errorf("analyze affinity: no topics")
	}

	content, err := c.chat(model, affinitySystemPrompt, buildAffinityPrompt(topics, cat))
	if err != nil {
		return nil, err
	}
	return parseAffinityResponse(content, len(cat.Directions))
}

func buildAffinityPrompt(topics []engine.Topic, cat *catalog.Catalog) string {
	var b strings.Builder
	b.WriteString("Training directions, in order:\n")
	for _, d := range cat.Directions {
		name := d.Names["en"]
		if name == "" {
			for _, v := range d.Names {
				name = v
				break
			}
		}
		fmt.Fprintf(&b, "%d. %s (%s): %s\n", d.ID, name, d.Key, d.Description)
	}

	b.WriteString("\nTopics:\n")
	for _, t := range topics {
		fmt.Fprintf(&b, "topic %d (%d papers): %s", t.TopicNumber, t.Count, t.Name)
		if len(t.Keywords) > 0 {
			fmt.Fprintf(&b, " [%s]", strings.Join(t.Keywords, ", "))
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "\nFor every topic, rate its affinity to each of the %d directions on a 0.0 to 1.0 scale. ", len(cat.Directions))
	b.WriteString(`Return a JSON object mapping the topic number (as a string) to an array of scores in direction order, e.g. {"0": [0.8, 0.1, 0.0, 0.3, 0.2, 0.5]}.`)
	return b.String()
}

// parseAffinityResponse decodes the model's JSON into an affinity matrix.
// Rows with the wrong direction count are dropped; every kept score is
// clamped to [0,1].
func parseAffinityResponse(content string, numDirections int) (engine.AffinityMatrix, error) {
	raw := make(map[string][]float64)
	if err := json.Unmarshal([]byte(stripFences(content)), &raw); err != nil {
		return nil, fmt.Errorf("analyze affinity: parse response: %w", err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("analyze affinity: empty response")
	}

	matrix := make(engine.AffinityMatrix, len(raw))
	for key, scores := range raw {
		topicNum, err := strconv.Atoi(strings.TrimSpace(key))
		if err != nil {
			continue
		}
		if len(scores) != numDirections {
			continue
		}
		row := make([]float64, numDirections)
		for i, s := range scores {
			row[i] = clamp01(s)
		}
		matrix[topicNum] = row
	}
	if len(matrix) == 0 {
		return nil, fmt.Errorf("analyze affinity: no usable rows in response")
	}
	return matrix, nil
}

// stripFences removes a markdown code fence if the model wrapped its JSON
// in one despite instructions.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
