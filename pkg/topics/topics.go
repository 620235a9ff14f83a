// Package topics manages the list of conversation practice topics.
package topics

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrNoUnused is returned when every topic has been used.
var ErrNoUnused = errors.New("no unused conversation topics")

// Topic is one conversation starter.
type Topic struct {
	Topic        string `yaml:"topic"`
	EnglishTopic string `yaml:"english_topic"`
	Used         bool   `yaml:"used"`
}

func (t Topic) String() string {
	return fmt.Sprintf("%s (%s)", t.Topic, t.EnglishTopic)
}

// Load reads a YAML list of topics.
func Load(path string) ([]Topic, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read topics: %w", err)
	}
	var out []Topic
	if err := yaml.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("parse topics %s: %w", path, err)
	}
	for i, t := range out {
		if strings.TrimSpace(t.Topic) == "" {
			return nil, fmt.Errorf("parse topics %s: entry %d has no topic", path, i)
		}
	}
	return out, nil
}

// Save writes topics back as YAML.
func Save(path string, topics []Topic) error {
	data, err := yaml.Marshal(topics)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// SelectUnused returns the index of a random unused topic.
func SelectUnused(topics []Topic) (int, error) {
	var unused []int
	for i, t := range topics {
		if !t.Used {
			unused = append(unused, i)
		}
	}
	if len(unused) == 0 {
		return -1, ErrNoUnused
	}
	return unused[rand.IntN(len(unused))], nil
}

const promptTemplate = "Generate %d unique and engaging conversation-starters designed for an intermediate Chinese speaker. " +
	"Each topic should be simple enough for someone with moderate language proficiency to discuss, avoiding region-specific or advanced subjects. " +
	"Focus on universally relatable themes such as daily activities, hobbies, popular culture, basic travel experiences, food preferences and technology. " +
	"Make the starters open-ended so they encourage dialogue, and keep them non-technical. " +
	"Output a YAML list where each object has the fields `topic` (in Chinese), `english_topic`, and `used` set to false. " +
	"Do not output anything other than the list. Below is a list of past topics, DO NOT generate duplicate topics."

// Prompt builds a chat prompt asking for num new topics that do not repeat the past ones.
func Prompt(past []Topic, num int) string {
	var b strings.Builder
	fmt.Fprintf(&b, promptTemplate, num)
	for _, t := range past {
		b.WriteString("\n- ")
		b.WriteString(t.Topic)
	}
	return b.String()
}
