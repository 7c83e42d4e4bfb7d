package chatbot

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed phrasebook.yaml
var defaultPhrasebook []byte

// Phrasebook holds the reply texts and the small-talk corpus.
type Phrasebook struct {
	Corpus  []string          `yaml:"corpus"`
	Replies map[string]string `yaml:"replies"`
}

// DefaultPhrasebook returns the built-in phrasebook.
func DefaultPhrasebook() Phrasebook {
	pb, err := parsePhrasebook(defaultPhrasebook)
	if err != nil {
		panic(fmt.Sprintf("embedded phrasebook: %v", err))
	}
	return pb
}

// LoadPhrasebook reads an override file and merges it over the defaults. An
// empty path returns the defaults.
func LoadPhrasebook(path string) (Phrasebook, error) {
	pb := DefaultPhrasebook()
	if path == "" {
		return pb, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return pb, err
	}
	override, err := parsePhrasebook(b)
	if err != nil {
		return pb, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(override.Corpus) > 0 {
		pb.Corpus = override.Corpus
	}
	for k, v := range override.Replies {
		pb.Replies[k] = v
	}
	return pb, nil
}

func parsePhrasebook(b []byte) (Phrasebook, error) {
	var pb Phrasebook
	if err := yaml.Unmarshal(b, &pb); err != nil {
		return Phrasebook{}, err
	}
	if pb.Replies == nil {
		pb.Replies = map[string]string{}
	}
	return pb, nil
}

// say formats the reply stored under key.
func (pb Phrasebook) say(key string, args ...any) string {
	tmpl, ok := pb.Replies[key]
	if !ok {
		return ""
	}
	if len(args) == 0 {
		return tmpl
	}
	return fmt.Sprintf(tmpl, args...)
}
