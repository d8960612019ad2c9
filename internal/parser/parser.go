package parser

import (
	"github.com/libinsight/ezingest/internal/models"
)

// Parser partitions a batch of raw log lines into valid records and invalid
// records for one log dialect. Implementations must be pure: the same input
// lines always produce the same partition, and every line lands in exactly
// one of the two slices.
type Parser interface {
	// Type returns the log type identifier this parser handles.
	Type() string
	// Parse splits lines into parsed records and preserved invalid lines.
	Parse(lines []string) ([]models.LogRecord, []models.InvalidRecord)
}

// Registry holds parsers and finds a match for a given log type.
type Registry struct {
	items []Parser
}

// NewRegistry constructs a registry with the provided parsers.
func NewRegistry(items ...Parser) *Registry {
	return &Registry{items: items}
}

// Find returns the parser registered for logType, or nil.
func (r *Registry) Find(logType string) Parser {
	if r == nil {
		return nil
	}
	for _, p := range r.items {
		if p.Type() == logType {
			return p
		}
	}
	return nil
}
