package output

import (
	"encoding/json"

	"github.com/pfsim/portfolio-simulator/internal/domain"
)

// JSONFormatter serializes the full report as pretty-printed JSON.
type JSONFormatter struct{}

func (j JSONFormatter) Name() string { return "json" }

func (j JSONFormatter) Format(report *domain.ComprehensiveReport) ([]byte, error) {
	return json.MarshalIndent(report, "", "  ")
}
