package provider

import (
	"context"
	"fmt"
	"strings"
)

// Mock answers with a fixed four-week plan wrapped in a little prose. It is used for
// local runs and end-to-end tests without backend credentials.
type Mock struct {
	name  string
	model string
}

func NewMock(name, model string) *Mock {
	if name == "" {
		name = "mock"
	}
	if model == "" {
		model = "canned"
	}
	return &Mock{name: name, model: model}
}

func (m *Mock) Name() string  { return m.name }
func (m *Mock) Model() string { return m.model }

func (m *Mock) Generate(ctx context.Context, _ string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	weeks := make([]string, 0, 4)
	for w := 1; w <= 4; w++ {
		weeks = append(weeks, fmt.Sprintf(`"week%d": [`+
			`{"day": "Tuesday", "type": "Easy run", "duration_minutes": %d, "description": "Conversational pace"},`+
			`{"day": "Saturday", "type": "Long run", "duration_minutes": %d, "description": "Steady effort"}]`,
			w, 20+5*w, 40+10*w))
	}
	return "Here is your plan:\n{" + strings.Join(weeks, ", ") + "}\n", nil
}
