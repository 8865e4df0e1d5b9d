// internal/domain/profile.go
package domain

import (
	"errors"
	"strings"
)

// Profile is the runner's self-reported fitness profile a plan is generated from.
type Profile struct {
	Experience string   `bson:"experience" json:"experience"`
	Goal       string   `bson:"goal" json:"goal"`
	Weight     *float64 `bson:"weight" json:"weight,omitempty"` // kg, optional
	Height     *float64 `bson:"height" json:"height,omitempty"` // cm, optional
	RunDays    []string `bson:"run_days" json:"run_days"`       // Ordered weekday names the runner is available
}

// Validate checks the invariants a profile must hold before any generation cost is incurred.
func (p *Profile) Validate() error {
	if p == nil {
		return errors.New("profile is required")
	}
	if len(p.RunDays) == 0 {
		return errors.New("run_days must list at least one day")
	}
	for _, d := range p.RunDays {
		if strings.TrimSpace(d) == "" {
			return errors.New("run_days must not contain blank entries")
		}
	}
	if p.Weight != nil && *p.Weight < 0 {
		return errors.New("weight must not be negative")
	}
	if p.Height != nil && *p.Height < 0 {
		return errors.New("height must not be negative")
	}
	return nil
}
