// internal/domain/profile_record.go
package domain

import "time"

// NoResponseSentinel is stored as the raw reply when generation failed before any
// provider returned text.
const NoResponseSentinel = "no response"

// PlanOutcome is the terminal result of one generation run: either a PlanSuccess or a PlanFailure.
type PlanOutcome interface {
	isPlanOutcome()
}

// PlanSuccess carries a validated plan and the provider/model that produced it.
type PlanSuccess struct {
	Plan        WorkoutPlan
	GeneratedBy string
}

// PlanFailure carries the error that ended the run and whatever raw text the provider
// returned before it failed. RawResponse is nil when no provider answered.
type PlanFailure struct {
	Err         error
	RawResponse *string
}

func (PlanSuccess) isPlanOutcome() {}
func (PlanFailure) isPlanOutcome() {}

// ProfileRecord is the persisted shape, keyed by subject id.
// Exactly one of WorkoutPlan or (PlanGenerationError, RawAIResponse) is set;
// the other side is stored as explicit nulls so a retry fully overwrites the previous outcome.
type ProfileRecord struct {
	SubjectID string `bson:"_id" json:"subjectId"`
	Profile   `bson:",inline"`

	WorkoutPlan         *WorkoutPlan `bson:"workout_plan" json:"workout_plan"`
	PlanGenerationError *string      `bson:"planGenerationError" json:"planGenerationError"`
	RawAIResponse       *string      `bson:"rawAIResponse" json:"rawAIResponse"`
	GeneratedBy         *string      `bson:"generatedBy" json:"generatedBy,omitempty"`

	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"` // Set by the repository on write
}

// NewProfileRecord projects an outcome into the flat persisted shape.
func NewProfileRecord(subjectID string, profile Profile, outcome PlanOutcome) ProfileRecord {
	rec := ProfileRecord{SubjectID: subjectID, Profile: profile}

	switch o := outcome.(type) {
	case PlanSuccess:
		plan := o.Plan
		rec.WorkoutPlan = &plan
		if o.GeneratedBy != "" {
			by := o.GeneratedBy
			rec.GeneratedBy = &by
		}
	case PlanFailure:
		msg := "unknown error"
		if o.Err != nil {
			msg = o.Err.Error()
		}
		raw := NoResponseSentinel
		if o.RawResponse != nil {
			raw = *o.RawResponse
		}
		rec.PlanGenerationError = &msg
		rec.RawAIResponse = &raw
	}
	return rec
}

// Succeeded reports whether the record holds a plan rather than a diagnostic.
func (r *ProfileRecord) Succeeded() bool {
	return r.WorkoutPlan != nil
}
