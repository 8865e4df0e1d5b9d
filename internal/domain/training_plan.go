// internal/domain/training_plan.go
package domain

// Week identifiers of a plan, in order. A plan always has exactly these four.
const (
	Week1 = "week1"
	Week2 = "week2"
	Week3 = "week3"
	Week4 = "week4"
)

// WeekKeys lists the week identifiers in plan order.
var WeekKeys = []string{Week1, Week2, Week3, Week4}

// WorkoutDay is a single session within a week.
type WorkoutDay struct {
	Day             string `bson:"day" json:"day"`   // Weekday name in the deployment's locale
	Type            string `bson:"type" json:"type"` // e.g. "Easy run", "Intervals", "Rest"
	DurationMinutes int    `bson:"duration_minutes" json:"duration_minutes"`
	Description     string `bson:"description" json:"description"`
}

// WorkoutPlan is a four-week running plan. Every week is an ordered sequence of sessions;
// an empty week is an empty sequence, never absent.
type WorkoutPlan struct {
	Week1 []WorkoutDay `bson:"week1" json:"week1"`
	Week2 []WorkoutDay `bson:"week2" json:"week2"`
	Week3 []WorkoutDay `bson:"week3" json:"week3"`
	Week4 []WorkoutDay `bson:"week4" json:"week4"`
}

// NewWorkoutPlan returns a plan with all four weeks present and empty.
func NewWorkoutPlan() WorkoutPlan {
	return WorkoutPlan{
		Week1: []WorkoutDay{},
		Week2: []WorkoutDay{},
		Week3: []WorkoutDay{},
		Week4: []WorkoutDay{},
	}
}

// Week returns the sessions for the given week key, or nil for an unknown key.
func (p *WorkoutPlan) Week(key string) []WorkoutDay {
	switch key {
	case Week1:
		return p.Week1
	case Week2:
		return p.Week2
	case Week3:
		return p.Week3
	case Week4:
		return p.Week4
	}
	return nil
}

// SetWeek replaces the sessions of a week. Unknown keys are ignored.
// A nil slice is stored as an empty one.
func (p *WorkoutPlan) SetWeek(key string, days []WorkoutDay) {
	if days == nil {
		days = []WorkoutDay{}
	}
	switch key {
	case Week1:
		p.Week1 = days
	case Week2:
		p.Week2 = days
	case Week3:
		p.Week3 = days
	case Week4:
		p.Week4 = days
	}
}

// TotalSessions counts sessions across all weeks.
func (p *WorkoutPlan) TotalSessions() int {
	return len(p.Week1) + len(p.Week2) + len(p.Week3) + len(p.Week4)
}
