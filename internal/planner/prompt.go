// Package planner holds the pure stages of plan generation: rendering the prompt,
// pulling the JSON document out of a model reply, and normalizing it into a WorkoutPlan.
package planner

import (
	"strconv"
	"strings"

	"alcyxob/runplan/internal/domain"
)

// NotInformed replaces optional profile fields the runner left empty.
const NotInformed = "not informed"

// BuildPrompt renders the instruction sent to the model. It is deterministic:
// the same profile always yields the same text.
func BuildPrompt(p domain.Profile) string {
	var b strings.Builder

	b.WriteString("You are an experienced running coach. Create a personalized 4-week running plan for the runner below.\n\n")

	b.WriteString("Runner profile:\n")
	b.WriteString("- Experience level: " + orNotInformed(p.Experience) + "\n")
	b.WriteString("- Goal: " + orNotInformed(p.Goal) + "\n")
	b.WriteString("- Weight: " + formatMeasure(p.Weight, "kg") + "\n")
	b.WriteString("- Height: " + formatMeasure(p.Height, "cm") + "\n")
	b.WriteString("- Available days: " + strings.Join(p.RunDays, ", ") + "\n\n")

	b.WriteString("Rules:\n")
	b.WriteString("- Schedule sessions only on the available days listed above.\n")
	b.WriteString("- Progress the load gradually across the four weeks and respect the experience level.\n\n")

	b.WriteString("Output format:\n")
	b.WriteString("Return a JSON object with exactly four keys: \"week1\", \"week2\", \"week3\" and \"week4\".\n")
	b.WriteString("Each key maps to an array of day objects, in training order. Every day object has exactly these fields:\n")
	b.WriteString("  \"day\": the weekday name (string)\n")
	b.WriteString("  \"type\": the kind of workout, e.g. \"Easy run\", \"Intervals\", \"Long run\" (string)\n")
	b.WriteString("  \"duration_minutes\": total duration in minutes (non-negative integer)\n")
	b.WriteString("  \"description\": short instructions for the session (string)\n\n")
	b.WriteString("Example: {\"week1\": [{\"day\": \"Monday\", \"type\": \"Easy run\", \"duration_minutes\": 20, \"description\": \"Conversational pace\"}], \"week2\": [], \"week3\": [], \"week4\": []}\n\n")
	b.WriteString("Respond with the JSON object ONLY. Do not add any explanation, prose or markdown code fences. ")
	b.WriteString("The first character of your reply must be { and the last character must be }.")

	return b.String()
}

func orNotInformed(s string) string {
	if strings.TrimSpace(s) == "" {
		return NotInformed
	}
	return s
}

func formatMeasure(v *float64, unit string) string {
	if v == nil {
		return NotInformed
	}
	return strconv.FormatFloat(*v, 'f', -1, 64) + " " + unit
}
