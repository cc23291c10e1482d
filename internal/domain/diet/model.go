// Package diet manages meal logging and dietary restrictions, flagging meals
// that conflict with an elder's restrictions.
package diet

import (
	"time"

	"github.com/google/uuid"
)

// Meal types.
const (
	MealBreakfast = "breakfast"
	MealLunch     = "lunch"
	MealDinner    = "dinner"
	MealSnack     = "snack"
)

// Entry is one logged meal.
type Entry struct {
	ID          uuid.UUID `json:"id"`
	ElderID     uuid.UUID `json:"elderId"`
	GroupID     uuid.UUID `json:"groupId"`
	MealType    string    `json:"mealType"`
	Description string    `json:"description"`
	LoggedBy    uuid.UUID `json:"loggedBy"`
	ConsumedAt  time.Time `json:"consumedAt"`
	Violations  []string  `json:"violations"` // restriction substances this meal conflicts with
	CreatedAt   time.Time `json:"createdAt"`
}

// Restriction is a food or substance the elder must avoid.
type Restriction struct {
	ID        uuid.UUID `json:"id"`
	ElderID   uuid.UUID `json:"elderId"`
	Substance string    `json:"substance"` // "sodium", "grapefruit", "alcohol"
	Reason    *string   `json:"reason,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}
