// Package report aggregates the week's care data into summaries, generates
// the optional AI narrative, and serves the CSV/PDF export surface.
package report

import (
	"time"

	"github.com/google/uuid"
)

// ElderWeekly is one elder's week at a glance.
type ElderWeekly struct {
	ElderID         uuid.UUID `json:"elderId"`
	ElderName       string    `json:"elderName"`
	WeekStart       time.Time `json:"weekStart"`
	WeekEnd         time.Time `json:"weekEnd"`
	DosesTaken      int       `json:"dosesTaken"`
	DosesMissed     int       `json:"dosesMissed"`
	AdherenceRate   float64   `json:"adherenceRate"`
	MealsLogged     int       `json:"mealsLogged"`
	DietViolations  int       `json:"dietViolations"`
	AlertsRaised    int       `json:"alertsRaised"`
	AlertsCritical  int       `json:"alertsCritical"`
	ShiftsCompleted int       `json:"shiftsCompleted"`
	ShiftsTotal     int       `json:"shiftsTotal"`
	Highlights      []string  `json:"highlights,omitempty"`
	Narrative       string    `json:"narrative,omitempty"`
}

// GroupWeekly is the weekly summary for a whole care group.
type GroupWeekly struct {
	GroupID     uuid.UUID      `json:"groupId"`
	WeekStart   time.Time      `json:"weekStart"`
	WeekEnd     time.Time      `json:"weekEnd"`
	Elders      []*ElderWeekly `json:"elders"`
	GeneratedAt time.Time      `json:"generatedAt"`
}
