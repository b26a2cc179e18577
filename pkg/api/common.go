package api

import (
	"fmt"
	"time"
)

// ------------------------------------------------------------------------------------------------
// General naming conventions:
// ------------------------------------------------------------------------------------------------
// - ...Config - represents an object specified by the caller when creating a resource.
// - ...Resource - represents an object stored in the database. This is the REST resource.
// - ...ResourceList - represents a list of REST resources
// - ...Ref - represents a reference to an object
// ------------------------------------------------------------------------------------------------

// ArtifactCategory is the category of a competing code artifact. It is fixed
// per tournament and selects the scoring strategy and the baseline lineage.
type ArtifactCategory string

const (
	CategoryAnalytics ArtifactCategory = "analytics"
	CategoryML        ArtifactCategory = "ml"
)

func GetArtifactCategory(s string) (ArtifactCategory, error) {
	switch s {
	case string(CategoryAnalytics):
		return CategoryAnalytics, nil
	case string(CategoryML):
		return CategoryML, nil
	default:
		return ArtifactCategory(s), fmt.Errorf("invalid artifact category: %s", s)
	}
}

type Ref struct {
	ID string `json:"id" validate:"required"`
}

type HRef struct {
	Href string `json:"href"`
}

// Error represents an error response
type Error struct {
	MessageCode string `json:"message_code"`
	Message     string `json:"message"`
	Trace       string `json:"trace"`
}

// Resource represents base resource fields
type Resource struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Page represents generic pagination schema
type Page struct {
	First      *HRef `json:"first"`
	Next       *HRef `json:"next,omitempty"`
	Limit      int   `json:"limit"`
	TotalCount int   `json:"total_count"`
}

// EnvVar captures environment variables passed into a sandbox container.
type EnvVar struct {
	Name  string `mapstructure:"name" yaml:"name" json:"name"`
	Value string `mapstructure:"value" yaml:"value" json:"value"`
}

// Calendar days are the unit the tournament engine schedules in. All date
// comparisons happen on UTC midnights so that two timestamps on the same
// calendar day are equal after truncation.

const dayFormat = "2006-01-02"

// Day truncates a timestamp to its UTC calendar day.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DayString formats a timestamp as a calendar day (YYYY-MM-DD).
func DayString(t time.Time) string {
	return Day(t).Format(dayFormat)
}

// ParseDay parses a calendar day in YYYY-MM-DD form.
func ParseDay(s string) (time.Time, error) {
	return time.Parse(dayFormat, s)
}

// DaysBetween returns the number of whole calendar days from a to b.
func DaysBetween(a, b time.Time) int {
	return int(Day(b).Sub(Day(a)).Hours() / 24)
}
