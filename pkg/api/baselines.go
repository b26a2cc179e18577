package api

import (
	"fmt"
	"time"
)

// BaselineStatus is the lifecycle status of a baseline artifact.
type BaselineStatus string

const (
	BaselineBuilding   BaselineStatus = "BUILDING"
	BaselineActive     BaselineStatus = "ACTIVE"
	BaselineDeprecated BaselineStatus = "DEPRECATED"
	BaselineFailed     BaselineStatus = "FAILED"
)

// BaselineResource represents one version in a category's baseline lineage.
// At most one baseline per category is ACTIVE at any time.
type BaselineResource struct {
	Resource
	Category           ArtifactCategory `json:"category"`
	Version            string           `json:"version"`
	SourceRepository   string           `json:"source_repository"`
	CommitHash         string           `json:"commit_hash"`
	ImageRef           string           `json:"image_ref,omitempty"`
	Status             BaselineStatus   `json:"status"`
	OriginTournamentID string           `json:"origin_tournament_id,omitempty"`
	OriginHotkey       string           `json:"origin_hotkey,omitempty"`
	ActivatedAt        *time.Time       `json:"activated_at,omitempty"`
	DeprecatedAt       *time.Time       `json:"deprecated_at,omitempty"`
}

// BaselineResourceList represents a list of baselines
type BaselineResourceList struct {
	Items []BaselineResource `json:"items"`
	Page
}

// NextBaselineVersion increments the minor component of a vMAJOR.MINOR.PATCH
// version string and resets patch to zero. An empty current version yields
// the initial v1.0.0.
func NextBaselineVersion(current string) (string, error) {
	if current == "" {
		return "v1.0.0", nil
	}
	var major, minor, patch int
	if _, err := fmt.Sscanf(current, "v%d.%d.%d", &major, &minor, &patch); err != nil {
		return "", fmt.Errorf("unparseable baseline version %q: %w", current, err)
	}
	return fmt.Sprintf("v%d.%d.0", major, minor+1), nil
}
