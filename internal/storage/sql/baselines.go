package sql

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/bench-arena/bench-arena/internal/constants"
	"github.com/bench-arena/bench-arena/internal/messages"
	"github.com/bench-arena/bench-arena/internal/serviceerrors"
	"github.com/bench-arena/bench-arena/pkg/api"
)

//#######################################################################
// Baseline operations
//#######################################################################

func (s *SQLStorage) CreateBaseline(baseline *api.BaselineResource) (*api.BaselineResource, error) {
	id := s.generateID()
	now := time.Now().UTC()
	stored := *baseline
	stored.ID = id
	stored.CreatedAt = now
	stored.UpdatedAt = now
	s.logger.Info("Creating baseline", "id", id, "category", baseline.Category, "version", baseline.Version, "status", baseline.Status)
	err := insertEntity(s, TABLE_BASELINES, constants.ResourceTypeBaseline, id, &stored,
		[]string{"category", "status"}, string(baseline.Category), string(baseline.Status))
	if err != nil {
		return nil, err
	}
	return &stored, nil
}

// GetActiveBaseline returns the single ACTIVE baseline of a category, or a
// ResourceNotFound service error when the lineage is empty.
func (s *SQLStorage) GetActiveBaseline(category api.ArtifactCategory) (*api.BaselineResource, error) {
	return getEntity[api.BaselineResource](s, TABLE_BASELINES, constants.ResourceTypeBaseline, string(category),
		[]string{"category", "status"}, string(category), string(api.BaselineActive))
}

// GetBaselines returns the full lineage of a category, newest first.
func (s *SQLStorage) GetBaselines(category api.ArtifactCategory) ([]api.BaselineResource, error) {
	return listEntities[api.BaselineResource](s, TABLE_BASELINES, constants.ResourceTypeBaseline, "created_at DESC, id",
		[]string{"category"}, string(category))
}

func (s *SQLStorage) getBaseline(id string) (*api.BaselineResource, error) {
	return getEntity[api.BaselineResource](s, TABLE_BASELINES, constants.ResourceTypeBaseline, id, []string{"id"}, id)
}

func (s *SQLStorage) UpdateBaselineStatus(id string, status api.BaselineStatus) error {
	baseline, err := s.getBaseline(id)
	if err != nil {
		return err
	}
	baseline.Status = status
	baseline.UpdatedAt = time.Now().UTC()
	s.logger.Info("Updating baseline status", "id", id, "status", status)
	return updateEntity(s, TABLE_BASELINES, constants.ResourceTypeBaseline, id, baseline,
		[]string{"status"}, string(status))
}

// SetBaselineImage records the built image reference on a baseline.
func (s *SQLStorage) SetBaselineImage(id string, imageRef string) error {
	baseline, err := s.getBaseline(id)
	if err != nil {
		return err
	}
	baseline.ImageRef = imageRef
	baseline.UpdatedAt = time.Now().UTC()
	return updateEntity(s, TABLE_BASELINES, constants.ResourceTypeBaseline, id, baseline,
		[]string{"status"}, string(baseline.Status))
}

// ActivateBaseline marks the given baseline ACTIVE and the previous one
// DEPRECATED inside one transaction so a reader never observes two ACTIVE
// baselines in a category.
func (s *SQLStorage) ActivateBaseline(id string, previousID string, activatedAt time.Time) error {
	baseline, err := s.getBaseline(id)
	if err != nil {
		return err
	}
	baseline.Status = api.BaselineActive
	baseline.ActivatedAt = &activatedAt
	baseline.UpdatedAt = time.Now().UTC()
	baselineJSON, err := json.Marshal(baseline)
	if err != nil {
		return serviceerrors.NewServiceError(messages.JSONUnmarshalFailed, "Type", constants.ResourceTypeBaseline, "Error", err.Error())
	}

	var previousJSON []byte
	if previousID != "" {
		previous, err := s.getBaseline(previousID)
		if err != nil {
			return err
		}
		previous.Status = api.BaselineDeprecated
		previous.DeprecatedAt = &activatedAt
		previous.UpdatedAt = time.Now().UTC()
		previousJSON, err = json.Marshal(previous)
		if err != nil {
			return serviceerrors.NewServiceError(messages.JSONUnmarshalFailed, "Type", constants.ResourceTypeBaseline, "Error", err.Error())
		}
	}

	updateQuery, err := createUpdateEntityStatement(s.sqlConfig.Driver, TABLE_BASELINES, "status")
	if err != nil {
		return err
	}

	s.logger.Info("Activating baseline", "id", id, "previous_id", previousID)
	return s.withTransaction("activate baseline", id, func(txn *sql.Tx) error {
		if _, err := txn.ExecContext(s.ctx, updateQuery, string(api.BaselineActive), string(baselineJSON), id); err != nil {
			return serviceerrors.WithRollback(err)
		}
		if previousID != "" {
			if _, err := txn.ExecContext(s.ctx, updateQuery, string(api.BaselineDeprecated), string(previousJSON), previousID); err != nil {
				return serviceerrors.WithRollback(err)
			}
		}
		return nil
	})
}
