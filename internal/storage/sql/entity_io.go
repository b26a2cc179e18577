package sql

import (
	"database/sql"
	"encoding/json"

	"github.com/bench-arena/bench-arena/internal/messages"
	"github.com/bench-arena/bench-arena/internal/serviceerrors"
)

// The entity JSON carries the full resource including the envelope
// timestamps; the envelope columns exist for defaults and inspection only.
// Reads therefore decode id and entity and nothing else, which keeps the
// row format independent of driver time handling.

// getEntity fetches a single entity by the given filter columns. Returns a
// ResourceNotFound service error when no row matches.
func getEntity[T any](s *SQLStorage, table string, resourceType string, resourceID string, filterColumns []string, args ...any) (*T, error) {
	query, err := createGetEntityStatement(s.sqlConfig.Driver, table, filterColumns...)
	if err != nil {
		return nil, err
	}

	var id string
	var entityJSON string
	err = s.pool.QueryRowContext(s.ctx, query, args...).Scan(&id, &entityJSON)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, serviceerrors.NewServiceError(messages.ResourceNotFound, "Type", resourceType, "ResourceId", resourceID)
		}
		s.logger.Error("Failed to get entity", "error", err, "table", table, "id", resourceID)
		return nil, serviceerrors.NewServiceError(messages.DatabaseOperationFailed, "Type", resourceType, "ResourceId", resourceID, "Error", err.Error())
	}

	var entity T
	if err := json.Unmarshal([]byte(entityJSON), &entity); err != nil {
		s.logger.Error("Failed to unmarshal entity", "error", err, "table", table, "id", id)
		return nil, serviceerrors.NewServiceError(messages.JSONUnmarshalFailed, "Type", resourceType, "Error", err.Error())
	}
	return &entity, nil
}

// listEntities fetches all entities matching the filter columns in the
// given order.
func listEntities[T any](s *SQLStorage, table string, resourceType string, orderBy string, filterColumns []string, args ...any) ([]T, error) {
	query, err := createListEntitiesStatement(s.sqlConfig.Driver, table, orderBy, filterColumns...)
	if err != nil {
		return nil, err
	}

	rows, err := s.pool.QueryContext(s.ctx, query, args...)
	if err != nil {
		s.logger.Error("Failed to list entities", "error", err, "table", table)
		return nil, serviceerrors.NewServiceError(messages.QueryFailed, "Type", resourceType, "Error", err.Error())
	}
	defer rows.Close()

	var items []T
	for rows.Next() {
		var id string
		var entityJSON string
		if err := rows.Scan(&id, &entityJSON); err != nil {
			s.logger.Error("Failed to scan entity row", "error", err, "table", table)
			return nil, serviceerrors.NewServiceError(messages.QueryFailed, "Type", resourceType, "Error", err.Error())
		}
		var entity T
		if err := json.Unmarshal([]byte(entityJSON), &entity); err != nil {
			s.logger.Error("Failed to unmarshal entity", "error", err, "table", table, "id", id)
			return nil, serviceerrors.NewServiceError(messages.JSONUnmarshalFailed, "Type", resourceType, "Error", err.Error())
		}
		items = append(items, entity)
	}
	if err := rows.Err(); err != nil {
		s.logger.Error("Error iterating entity rows", "error", err, "table", table)
		return nil, serviceerrors.NewServiceError(messages.QueryFailed, "Type", resourceType, "Error", err.Error())
	}
	return items, nil
}

// insertEntity inserts a new entity row. The filter column values must be
// given in the same order as the columns.
func insertEntity(s *SQLStorage, table string, resourceType string, id string, entity any, columns []string, columnValues ...any) error {
	entityJSON, err := json.Marshal(entity)
	if err != nil {
		return serviceerrors.NewServiceError(messages.JSONUnmarshalFailed, "Type", resourceType, "Error", err.Error())
	}
	query, err := createInsertEntityStatement(s.sqlConfig.Driver, table, columns...)
	if err != nil {
		return err
	}
	args := append([]any{id}, columnValues...)
	args = append(args, string(entityJSON))
	if _, err := s.exec(query, args...); err != nil {
		s.logger.Error("Failed to insert entity", "error", err, "table", table, "id", id)
		return serviceerrors.NewServiceError(messages.DatabaseOperationFailed, "Type", resourceType, "ResourceId", id, "Error", err.Error())
	}
	return nil
}

// updateEntity rewrites an entity row by id, keeping the filter columns in
// sync with the entity JSON. Last writer wins.
func updateEntity(s *SQLStorage, table string, resourceType string, id string, entity any, columns []string, columnValues ...any) error {
	entityJSON, err := json.Marshal(entity)
	if err != nil {
		return serviceerrors.NewServiceError(messages.JSONUnmarshalFailed, "Type", resourceType, "Error", err.Error())
	}
	query, err := createUpdateEntityStatement(s.sqlConfig.Driver, table, columns...)
	if err != nil {
		return err
	}
	args := append([]any{}, columnValues...)
	args = append(args, string(entityJSON), id)
	if _, err := s.exec(query, args...); err != nil {
		s.logger.Error("Failed to update entity", "error", err, "table", table, "id", id)
		return serviceerrors.NewServiceError(messages.DatabaseOperationFailed, "Type", resourceType, "ResourceId", id, "Error", err.Error())
	}
	return nil
}
