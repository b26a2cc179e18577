package sql

import (
	"database/sql"
	"fmt"

	"github.com/bench-arena/bench-arena/internal/abstractions"
	"github.com/bench-arena/bench-arena/internal/messages"
	"github.com/bench-arena/bench-arena/internal/serviceerrors"
)

type TransactionFunction func(*sql.Tx) error

// withTransaction runs fn inside a transaction. The transaction commits
// unless fn returned a ServiceError marked for rollback, or a non-service
// error. fn's error is always the one returned to the caller; commit and
// rollback failures replace it.
func (s *SQLStorage) withTransaction(name string, resourceID string, fn TransactionFunction) error {
	txn, err := s.pool.BeginTx(s.ctx, nil)
	if err != nil {
		return s.transactionFailed("begin", name, resourceID, err)
	}

	fnErr := fn(txn)

	commit := fnErr == nil
	if fnErr != nil {
		if se, ok := fnErr.(abstractions.ServiceError); ok {
			commit = !se.ShouldRollback()
		}
	}

	if commit {
		if txnErr := txn.Commit(); txnErr != nil {
			return s.transactionFailed("commit", name, resourceID, txnErr)
		}
	} else if txnErr := txn.Rollback(); txnErr != nil {
		return s.transactionFailed("rollback", name, resourceID, txnErr)
	}
	return fnErr
}

func (s *SQLStorage) transactionFailed(stage string, name string, resourceID string, err error) error {
	operation := fmt.Sprintf("%s transaction %s", stage, name)
	s.logger.Error("Transaction failed", "name", operation, "resource_id", resourceID, "error", err.Error())
	return serviceerrors.NewServiceError(messages.DatabaseOperationFailed, "Type", operation, "ResourceId", resourceID, "Error", err.Error())
}
