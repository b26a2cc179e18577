package sql

import (
	"fmt"
	"strings"
)

func getUnsupportedDriverError(driver string) error {
	return fmt.Errorf("unsupported driver: %s", driver)
}

// quoteIdentifier properly quotes an identifier for the given driver
func quoteIdentifier(_ /*driver*/ string, identifier string) string {
	// Escape double quotes by doubling them
	escaped := strings.ReplaceAll(identifier, `"`, `""`)
	return fmt.Sprintf(`"%s"`, escaped)
}

// bindForDriver rewrites the ? placeholders of a statement into the $n form
// when targeting postgres. Statements are authored once in sqlite form.
func bindForDriver(driver string, query string) (string, error) {
	switch driver {
	case SQLITE_DRIVER:
		return query, nil
	case POSTGRES_DRIVER:
		var b strings.Builder
		n := 0
		for _, r := range query {
			if r == '?' {
				n++
				fmt.Fprintf(&b, "$%d", n)
			} else {
				b.WriteRune(r)
			}
		}
		return b.String(), nil
	default:
		return "", getUnsupportedDriverError(driver)
	}
}

// createInsertEntityStatement returns a driver-specific INSERT statement
// for the given table with the given filter columns ahead of the entity column.
func createInsertEntityStatement(driver, tableName string, columns ...string) (string, error) {
	quotedTable := quoteIdentifier(driver, tableName)
	all := append([]string{"id"}, columns...)
	all = append(all, "entity")
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(all)), ", ")
	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s);`, quotedTable, strings.Join(all, ", "), placeholders)
	return bindForDriver(driver, query)
}

// createGetEntityStatement returns a driver-specific SELECT statement
// to retrieve an entity row by the given filter columns.
func createGetEntityStatement(driver, tableName string, filterColumns ...string) (string, error) {
	quotedTable := quoteIdentifier(driver, tableName)
	where := ""
	if len(filterColumns) > 0 {
		conds := make([]string, 0, len(filterColumns))
		for _, col := range filterColumns {
			conds = append(conds, fmt.Sprintf("%s = ?", col))
		}
		where = " WHERE " + strings.Join(conds, " AND ")
	}
	query := fmt.Sprintf(`SELECT id, entity FROM %s%s;`, quotedTable, where)
	return bindForDriver(driver, query)
}

// createListEntitiesStatement returns a driver-specific SELECT statement to
// list entity rows matching the filter columns, ordered by the given clause.
func createListEntitiesStatement(driver, tableName string, orderBy string, filterColumns ...string) (string, error) {
	quotedTable := quoteIdentifier(driver, tableName)
	where := ""
	if len(filterColumns) > 0 {
		conds := make([]string, 0, len(filterColumns))
		for _, col := range filterColumns {
			conds = append(conds, fmt.Sprintf("%s = ?", col))
		}
		where = " WHERE " + strings.Join(conds, " AND ")
	}
	order := ""
	if orderBy != "" {
		order = " ORDER BY " + orderBy
	}
	query := fmt.Sprintf(`SELECT id, entity FROM %s%s%s;`, quotedTable, where, order)
	return bindForDriver(driver, query)
}

// createCountEntitiesStatement returns a driver-specific COUNT statement
// for rows matching the filter columns.
func createCountEntitiesStatement(driver, tableName string, filterColumns ...string) (string, error) {
	quotedTable := quoteIdentifier(driver, tableName)
	where := ""
	if len(filterColumns) > 0 {
		conds := make([]string, 0, len(filterColumns))
		for _, col := range filterColumns {
			conds = append(conds, fmt.Sprintf("%s = ?", col))
		}
		where = " WHERE " + strings.Join(conds, " AND ")
	}
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s%s;`, quotedTable, where)
	return bindForDriver(driver, query)
}

// createUpdateEntityStatement returns a driver-specific UPDATE statement
// rewriting the entity column and the given filter columns for one row by id.
// The whole row is replaced; concurrent writers follow last-writer-wins.
func createUpdateEntityStatement(driver, tableName string, columns ...string) (string, error) {
	quotedTable := quoteIdentifier(driver, tableName)
	sets := make([]string, 0, len(columns)+2)
	for _, col := range columns {
		sets = append(sets, fmt.Sprintf("%s = ?", col))
	}
	sets = append(sets, "entity = ?", "updated_at = CURRENT_TIMESTAMP")
	query := fmt.Sprintf(`UPDATE %s SET %s WHERE id = ?;`, quotedTable, strings.Join(sets, ", "))
	return bindForDriver(driver, query)
}
