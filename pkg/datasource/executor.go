// Package datasource executes generated queries against the activity store.
package datasource

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"github.com/paceline-ai/paceline-engine/pkg/apperrors"
)

// ColumnInfo describes one column of a result set, in store order.
type ColumnInfo struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// QueryResult holds the raw rows and column metadata from one execution.
type QueryResult struct {
	Columns  []ColumnInfo
	Rows     []map[string]any
	RowCount int
}

// Querier is the slice of pgxpool.Pool the executor needs. Narrowing the
// dependency lets tests substitute a fake without a server.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Executor runs one generated query per request against the store.
type Executor struct {
	pool   Querier
	logger *zap.Logger
}

// NewExecutor creates an executor over the given pool. The pool is expected
// to be configured read-only; the executor itself performs no statement
// screening.
func NewExecutor(pool Querier, logger *zap.Logger) *Executor {
	return &Executor{
		pool:   pool,
		logger: logger.Named("executor"),
	}
}

// ExecuteQuery runs a single SQL statement and fetches all resulting rows
// together with column name/order metadata. The connection backing the query
// is always released on every exit path. Store-reported failures are wrapped
// with the store's diagnostic message; there is no retry, auto-correction, or
// regeneration.
//
// limit > 0 caps the result by wrapping the statement in a subquery.
func (e *Executor) ExecuteQuery(ctx context.Context, sqlQuery string, limit int) (*QueryResult, error) {
	queryToRun := sqlQuery
	if limit > 0 {
		queryToRun = fmt.Sprintf("SELECT * FROM (%s) AS _limited LIMIT %d", sqlQuery, limit)
	}

	rows, err := e.pool.Query(ctx, queryToRun)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", describeError(err))
	}
	defer rows.Close()

	fieldDescs := rows.FieldDescriptions()
	if len(fieldDescs) == 0 {
		// A statement that yields no result set at all - distinct from a
		// SELECT that matched zero rows, which is a valid success.
		return nil, apperrors.ErrNoResult
	}

	columns := make([]ColumnInfo, len(fieldDescs))
	for i, fd := range fieldDescs {
		columns[i] = ColumnInfo{
			Name: string(fd.Name),
			Type: pgTypeNameFromOID(fd.DataTypeOID),
		}
	}

	resultRows := make([]map[string]any, 0)
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("failed to read row values: %w", err)
		}

		rowMap := make(map[string]any)
		for i, col := range columns {
			rowMap[col.Name] = values[i]
		}
		resultRows = append(resultRows, rowMap)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", describeError(err))
	}

	return &QueryResult{
		Columns:  columns,
		Rows:     resultRows,
		RowCount: len(resultRows),
	}, nil
}

// describeError surfaces the store's diagnostic for PostgreSQL errors so the
// caller sees "syntax error at or near ..." rather than a driver wrapper.
func describeError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return fmt.Errorf("%s (SQLSTATE %s): %w", pgErr.Message, pgErr.Code, err)
	}
	return err
}

// pgTypeNameFromOID maps PostgreSQL type OIDs to human-readable type names.
// This covers the types the activities schema and common aggregates produce;
// unknown types return "UNKNOWN".
func pgTypeNameFromOID(oid uint32) string {
	switch oid {
	case 16:
		return "BOOL"
	case 20:
		return "INT8"
	case 21:
		return "INT2"
	case 23:
		return "INT4"
	case 25:
		return "TEXT"
	case 700:
		return "FLOAT4"
	case 701:
		return "FLOAT8"
	case 1042:
		return "BPCHAR"
	case 1043:
		return "VARCHAR"
	case 1082:
		return "DATE"
	case 1083:
		return "TIME"
	case 1114:
		return "TIMESTAMP"
	case 1184:
		return "TIMESTAMPTZ"
	case 1186:
		return "INTERVAL"
	case 1700:
		return "NUMERIC"
	default:
		return "UNKNOWN"
	}
}
