package retrieval

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite"

	"github.com/AICogEngineer/supportgate/workflow"
)

// SQLRetriever looks up order and policy data in a relational backend via
// database/sql. The mysql and sqlite drivers are registered; any other
// registered driver works as well.
//
// Expected schema:
//
//	orders   (order_id, user_id, item_count, total, status)
//	policies (name, clause)
type SQLRetriever struct {
	db *sql.DB
}

// Open connects with the named driver ("mysql" or "sqlite") and verifies
// the connection.
func Open(driver, dsn string) (*SQLRetriever, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}
	return &SQLRetriever{db: db}, nil
}

// NewSQLRetriever wraps an existing database handle.
func NewSQLRetriever(db *sql.DB) *SQLRetriever {
	return &SQLRetriever{db: db}
}

// Retrieve implements workflow.Retriever. When orderID is empty the user's
// most recent order is returned. A missing user ID or an unknown order is
// a distinguishable error; partial data is never returned.
func (r *SQLRetriever) Retrieve(ctx context.Context, userID, orderID, _ string) (workflow.RetrievalOutputs, error) {
	if userID == "" {
		return workflow.RetrievalOutputs{}, ErrMissingUserID
	}

	order, err := r.fetchOrder(ctx, userID, orderID)
	if err != nil {
		return workflow.RetrievalOutputs{}, err
	}
	policy, err := r.fetchPolicies(ctx)
	if err != nil {
		return workflow.RetrievalOutputs{}, err
	}

	return workflow.RetrievalOutputs{OrderData: order, PolicyContext: policy}, nil
}

func (r *SQLRetriever) fetchOrder(ctx context.Context, userID, orderID string) (map[string]any, error) {
	query := `SELECT order_id, user_id, item_count, total, status FROM orders WHERE user_id = ?`
	args := []any{userID}
	if orderID != "" {
		query += ` AND order_id = ?`
		args = append(args, orderID)
	}
	query += ` ORDER BY order_id DESC LIMIT 1`

	var (
		oid, uid, status string
		itemCount        int
		total            float64
	)
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&oid, &uid, &itemCount, &total, &status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: user=%s order=%s", ErrOrderNotFound, userID, orderID)
	}
	if err != nil {
		return nil, fmt.Errorf("fetch order: %w", err)
	}

	return map[string]any{
		"order_id":   oid,
		"user_id":    uid,
		"item_count": itemCount,
		"total":      total,
		"status":     status,
	}, nil
}

func (r *SQLRetriever) fetchPolicies(ctx context.Context) (map[string]any, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT name, clause FROM policies`)
	if err != nil {
		return nil, fmt.Errorf("fetch policies: %w", err)
	}
	defer rows.Close()

	policy := map[string]any{}
	for rows.Next() {
		var name, clause string
		if err := rows.Scan(&name, &clause); err != nil {
			return nil, fmt.Errorf("scan policy: %w", err)
		}
		policy[name] = clause
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("fetch policies: %w", err)
	}
	return policy, nil
}

// Close closes the underlying database handle.
func (r *SQLRetriever) Close() error {
	return r.db.Close()
}
