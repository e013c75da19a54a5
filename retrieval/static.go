package retrieval

import (
	"context"

	"github.com/AICogEngineer/supportgate/workflow"
)

// StaticRetriever serves a fixed order and policy fixture. Useful for
// demos and tests where no database is available.
type StaticRetriever struct{}

// Retrieve implements workflow.Retriever.
func (StaticRetriever) Retrieve(_ context.Context, userID, orderID, _ string) (workflow.RetrievalOutputs, error) {
	if userID == "" {
		return workflow.RetrievalOutputs{}, ErrMissingUserID
	}
	if orderID == "" {
		orderID = "ORD12345"
	}
	return workflow.RetrievalOutputs{
		OrderData: map[string]any{
			"order_id":   orderID,
			"user_id":    userID,
			"item_count": 2,
			"total":      120.50,
			"status":     "shipped",
		},
		PolicyContext: map[string]any{
			"return_window_days": "30",
			"refund_policy":      "Full refund within 30 days of delivery",
			"shipping_guarantee": "2-day shipping guaranteed",
		},
	}, nil
}
