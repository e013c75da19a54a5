package workflow

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// Drafter is the finalization step. It consumes the retrieved data (or an
// empty default) and produces the customer-facing draft. No gating occurs
// here; reaching this node means every upstream gate passed or was
// explicitly approved. A recorded edit decision is folded into the internal
// notes rather than restructuring the draft.
type Drafter struct{}

// NewDrafter builds the drafter.
func NewDrafter() *Drafter { return &Drafter{} }

// Run implements Node.
func (d *Drafter) Run(_ context.Context, s State) (State, error) {
	orderData := map[string]any{}
	if s.Retrieved != nil && s.Retrieved.OrderData != nil {
		orderData = s.Retrieved.OrderData
	}

	notes := "Auto-generated draft response"
	if s.HumanDecision != nil && s.HumanDecision.Type == DecisionEdit && len(s.HumanDecision.Edits) > 0 {
		notes += "; reviewer edits: " + formatEdits(s.HumanDecision.Edits)
	}

	s.Draft = &DraftResponse{
		Channel:       ChannelChat,
		Body:          fmt.Sprintf("Here is the information for your order: %s", formatOrder(orderData)),
		InternalNotes: notes,
	}
	s.Status = StatusDraftReady
	return s, nil
}

// formatOrder renders order data with stable key order so drafts are
// reproducible for audit comparison.
func formatOrder(order map[string]any) string {
	if len(order) == 0 {
		return "(no order data on file)"
	}
	keys := make([]string, 0, len(order))
	for k := range order {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, order[k]))
	}
	return strings.Join(parts, ", ")
}

func formatEdits(edits map[string]any) string {
	keys := make([]string, 0, len(edits))
	for k := range edits {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, edits[k]))
	}
	return strings.Join(parts, ", ")
}
