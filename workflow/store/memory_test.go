package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
)

type demoState struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestMemStoreSteps(t *testing.T) {
	ctx := context.Background()
	st := NewMemStore[demoState]()

	t.Run("latest of empty run is ErrNotFound", func(t *testing.T) {
		_, _, err := st.LoadLatest(ctx, "missing")
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("err = %v, want ErrNotFound", err)
		}
	})

	t.Run("latest tracks highest step", func(t *testing.T) {
		for i := 1; i <= 3; i++ {
			if err := st.SaveStep(ctx, "run1", i, "node", demoState{Name: "s", Count: i}); err != nil {
				t.Fatalf("SaveStep %d: %v", i, err)
			}
		}
		state, step, err := st.LoadLatest(ctx, "run1")
		if err != nil {
			t.Fatalf("LoadLatest: %v", err)
		}
		if step != 3 || state.Count != 3 {
			t.Errorf("got step %d count %d, want 3/3", step, state.Count)
		}
	})

	t.Run("runs are isolated", func(t *testing.T) {
		if err := st.SaveStep(ctx, "run2", 1, "node", demoState{Count: 99}); err != nil {
			t.Fatalf("SaveStep: %v", err)
		}
		state, _, err := st.LoadLatest(ctx, "run1")
		if err != nil {
			t.Fatalf("LoadLatest: %v", err)
		}
		if state.Count == 99 {
			t.Error("run1 state leaked from run2")
		}
	})

	t.Run("history preserves save order", func(t *testing.T) {
		records := st.History("run1")
		if len(records) != 3 {
			t.Fatalf("history length = %d, want 3", len(records))
		}
		for i, r := range records {
			if r.Step != i+1 {
				t.Errorf("record %d has step %d", i, r.Step)
			}
		}
	})
}

func TestMemStoreCheckpoints(t *testing.T) {
	ctx := context.Background()
	st := NewMemStore[demoState]()

	if _, _, err := st.LoadCheckpoint(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}

	if err := st.SaveCheckpoint(ctx, "cp1", demoState{Name: "paused", Count: 4}, 4); err != nil {
		t.Fatalf("SaveCheckpoint: %v", err)
	}
	state, step, err := st.LoadCheckpoint(ctx, "cp1")
	if err != nil {
		t.Fatalf("LoadCheckpoint: %v", err)
	}
	if state.Name != "paused" || step != 4 {
		t.Errorf("got %+v at step %d, want paused/4", state, step)
	}

	// Same ID overwrites.
	if err := st.SaveCheckpoint(ctx, "cp1", demoState{Name: "resumed", Count: 7}, 7); err != nil {
		t.Fatalf("SaveCheckpoint overwrite: %v", err)
	}
	state, step, err = st.LoadCheckpoint(ctx, "cp1")
	if err != nil {
		t.Fatalf("LoadCheckpoint: %v", err)
	}
	if state.Name != "resumed" || step != 7 {
		t.Errorf("got %+v at step %d, want resumed/7", state, step)
	}
}

func TestMemStoreConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	st := NewMemStore[demoState]()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			runID := fmt.Sprintf("run%d", n)
			for step := 1; step <= 5; step++ {
				_ = st.SaveStep(ctx, runID, step, "node", demoState{Count: step})
				_, _, _ = st.LoadLatest(ctx, runID)
			}
		}(i)
	}
	wg.Wait()

	for i := 0; i < 10; i++ {
		_, step, err := st.LoadLatest(ctx, fmt.Sprintf("run%d", i))
		if err != nil {
			t.Fatalf("LoadLatest run%d: %v", i, err)
		}
		if step != 5 {
			t.Errorf("run%d latest step = %d, want 5", i, step)
		}
	}
}
