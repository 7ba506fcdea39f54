package history

import (
	"context"
	"fmt"
	"testing"

	"github.com/learnloop/tutorbook/internal/tutor"
)

func TestMemoryHistoryRoundTrip(t *testing.T) {
	h := NewMemoryHistory()
	ctx := context.Background()

	if err := h.Append(ctx, "s-1",
		tutor.Message{Role: tutor.RoleUser, Content: "q1"},
		tutor.Message{Role: tutor.RoleAssistant, Content: "a1"},
	); err != nil {
		t.Fatalf("Append: %v", err)
	}

	turns, err := h.List(ctx, "s-1", 10)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(turns) != 2 || turns[0].Content != "q1" || turns[1].Content != "a1" {
		t.Fatalf("unexpected turns %+v", turns)
	}

	// sessions are isolated
	other, _ := h.List(ctx, "s-2", 10)
	if len(other) != 0 {
		t.Fatalf("expected empty history for unknown session")
	}
}

func TestMemoryHistoryLimit(t *testing.T) {
	h := NewMemoryHistory()
	ctx := context.Background()
	for i := 0; i < 6; i++ {
		_ = h.Append(ctx, "s", tutor.Message{Role: tutor.RoleUser, Content: fmt.Sprintf("m%d", i)})
	}
	turns, _ := h.List(ctx, "s", 2)
	if len(turns) != 2 || turns[0].Content != "m4" || turns[1].Content != "m5" {
		t.Fatalf("limit should keep the most recent turns, got %+v", turns)
	}
}

func TestMemoryHistoryCap(t *testing.T) {
	h := NewMemoryHistory()
	ctx := context.Background()
	for i := 0; i < maxTurns+10; i++ {
		_ = h.Append(ctx, "s", tutor.Message{Role: tutor.RoleUser, Content: fmt.Sprintf("m%d", i)})
	}
	turns, _ := h.List(ctx, "s", 0)
	if len(turns) != maxTurns {
		t.Fatalf("history should cap at %d turns, got %d", maxTurns, len(turns))
	}
	if turns[len(turns)-1].Content != fmt.Sprintf("m%d", maxTurns+9) {
		t.Fatalf("newest turn should survive the cap")
	}
}
