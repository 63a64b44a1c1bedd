package core

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func TestNewGoal(t *testing.T) {
	g, err := NewGoal("u1", "Emergency fund", amt("5000"), amt("1000"))
	if err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if g.Status != GoalActive || !g.Current.Equal(amt("1000")) {
		t.Fatalf("unexpected goal %+v", g)
	}

	cases := []struct {
		name    string
		title   string
		target  string
		current string
		want    error
	}{
		{"negative target", "Car", "-5", "0", ErrInvalidTarget},
		{"zero target", "Car", "0", "0", ErrInvalidTarget},
		{"current over target", "Car", "500", "600", ErrCurrentExceedsTarget},
		{"negative current", "Car", "500", "-1", ErrNegativeCurrent},
		{"empty title", "", "500", "0", ErrEmptyTitle},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewGoal("u1", tc.title, amt(tc.target), amt(tc.current))
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestGoalContribute(t *testing.T) {
	g := Goal{ID: uuid.New(), Title: "Trip", Current: amt("1000"), Target: amt("5000"), Status: GoalActive}

	for _, step := range []string{"150", "0.01", "4000"} {
		next, err := g.Contribute(amt(step))
		if err != nil {
			t.Fatalf("contribute %s: %v", step, err)
		}
		if !next.Current.Equal(g.Current.Add(amt(step))) {
			t.Fatalf("expected %s, got %s", g.Current.Add(amt(step)), next.Current)
		}
		if !next.Target.Equal(g.Target) {
			t.Fatalf("target changed: %s -> %s", g.Target, next.Target)
		}
		g = next
	}
	// No ceiling on programmatic accumulation.
	if !g.Current.GreaterThan(g.Target) {
		t.Fatalf("expected current above target, got %s/%s", g.Current, g.Target)
	}

	if _, err := g.Contribute(decimal.Zero); !errors.Is(err, ErrNegativeContribution) {
		t.Fatalf("expected ErrNegativeContribution, got %v", err)
	}
}

func TestGoalArchiveRestoreRoundTrip(t *testing.T) {
	orig := Goal{
		ID:        uuid.New(),
		UserID:    "u1",
		Title:     "House",
		Current:   amt("250"),
		Target:    amt("1000"),
		Advice:    "Save 10% monthly",
		Status:    GoalActive,
		Version:   3,
		CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	archived, err := orig.Archive()
	if err != nil {
		t.Fatalf("archive: %v", err)
	}
	if archived.Status == orig.Status {
		t.Fatal("status must differ after archive")
	}
	if _, err := archived.Archive(); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("double archive: expected ErrInvalidTransition, got %v", err)
	}

	restored, err := archived.Restore()
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if restored.Status != orig.Status || restored.Title != orig.Title || restored.Advice != orig.Advice ||
		!restored.Current.Equal(orig.Current) || !restored.Target.Equal(orig.Target) ||
		restored.ID != orig.ID || !restored.CreatedAt.Equal(orig.CreatedAt) || restored.Version != orig.Version {
		t.Fatalf("round trip changed goal: %+v vs %+v", restored, orig)
	}
	if _, err := restored.Restore(); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("restore active: expected ErrInvalidTransition, got %v", err)
	}
}

func TestGoalEdit(t *testing.T) {
	g := Goal{Title: "Bike", Current: amt("100"), Target: amt("500"), Status: GoalActive}

	unchanged, err := g.Edit("Bike", amt("600"), amt("500"))
	if !errors.Is(err, ErrCurrentExceedsTarget) {
		t.Fatalf("expected ErrCurrentExceedsTarget, got %v", err)
	}
	if !unchanged.Current.Equal(amt("100")) {
		t.Fatalf("rejected edit must not change goal, got %s", unchanged.Current)
	}

	edited, err := g.Edit("E-bike", amt("200"), amt("1500"))
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	if edited.Title != "E-bike" || !edited.Target.Equal(amt("1500")) {
		t.Fatalf("unexpected edit result %+v", edited)
	}
	if !edited.Progress().Equal(amt("13.33")) {
		t.Fatalf("expected progress 13.33, got %s", edited.Progress())
	}
}
