package location

import (
	"context"
	"testing"
)

func TestLocationValidate(t *testing.T) {
	ctx := context.Background()

	t.Run("valid with areas", func(t *testing.T) {
		l := NewLocation("BAR-01", "Main Street Bar")
		l.AddAreaTemplate("Main Bar")
		l.AddAreaTemplate("Dry Storage")
		if err := l.Validate(ctx); err != nil {
			t.Errorf("Validate() error: %v", err)
		}
	})

	t.Run("duplicate area names", func(t *testing.T) {
		l := NewLocation("BAR-01", "Main Street Bar")
		l.AddAreaTemplate("Main Bar")
		l.AddAreaTemplate("Main Bar")
		if err := l.Validate(ctx); err == nil {
			t.Error("Validate() should reject duplicate area names")
		}
	})

	t.Run("empty area name", func(t *testing.T) {
		l := NewLocation("BAR-01", "Main Street Bar")
		l.AddAreaTemplate("")
		if err := l.Validate(ctx); err == nil {
			t.Error("Validate() should reject empty area name")
		}
	})
}

func TestAddAreaTemplateOrdering(t *testing.T) {
	l := NewLocation("BAR-01", "Main Street Bar")
	names := []string{"Main Bar", "Back Bar", "Cellar", "Dry Storage"}
	for _, n := range names {
		l.AddAreaTemplate(n)
	}

	for i, tpl := range l.AreaTemplates {
		if tpl.SortOrder != i {
			t.Errorf("template %q sort order = %d, want %d", tpl.Name, tpl.SortOrder, i)
		}
		if tpl.LocationID != l.ID {
			t.Errorf("template %q location id mismatch", tpl.Name)
		}
	}

	got := l.AreaNames()
	for i := range names {
		if got[i] != names[i] {
			t.Errorf("AreaNames()[%d] = %s, want %s", i, got[i], names[i])
		}
	}
}
