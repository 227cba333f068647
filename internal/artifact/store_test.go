package artifact

import (
	"strings"
	"testing"
	"time"

	"github.com/foundry-sim/foundry/internal/pipeline"
)

func testClock() func() time.Time {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	n := 0
	return func() time.Time {
		n++
		return base.Add(time.Duration(n) * time.Second)
	}
}

func TestPutAssignsDefaultsAndBumpsVersions(t *testing.T) {
	s := NewStore(WithClock(testClock()))
	first, err := s.Put(Artifact{
		ID:        "art-1",
		Type:      TypeDesignDoc,
		Name:      "Design",
		Content:   "v1",
		CreatedBy: pipeline.RoleArchitect,
	})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if first.Version != 1 || first.Status != StatusDraft || first.ReviewStatus != ReviewPending {
		t.Fatalf("defaults not applied: %+v", first)
	}
	if first.CreatedAt.IsZero() || first.UpdatedAt.IsZero() {
		t.Fatalf("timestamps not assigned: %+v", first)
	}

	second, err := s.Put(Artifact{
		ID:        "art-1",
		Type:      TypeDesignDoc,
		Name:      "Design",
		Content:   "v2",
		CreatedBy: pipeline.RoleArchitect,
	})
	if err != nil {
		t.Fatalf("replace: %v", err)
	}
	if second.Version != 2 {
		t.Fatalf("replacement version = %d, want 2", second.Version)
	}
	if !second.CreatedAt.Equal(first.CreatedAt) {
		t.Fatalf("replacement must keep the original CreatedAt")
	}
	if !second.UpdatedAt.After(first.UpdatedAt) {
		t.Fatalf("replacement must advance UpdatedAt")
	}
}

func TestPutRejectsInvalidArtifacts(t *testing.T) {
	s := NewStore()
	tests := []struct {
		name string
		in   Artifact
		want string
	}{
		{name: "missing-id", in: Artifact{Type: TypeCode, Name: "x"}, want: "id is required"},
		{name: "missing-name", in: Artifact{ID: "a", Type: TypeCode}, want: "name is required"},
		{name: "missing-type", in: Artifact{ID: "a", Name: "x"}, want: "type is required"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if _, err := s.Put(test.in); err == nil || !strings.Contains(err.Error(), test.want) {
				t.Fatalf("error = %v, want %q", err, test.want)
			}
		})
	}
	if s.Len() != 0 {
		t.Fatalf("invalid artifacts must not be stored")
	}
}

func TestGetAllKeepsOrderAndSkipsUnknown(t *testing.T) {
	s := NewStore()
	for _, id := range []string{"art-a", "art-b", "art-c"} {
		if _, err := s.Put(Artifact{ID: id, Type: TypeCode, Name: id, CreatedBy: pipeline.RoleDeveloper}); err != nil {
			t.Fatalf("put %s: %v", id, err)
		}
	}
	got := s.GetAll([]string{"art-c", "missing", "art-a"})
	if len(got) != 2 || got[0].ID != "art-c" || got[1].ID != "art-a" {
		t.Fatalf("GetAll order wrong: %+v", got)
	}
}

func TestByCreatorFiltersAndSorts(t *testing.T) {
	s := NewStore()
	puts := []Artifact{
		{ID: "art-b", Type: TypeCode, Name: "B", CreatedBy: pipeline.RoleDeveloper},
		{ID: "art-a", Type: TypeCode, Name: "A", CreatedBy: pipeline.RoleDeveloper},
		{ID: "art-r", Type: TypeRequirements, Name: "R", CreatedBy: pipeline.RoleProductManager},
	}
	for _, a := range puts {
		if _, err := s.Put(a); err != nil {
			t.Fatalf("put %s: %v", a.ID, err)
		}
	}
	got := s.ByCreator(pipeline.RoleDeveloper)
	if len(got) != 2 || got[0].ID != "art-a" || got[1].ID != "art-b" {
		t.Fatalf("ByCreator wrong: %+v", got)
	}
	if none := s.ByCreator(pipeline.RoleTester); len(none) != 0 {
		t.Fatalf("tester created nothing, got %+v", none)
	}
}

func TestGetUnknownArtifact(t *testing.T) {
	s := NewStore()
	if _, err := s.Get("missing"); err == nil {
		t.Fatalf("expected error for unknown id")
	}
}
