package voiceprint

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(t.TempDir(), zerolog.Nop())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return s
}

func TestSanitizeID(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"alice", "alice"},
		{"Alice Smith", "Alice_Smith"},
		{"bob-jones_2", "bob-jones_2"},
		{"weird/../id", "weird____id"},
		{"émile", "_mile"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := SanitizeID(tt.in); got != tt.want {
			t.Errorf("SanitizeID(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestStore_SaveLoadRoundTrip(t *testing.T) {
	s := testStore(t)

	emb := []float64{0.1, -0.2, 0.3}
	meta := map[string]any{"name": "Alice", "team": "infra"}

	if !s.Save("Alice Smith", emb, meta) {
		t.Fatal("Save returned false")
	}

	rec, ok := s.Load("Alice Smith")
	if !ok {
		t.Fatal("Load returned not found")
	}
	if len(rec.Embedding) != len(emb) {
		t.Fatalf("embedding length = %d, want %d", len(rec.Embedding), len(emb))
	}
	for i := range emb {
		if math.Abs(rec.Embedding[i]-emb[i]) > 1e-12 {
			t.Errorf("embedding[%d] = %v, want %v", i, rec.Embedding[i], emb[i])
		}
	}
	if rec.Metadata["name"] != "Alice" || rec.Metadata["team"] != "infra" {
		t.Errorf("metadata = %+v", rec.Metadata)
	}
}

func TestStore_LoadMissing(t *testing.T) {
	s := testStore(t)
	if rec, ok := s.Load("nobody"); ok || rec != nil {
		t.Errorf("Load missing = (%+v, %v), want (nil, false)", rec, ok)
	}
}

func TestStore_SaveOverwrites(t *testing.T) {
	s := testStore(t)

	s.Save("alice", []float64{1, 0}, map[string]any{"v": "one"})
	s.Save("alice", []float64{0, 1}, map[string]any{"v": "two"})

	rec, ok := s.Load("alice")
	if !ok {
		t.Fatal("Load returned not found")
	}
	if rec.Embedding[0] != 0 || rec.Embedding[1] != 1 {
		t.Errorf("embedding = %v, want overwrite", rec.Embedding)
	}
	if rec.Metadata["v"] != "two" {
		t.Errorf("metadata = %+v, want v=two", rec.Metadata)
	}
}

func TestStore_SanitizedCollision(t *testing.T) {
	// Distinct raw identifiers that sanitize to the same key collide
	// silently. Documented hazard, last writer wins.
	s := testStore(t)

	s.Save("a b", []float64{1}, nil)
	s.Save("a/b", []float64{2}, nil)

	if got := s.List(); len(got) != 1 {
		t.Fatalf("List = %v, want a single collided entry", got)
	}
	rec, _ := s.Load("a b")
	if rec.Embedding[0] != 2 {
		t.Errorf("embedding = %v, want last writer's value", rec.Embedding)
	}
}

func TestStore_ListSorted(t *testing.T) {
	s := testStore(t)
	s.Save("charlie", []float64{1}, nil)
	s.Save("alice", []float64{1}, nil)
	s.Save("bob", []float64{1}, nil)

	got := s.List()
	want := []string{"alice", "bob", "charlie"}
	if len(got) != len(want) {
		t.Fatalf("List = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("List[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestStore_Delete(t *testing.T) {
	s := testStore(t)
	s.Save("alice", []float64{1}, nil)

	if !s.Delete("alice") {
		t.Error("Delete existing returned false")
	}
	if s.Delete("alice") {
		t.Error("Delete absent returned true")
	}
	if _, ok := s.Load("alice"); ok {
		t.Error("record still loadable after delete")
	}
}

func TestStore_AllEmbeddings(t *testing.T) {
	s := testStore(t)
	s.Save("alice", []float64{1, 0}, nil)
	s.Save("bob", []float64{0, 1}, nil)

	all := s.AllEmbeddings()
	if len(all) != 2 {
		t.Fatalf("got %d embeddings, want 2", len(all))
	}
	if all["alice"][0] != 1 || all["bob"][1] != 1 {
		t.Errorf("embeddings = %+v", all)
	}
}

func TestStore_AllEmbeddingsSkipsCorruptRecord(t *testing.T) {
	s := testStore(t)
	s.Save("alice", []float64{1}, nil)

	// Simulate a record vanishing or corrupting between List and Load.
	if err := os.WriteFile(filepath.Join(s.dir, "ghost.json"), []byte("{broken"), 0o644); err != nil {
		t.Fatal(err)
	}

	all := s.AllEmbeddings()
	if len(all) != 1 {
		t.Fatalf("got %d embeddings, want 1 (corrupt entry skipped)", len(all))
	}
	if _, ok := all["alice"]; !ok {
		t.Error("alice missing from bulk load")
	}
}
