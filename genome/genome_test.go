package genome

import (
	"errors"
	"testing"
)

func TestStoreAndGet(t *testing.T) {
	r := NewRepository()
	id := r.Store([]float32{1, 2, 3}, Metadata{Name: "a"})
	g, err := r.Get(id)
	if err != nil {
		t.Fatal(err)
	}
	if len(g.Weights) != 3 || g.Metadata.Name != "a" {
		t.Fatalf("Get = %+v, want weights len 3 and name a", g)
	}
}

func TestGetMissingReturnsSentinel(t *testing.T) {
	r := NewRepository()
	if _, err := r.Get(ID{}); !errors.Is(err, ErrMissingGenome) {
		t.Fatalf("err = %v, want ErrMissingGenome", err)
	}
}

func TestSetReportsOverwrite(t *testing.T) {
	r := NewRepository()
	id := r.Store([]float32{1}, Metadata{})
	if overwritten := r.Set(id, []float32{2}, Metadata{}); !overwritten {
		t.Fatal("expected overwritten = true on existing id")
	}
	g, _ := r.Get(id)
	if g.Weights[0] != 2 {
		t.Fatalf("Weights[0] = %v, want 2", g.Weights[0])
	}
}

func TestListNewestFirst(t *testing.T) {
	r := NewRepository()
	a := r.Store([]float32{1}, Metadata{Name: "a"})
	b := r.Store([]float32{2}, Metadata{Name: "b"})
	list := r.List()
	if len(list) != 2 || list[0].ID != b || list[1].ID != a {
		t.Fatalf("List() = %+v, want [b, a]", list)
	}
}

func TestDeleteClearsBestPin(t *testing.T) {
	r := NewRepository()
	id := r.Store([]float32{1}, Metadata{})
	if err := r.MarkAsBest(id); err != nil {
		t.Fatal(err)
	}
	if err := r.Delete(id); err != nil {
		t.Fatal(err)
	}
	if _, _, ok := r.GetBest(); ok {
		t.Fatal("expected GetBest to report false after deleting the pinned best")
	}
	if r.Count() != 0 {
		t.Fatalf("Count = %d, want 0", r.Count())
	}
}

func TestMarkAsBestMissingGenome(t *testing.T) {
	r := NewRepository()
	if err := r.MarkAsBest(ID{}); !errors.Is(err, ErrMissingGenome) {
		t.Fatalf("err = %v, want ErrMissingGenome", err)
	}
}

func TestSortedByFitnessDescending(t *testing.T) {
	r := NewRepository()
	r.Store([]float32{1}, Metadata{Name: "low", Fitness: 1.0})
	r.Store([]float32{2}, Metadata{Name: "high", Fitness: 9.0})
	r.Store([]float32{3}, Metadata{Name: "mid", Fitness: 5.0})
	sorted := r.SortedByFitnessDescending()
	if len(sorted) != 3 {
		t.Fatalf("len = %d, want 3", len(sorted))
	}
	if sorted[0].Genome.Metadata.Name != "high" ||
		sorted[1].Genome.Metadata.Name != "mid" ||
		sorted[2].Genome.Metadata.Name != "low" {
		t.Fatalf("order = %v, %v, %v, want high, mid, low",
			sorted[0].Genome.Metadata.Name, sorted[1].Genome.Metadata.Name, sorted[2].Genome.Metadata.Name)
	}
}

func TestUpdateMetadataReplacesInPlace(t *testing.T) {
	r := NewRepository()
	id := r.Store([]float32{1}, Metadata{Name: "a"})
	if err := r.UpdateMetadata(id, Metadata{Name: "b", RobustEvalCount: 5}); err != nil {
		t.Fatal(err)
	}
	g, _ := r.Get(id)
	if g.Metadata.Name != "b" || g.Metadata.RobustEvalCount != 5 {
		t.Fatalf("Metadata = %+v, want Name=b RobustEvalCount=5", g.Metadata)
	}
}
