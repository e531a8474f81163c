package ecs

import "testing"

type removeRecorder struct {
	removed []EntityID
}

func (r *removeRecorder) Remove(id EntityID) { r.removed = append(r.removed, id) }

func TestEntityPoolRecyclesSlots(t *testing.T) {
	p := NewEntityPool()
	a := p.Create()
	if a.IsZero() {
		t.Fatalf("first entity must not be the zero ID")
	}
	b := p.Create()
	if !p.Destroy(a) {
		t.Fatalf("Destroy should succeed for a live entity")
	}
	if p.Alive(a) {
		t.Fatalf("destroyed entity still alive")
	}
	if p.Destroy(a) {
		t.Fatalf("second Destroy of the same ID should be ignored")
	}
	c := p.Create()
	if c.Index() != a.Index() {
		t.Fatalf("expected slot %d to be reused, got %d", a.Index(), c.Index())
	}
	if c.Generation() == a.Generation() {
		t.Fatalf("reused slot must bump generation")
	}
	if !p.Alive(b) || !p.Alive(c) {
		t.Fatalf("live entities reported dead")
	}
	if p.Live() != 2 {
		t.Fatalf("expected 2 live entities, got %d", p.Live())
	}
}

func TestWorldFlushDestroyQueue(t *testing.T) {
	cases := []struct {
		name    string
		create  int
		mark    []int
		wantDel int
	}{
		{"none", 3, nil, 0},
		{"one", 3, []int{1}, 1},
		{"duplicate_marks", 2, []int{0, 0}, 1},
		{"all", 2, []int{0, 1}, 2},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			w := NewWorld()
			rec := &removeRecorder{}
			store := NewStore[int]()
			w.Registry().Register(store)
			w.Registry().Register(rec)

			ids := make([]EntityID, 0, c.create)
			for i := 0; i < c.create; i++ {
				id := w.CreateEntity()
				v := i
				store.Set(id, &v)
				ids = append(ids, id)
			}
			for _, i := range c.mark {
				w.MarkForDestruction(ids[i])
			}
			if w.PendingDestruction() != len(c.mark) {
				t.Fatalf("pending = %d, want %d", w.PendingDestruction(), len(c.mark))
			}
			if got := w.FlushDestroyQueue(); got != c.wantDel {
				t.Fatalf("flushed %d, want %d", got, c.wantDel)
			}
			if len(rec.removed) != c.wantDel {
				t.Fatalf("registry saw %d removals, want %d", len(rec.removed), c.wantDel)
			}
			if store.Len() != c.create-c.wantDel {
				t.Fatalf("store has %d entries, want %d", store.Len(), c.create-c.wantDel)
			}
			if w.PendingDestruction() != 0 {
				t.Fatalf("queue not cleared")
			}
		})
	}
}
