package faqstore

import (
	"errors"
	"testing"

	"github.com/dalemusser/strataimpact/internal/domain/models"
	"github.com/dalemusser/strataimpact/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func seed(t *testing.T, s *Store, questions ...string) []primitive.ObjectID {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()
	ids := make([]primitive.ObjectID, 0, len(questions))
	for _, q := range questions {
		f, err := s.Create(ctx, Input{Question: q, Answer: "a", Published: true})
		if err != nil {
			t.Fatalf("Create(%q) error = %v", q, err)
		}
		ids = append(ids, f.ID)
	}
	return ids
}

func questions(t *testing.T, s *Store) []string {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()
	list, err := s.List(ctx, false)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	out := make([]string, len(list))
	for i, f := range list {
		out[i] = f.Question
	}
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestStore_CreateAppends(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := New(db, zap.NewNop())

	seed(t, s, "one", "two", "three")
	if got := questions(t, s); !equal(got, []string{"one", "two", "three"}) {
		t.Errorf("order = %v", got)
	}
}

func TestStore_MoveUpDown(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := New(db, zap.NewNop())
	ctx, cancel := testutil.TestContext()
	defer cancel()

	ids := seed(t, s, "one", "two", "three")

	if err := s.MoveUp(ctx, ids[2]); err != nil {
		t.Fatalf("MoveUp() error = %v", err)
	}
	if got := questions(t, s); !equal(got, []string{"one", "three", "two"}) {
		t.Errorf("after MoveUp order = %v", got)
	}

	if err := s.MoveDown(ctx, ids[0]); err != nil {
		t.Fatalf("MoveDown() error = %v", err)
	}
	if got := questions(t, s); !equal(got, []string{"three", "one", "two"}) {
		t.Errorf("after MoveDown order = %v", got)
	}
}

func TestStore_MoveAtEdgeIsNoop(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := New(db, zap.NewNop())
	ctx, cancel := testutil.TestContext()
	defer cancel()

	ids := seed(t, s, "first", "last")

	if err := s.MoveUp(ctx, ids[0]); err != nil {
		t.Fatalf("MoveUp(first) error = %v", err)
	}
	if err := s.MoveDown(ctx, ids[1]); err != nil {
		t.Fatalf("MoveDown(last) error = %v", err)
	}
	if got := questions(t, s); !equal(got, []string{"first", "last"}) {
		t.Errorf("order changed at edges: %v", got)
	}

	if err := s.MoveUp(ctx, primitive.NewObjectID()); !errors.Is(err, ErrNotFound) {
		t.Errorf("MoveUp(missing) error = %v, want ErrNotFound", err)
	}
}

func TestStore_MoveWithTiedOrder(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := New(db, zap.NewNop())
	ctx, cancel := testutil.TestContext()
	defer cancel()

	// Two creates that raced both took order 2.
	ids := seed(t, s, "one")
	for _, q := range []string{"tie-a", "tie-b"} {
		f := models.FAQ{ID: primitive.NewObjectID(), Question: q, Answer: "a", Order: 2, Published: true}
		if _, err := s.c.InsertOne(ctx, f); err != nil {
			t.Fatalf("insert %q: %v", q, err)
		}
		ids = append(ids, f.ID)
	}

	if err := s.MoveDown(ctx, ids[1]); err != nil {
		t.Fatalf("MoveDown() error = %v", err)
	}
	if got := questions(t, s); !equal(got, []string{"one", "tie-b", "tie-a"}) {
		t.Errorf("after MoveDown order = %v", got)
	}

	if err := s.MoveUp(ctx, ids[1]); err != nil {
		t.Fatalf("MoveUp() error = %v", err)
	}
	if got := questions(t, s); !equal(got, []string{"one", "tie-a", "tie-b"}) {
		t.Errorf("after MoveUp order = %v", got)
	}

	list, err := s.List(ctx, false)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	for i, f := range list {
		if f.Order != i+1 {
			t.Errorf("%s order = %d, want %d", f.Question, f.Order, i+1)
		}
	}
}

func TestStore_PublishedFilter(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := New(db, zap.NewNop())
	ctx, cancel := testutil.TestContext()
	defer cancel()

	ids := seed(t, s, "visible", "hidden")
	published, err := s.TogglePublished(ctx, ids[1])
	if err != nil {
		t.Fatalf("TogglePublished() error = %v", err)
	}
	if published {
		t.Error("TogglePublished() = true, want false")
	}

	list, _ := s.List(ctx, true)
	if len(list) != 1 || list[0].Question != "visible" {
		t.Errorf("List(published) = %+v", list)
	}
	if n, _ := s.Count(ctx, false); n != 2 {
		t.Errorf("Count(all) = %d, want 2", n)
	}
}

func TestStore_UpdateDelete(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := New(db, zap.NewNop())
	ctx, cancel := testutil.TestContext()
	defer cancel()

	ids := seed(t, s, "old")
	if err := s.Update(ctx, ids[0], Input{Question: "new", Answer: "b"}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	f, _ := s.GetByID(ctx, ids[0])
	if f.Question != "new" || f.Published {
		t.Errorf("Update() result = %+v", f)
	}
	if f.Order != 1 {
		t.Errorf("Order = %d, want 1", f.Order)
	}

	if err := s.Delete(ctx, ids[0]); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := s.GetByID(ctx, ids[0]); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByID() after delete = %v, want ErrNotFound", err)
	}
}
