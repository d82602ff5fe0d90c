package eventstore

import (
	"errors"
	"testing"
	"time"

	"github.com/dalemusser/strataimpact/internal/domain/models"
	"github.com/dalemusser/strataimpact/internal/testutil"
)

func intPtr(n int) *int { return &n }

func TestStore_CreateDerivesSlug(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	e, err := s.Create(ctx, Input{Title: "Spring Food Drive!", StartsAt: time.Now().Add(48 * time.Hour), Published: true})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if e.Slug != "spring-food-drive" {
		t.Errorf("Slug = %q, want %q", e.Slug, "spring-food-drive")
	}

	_, err = s.Create(ctx, Input{Title: "Spring food drive", StartsAt: time.Now()})
	if !errors.Is(err, ErrDuplicateSlug) {
		t.Errorf("Create(duplicate slug) error = %v, want ErrDuplicateSlug", err)
	}

	got, err := s.GetBySlug(ctx, "spring-food-drive", true)
	if err != nil {
		t.Fatalf("GetBySlug() error = %v", err)
	}
	if got.ID != e.ID {
		t.Errorf("GetBySlug() returned %v, want %v", got.ID, e.ID)
	}
}

func TestStore_GetBySlugHidesDrafts(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := s.Create(ctx, Input{Title: "Draft", StartsAt: time.Now()}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, err := s.GetBySlug(ctx, "draft", true); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetBySlug(published only) error = %v, want ErrNotFound", err)
	}
	if _, err := s.GetBySlug(ctx, "draft", false); err != nil {
		t.Errorf("GetBySlug(any) error = %v", err)
	}
}

func TestStore_DecrementCapacity(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	e, _ := s.Create(ctx, Input{Title: "Small", StartsAt: time.Now().Add(time.Hour), Capacity: intPtr(1)})

	if err := s.DecrementCapacity(ctx, e.ID); err != nil {
		t.Fatalf("first DecrementCapacity() error = %v", err)
	}
	if err := s.DecrementCapacity(ctx, e.ID); !errors.Is(err, ErrEventFull) {
		t.Fatalf("second DecrementCapacity() error = %v, want ErrEventFull", err)
	}
	got, _ := s.GetByID(ctx, e.ID)
	if got.Capacity == nil || *got.Capacity != 0 {
		t.Errorf("Capacity = %v, want 0", got.Capacity)
	}

	if err := s.IncrementCapacity(ctx, e.ID); err != nil {
		t.Fatalf("IncrementCapacity() error = %v", err)
	}
	got, _ = s.GetByID(ctx, e.ID)
	if *got.Capacity != 1 {
		t.Errorf("Capacity after increment = %d, want 1", *got.Capacity)
	}
}

func TestStore_UncappedIsNotDecremented(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	e, _ := s.Create(ctx, Input{Title: "Open", StartsAt: time.Now().Add(time.Hour)})
	if err := s.DecrementCapacity(ctx, e.ID); !errors.Is(err, ErrEventFull) {
		t.Errorf("DecrementCapacity(uncapped) error = %v, want ErrEventFull", err)
	}
	if err := s.IncrementCapacity(ctx, e.ID); err != nil {
		t.Fatalf("IncrementCapacity(uncapped) error = %v", err)
	}
	got, _ := s.GetByID(ctx, e.ID)
	if !got.Uncapped() {
		t.Errorf("Capacity = %v, want nil", got.Capacity)
	}
}

func TestStore_UpcomingAndPast(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	now := time.Now().UTC()
	_, _ = s.Create(ctx, Input{Title: "Later", StartsAt: now.Add(72 * time.Hour), Published: true})
	_, _ = s.Create(ctx, Input{Title: "Soon", StartsAt: now.Add(24 * time.Hour), Published: true})
	_, _ = s.Create(ctx, Input{Title: "Yesterday", StartsAt: now.Add(-24 * time.Hour), Published: true})
	_, _ = s.Create(ctx, Input{Title: "Hidden", StartsAt: now.Add(24 * time.Hour)})

	up, err := s.ListUpcoming(ctx, now, 0)
	if err != nil {
		t.Fatalf("ListUpcoming() error = %v", err)
	}
	if len(up) != 2 || up[0].Title != "Soon" || up[1].Title != "Later" {
		t.Errorf("ListUpcoming() = %v", titles(up))
	}

	up, _ = s.ListUpcoming(ctx, now, 1)
	if len(up) != 1 {
		t.Errorf("ListUpcoming(limit 1) returned %d", len(up))
	}

	past, _ := s.ListPast(ctx, now)
	if len(past) != 1 || past[0].Title != "Yesterday" {
		t.Errorf("ListPast() = %v", titles(past))
	}

	if n, _ := s.CountUpcoming(ctx, now); n != 2 {
		t.Errorf("CountUpcoming() = %d, want 2", n)
	}
}

func TestStore_UpdateClearsOptionalFields(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	deadline := time.Now().Add(time.Hour).UTC().Truncate(time.Millisecond)
	e, _ := s.Create(ctx, Input{Title: "Gala", StartsAt: time.Now(), Capacity: intPtr(10), RegistrationDeadline: &deadline})

	if err := s.Update(ctx, e.ID, Input{Title: "Gala", StartsAt: e.StartsAt}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	got, _ := s.GetByID(ctx, e.ID)
	if got.Capacity != nil || got.RegistrationDeadline != nil {
		t.Errorf("optional fields not cleared: capacity=%v deadline=%v", got.Capacity, got.RegistrationDeadline)
	}
}

func TestStore_Gallery(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	e, _ := s.Create(ctx, Input{Title: "Cleanup", StartsAt: time.Now(), Published: true})
	_, _ = s.Create(ctx, Input{Title: "No photos", StartsAt: time.Now(), Published: true})

	img := models.GalleryImage{URL: "/uploads/a.jpg", Caption: "Volunteers"}
	if err := s.AddGalleryImage(ctx, e.ID, img); err != nil {
		t.Fatalf("AddGalleryImage() error = %v", err)
	}

	withGallery, err := s.ListWithGallery(ctx)
	if err != nil {
		t.Fatalf("ListWithGallery() error = %v", err)
	}
	if len(withGallery) != 1 || len(withGallery[0].Gallery) != 1 {
		t.Fatalf("ListWithGallery() = %+v", withGallery)
	}

	if err := s.RemoveGalleryImage(ctx, e.ID, img.URL); err != nil {
		t.Fatalf("RemoveGalleryImage() error = %v", err)
	}
	withGallery, _ = s.ListWithGallery(ctx)
	if len(withGallery) != 0 {
		t.Errorf("ListWithGallery() after remove = %d events", len(withGallery))
	}
}

func titles(list []models.Event) []string {
	out := make([]string, len(list))
	for i, e := range list {
		out[i] = e.Title
	}
	return out
}
