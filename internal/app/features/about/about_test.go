package about

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/strataimpact/internal/app/store/sitecontent"
	"github.com/dalemusser/strataimpact/internal/domain/models"
	"github.com/dalemusser/strataimpact/internal/testutil"
	"go.uber.org/zap"
)

func TestShow_NoDocumentRendersDefaultMission(t *testing.T) {
	testutil.MustBootTemplates(t)
	db := testutil.SetupTestDB(t)
	h := NewHandler(db, nil, zap.NewNop())

	rec := testutil.NewRecorder()
	h.Show(rec, testutil.WithCSRFToken(httptest.NewRequest(http.MethodGet, "/about", nil)))

	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, models.DefaultMission)
	rec.AssertContains(t, "Compassion")
}

func TestShow_SavedContent(t *testing.T) {
	testutil.MustBootTemplates(t)
	db := testutil.SetupTestDB(t)
	about := models.AboutContent{
		Mission: "Every child reads by third grade.",
		Vision:  "A literate city.",
		Values:  []models.ValueItem{{Title: "Curiosity", Description: "Ask questions."}},
		Team:    []models.TeamMember{{Name: "Ana Ruiz", Role: "Director"}},
	}
	if _, err := sitecontent.Save(context.Background(), sitecontent.New(db), models.ContentKeyAbout, about, 0, "test"); err != nil {
		t.Fatalf("Save: %v", err)
	}
	h := NewHandler(db, nil, zap.NewNop())

	rec := testutil.NewRecorder()
	h.Show(rec, testutil.WithCSRFToken(httptest.NewRequest(http.MethodGet, "/about", nil)))

	rec.AssertContains(t, "Every child reads by third grade.")
	rec.AssertContains(t, "Ana Ruiz")
	rec.AssertNotContains(t, models.DefaultMission)
}
