package seeding

import (
	"testing"

	faqstore "github.com/dalemusser/strataimpact/internal/app/store/faqs"
	pagestore "github.com/dalemusser/strataimpact/internal/app/store/pages"
	projectstore "github.com/dalemusser/strataimpact/internal/app/store/projects"
	userstore "github.com/dalemusser/strataimpact/internal/app/store/users"
	"github.com/dalemusser/strataimpact/internal/app/system/authutil"
	"github.com/dalemusser/strataimpact/internal/domain/models"
	"github.com/dalemusser/strataimpact/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestDefaultSeedParses(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)
	assert.Len(t, c.Pages, len(models.AllPageSlugs()))
	assert.NotEmpty(t, c.FAQs)
	assert.NotEmpty(t, c.Projects)
}

func TestParseRejectsUnknownFieldsAndSlugs(t *testing.T) {
	_, err := Parse([]byte("pages:\n  - slug: get-involved\n    titel: typo\n"))
	assert.Error(t, err)

	_, err = Parse([]byte("pages:\n  - slug: blog\n    title: Blog\n"))
	assert.ErrorContains(t, err, "unknown page slug")
}

func TestSeedAll_IsIdempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	c, err := Default()
	require.NoError(t, err)
	admin := Admin{Email: "Admin@Example.org", Password: "correct-horse-battery"}

	require.NoError(t, SeedAll(ctx, db, zap.NewNop(), c, admin))
	require.NoError(t, SeedAll(ctx, db, zap.NewNop(), c, admin))

	faqs, err := faqstore.New(db, zap.NewNop()).List(ctx, false)
	require.NoError(t, err)
	assert.Len(t, faqs, len(c.FAQs))
	for i, f := range faqs {
		assert.Equal(t, i+1, f.Order)
	}

	projects, err := projectstore.New(db).List(ctx)
	require.NoError(t, err)
	assert.Len(t, projects, len(c.Projects))

	pages, err := pagestore.New(db).BySlug(ctx)
	require.NoError(t, err)
	assert.Len(t, pages, len(c.Pages))

	u, err := userstore.New(db).GetByLoginID(ctx, "admin@example.org")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, u.Role)
	assert.True(t, authutil.CheckPassword("correct-horse-battery", u.PasswordHash))
}

func TestSeedPages_KeepsEditedPage(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	pages := pagestore.New(db)
	require.NoError(t, pages.Upsert(ctx, models.Page{Slug: models.PageSlugMedia, Title: "Press", Content: "<p>edited</p>"}))

	c, _ := Default()
	require.NoError(t, SeedAll(ctx, db, zap.NewNop(), c, Admin{}))

	got, err := pages.GetBySlug(ctx, models.PageSlugMedia)
	require.NoError(t, err)
	p, ok := got.Get()
	require.True(t, ok)
	assert.Equal(t, "Press", p.Title)
}

func TestEnsureAdminUser_SkipsWithoutPassword(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	require.NoError(t, EnsureAdminUser(ctx, db, zap.NewNop(), Admin{Email: "a@example.org"}))
	_, err := userstore.New(db).GetByLoginID(ctx, "a@example.org")
	assert.ErrorIs(t, err, userstore.ErrNotFound)
}
