// internal/app/system/seeding/seeding.go
package seeding

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"

	faqstore "github.com/dalemusser/strataimpact/internal/app/store/faqs"
	pagestore "github.com/dalemusser/strataimpact/internal/app/store/pages"
	projectstore "github.com/dalemusser/strataimpact/internal/app/store/projects"
	userstore "github.com/dalemusser/strataimpact/internal/app/store/users"
	"github.com/dalemusser/strataimpact/internal/app/system/authutil"
	"github.com/dalemusser/strataimpact/internal/app/system/htmlsanitize"
	"github.com/dalemusser/strataimpact/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

//go:embed seed.yaml
var defaultSeed []byte

// Content is the starter content loaded on an empty database.
type Content struct {
	Pages    []PageSeed    `yaml:"pages"`
	FAQs     []FAQSeed     `yaml:"faqs"`
	Projects []ProjectSeed `yaml:"projects"`
}

type PageSeed struct {
	Slug    string `yaml:"slug"`
	Title   string `yaml:"title"`
	Content string `yaml:"content"`
}

type FAQSeed struct {
	Question string `yaml:"question"`
	Answer   string `yaml:"answer"`
}

type ProjectSeed struct {
	Title       string       `yaml:"title"`
	Summary     string       `yaml:"summary"`
	Description string       `yaml:"description"`
	Status      string       `yaml:"status"`
	Order       int          `yaml:"order"`
	Impact      []MetricSeed `yaml:"impact"`
}

type MetricSeed struct {
	Label string `yaml:"label"`
	Value string `yaml:"value"`
}

// Admin describes the bootstrap admin account from configuration.
type Admin struct {
	Email    string
	Password string
	Name     string
}

// Parse decodes seed YAML. Unknown keys are an error.
func Parse(data []byte) (Content, error) {
	var c Content
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil {
		return Content{}, fmt.Errorf("parse seed: %w", err)
	}
	for _, p := range c.Pages {
		if !models.IsValidPageSlug(p.Slug) {
			return Content{}, fmt.Errorf("parse seed: unknown page slug %q", p.Slug)
		}
	}
	return c, nil
}

// Default returns the embedded starter content.
func Default() (Content, error) {
	return Parse(defaultSeed)
}

// SeedAll loads c into the database without touching existing data:
// pages are created when missing, FAQs and projects only when their
// collection is empty. The admin is created when configured and absent.
func SeedAll(ctx context.Context, db *mongo.Database, logger *zap.Logger, c Content, admin Admin) error {
	if err := seedPages(ctx, db, logger, c.Pages); err != nil {
		return err
	}
	if err := seedFAQs(ctx, db, logger, c.FAQs); err != nil {
		return err
	}
	if err := seedProjects(ctx, db, logger, c.Projects); err != nil {
		return err
	}
	return EnsureAdminUser(ctx, db, logger, admin)
}

func seedPages(ctx context.Context, db *mongo.Database, logger *zap.Logger, pages []PageSeed) error {
	store := pagestore.New(db)
	for _, p := range pages {
		page := models.Page{Slug: p.Slug, Title: p.Title, Content: htmlsanitize.Sanitize(p.Content)}
		inserted, err := store.InsertIfMissing(ctx, page)
		if err != nil {
			return fmt.Errorf("seed page %s: %w", p.Slug, err)
		}
		if inserted {
			logger.Info("seeded default page", zap.String("slug", p.Slug))
		}
	}
	return nil
}

func seedFAQs(ctx context.Context, db *mongo.Database, logger *zap.Logger, faqs []FAQSeed) error {
	store := faqstore.New(db, logger)
	n, err := store.Count(ctx, false)
	if err != nil {
		return fmt.Errorf("count faqs: %w", err)
	}
	if n > 0 {
		return nil
	}
	for _, f := range faqs {
		if _, err := store.Create(ctx, faqstore.Input{Question: f.Question, Answer: f.Answer, Published: true}); err != nil {
			return fmt.Errorf("seed faq: %w", err)
		}
	}
	if len(faqs) > 0 {
		logger.Info("seeded default faqs", zap.Int("count", len(faqs)))
	}
	return nil
}

func seedProjects(ctx context.Context, db *mongo.Database, logger *zap.Logger, projects []ProjectSeed) error {
	store := projectstore.New(db)
	existing, err := store.List(ctx)
	if err != nil {
		return fmt.Errorf("list projects: %w", err)
	}
	if len(existing) > 0 {
		return nil
	}
	for _, p := range projects {
		in := projectstore.Input{
			Title:       p.Title,
			Summary:     p.Summary,
			Description: htmlsanitize.Sanitize(p.Description),
			Status:      p.Status,
			Order:       p.Order,
		}
		for _, m := range p.Impact {
			in.ImpactStats = append(in.ImpactStats, models.ImpactMetric{Label: m.Label, Value: m.Value})
		}
		if _, err := store.Create(ctx, in); err != nil {
			return fmt.Errorf("seed project %q: %w", p.Title, err)
		}
	}
	if len(projects) > 0 {
		logger.Info("seeded default projects", zap.Int("count", len(projects)))
	}
	return nil
}

// EnsureAdminUser creates the configured admin when no user has that
// login. An existing account is left alone, including its password.
func EnsureAdminUser(ctx context.Context, db *mongo.Database, logger *zap.Logger, admin Admin) error {
	if admin.Email == "" {
		return nil
	}
	users := userstore.New(db)
	if _, err := users.GetByLoginID(ctx, admin.Email); err == nil {
		return nil
	} else if !errors.Is(err, userstore.ErrNotFound) {
		return fmt.Errorf("look up seed admin: %w", err)
	}

	if admin.Password == "" {
		logger.Warn("seed admin email set without a password, skipping", zap.String("login_id", admin.Email))
		return nil
	}
	hash, err := authutil.HashPassword(admin.Password)
	if err != nil {
		return fmt.Errorf("hash seed admin password: %w", err)
	}
	name := admin.Name
	if name == "" {
		name = "Administrator"
	}
	u, err := users.Create(ctx, models.User{
		FullName:     name,
		LoginID:      admin.Email,
		PasswordHash: hash,
		Role:         models.RoleAdmin,
	})
	if err != nil {
		if errors.Is(err, userstore.ErrDuplicateLoginID) {
			return nil
		}
		return fmt.Errorf("create seed admin: %w", err)
	}
	logger.Info("created seed admin", zap.String("login_id", u.LoginID))
	return nil
}
