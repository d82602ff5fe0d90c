// internal/app/features/content/sections.go
package content

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/strataimpact/internal/app/store/sitecontent"
	"github.com/dalemusser/strataimpact/internal/app/system/htmlsanitize"
	"github.com/dalemusser/strataimpact/internal/app/system/jsonutil"
	"github.com/dalemusser/strataimpact/internal/app/system/normalize"
	"github.com/dalemusser/strataimpact/internal/domain/models"
)

// errBadImport marks an import that could not be decoded.
var errBadImport = errors.New("unreadable import")

// Fields are the form values of one content screen keyed by input name.
// List fields hold one item per line with "|"-separated columns.
type Fields map[string]string

// loaded is a content document prepared for the edit form.
type loaded struct {
	Fields    Fields
	Version   int64
	UpdatedAt time.Time
	UpdatedBy string
	Saved     bool
}

// section is one editable content document.
type section interface {
	Key() string
	Title() string
	load(ctx context.Context, s *sitecontent.Store) (loaded, error)
	save(ctx context.Context, s *sitecontent.Store, form func(string) string, expected int64, by string) (Fields, int64, error)
	export(ctx context.Context, s *sitecontent.Store) (any, error)
	importJSON(ctx context.Context, s *sitecontent.Store, raw []byte, expected int64, by string) (int64, error)
}

// typed implements section for one content type.
type typed[T any] struct {
	key    string
	title  string
	def    func() T
	encode func(T) Fields
	decode func(form func(string) string) T
}

func (t typed[T]) Key() string   { return t.key }
func (t typed[T]) Title() string { return t.title }

func (t typed[T]) load(ctx context.Context, s *sitecontent.Store) (loaded, error) {
	found, err := sitecontent.Get[T](ctx, s, t.key)
	if err != nil {
		return loaded{}, err
	}
	return loaded{
		Fields:    t.encode(found.Or(t.def())),
		Version:   found.Version,
		UpdatedAt: found.UpdatedAt,
		UpdatedBy: found.UpdatedBy,
		Saved:     found.OK,
	}, nil
}

func (t typed[T]) save(ctx context.Context, s *sitecontent.Store, form func(string) string, expected int64, by string) (Fields, int64, error) {
	v := t.decode(form)
	version, err := sitecontent.Save(ctx, s, t.key, v, expected, by)
	return t.encode(v), version, err
}

func (t typed[T]) export(ctx context.Context, s *sitecontent.Store) (any, error) {
	found, err := sitecontent.Get[T](ctx, s, t.key)
	if err != nil {
		return nil, err
	}
	return found.Or(t.def()), nil
}

func (t typed[T]) importJSON(ctx context.Context, s *sitecontent.Store, raw []byte, expected int64, by string) (int64, error) {
	var v T
	if err := jsonutil.Decode(raw, &v); err != nil {
		return 0, fmt.Errorf("%w: %v", errBadImport, err)
	}
	return sitecontent.Save(ctx, s, t.key, v, expected, by)
}

func trimmed(form func(string) string, name string) string {
	return strings.TrimSpace(form(name))
}

func joinLines(rows [][]string) string {
	lines := make([]string, len(rows))
	for i, cols := range rows {
		for len(cols) > 1 && cols[len(cols)-1] == "" {
			cols = cols[:len(cols)-1]
		}
		lines[i] = strings.Join(cols, " | ")
	}
	return strings.Join(lines, "\n")
}

var sections = map[string]section{
	models.ContentKeySite: typed[models.SiteSettings]{
		key:   models.ContentKeySite,
		title: "Site settings",
		def:   models.DefaultSite,
		encode: func(v models.SiteSettings) Fields {
			return Fields{"site_name": v.SiteName, "tagline": v.Tagline, "logo_url": v.LogoURL, "footer_html": v.FooterHTML}
		},
		decode: func(form func(string) string) models.SiteSettings {
			return models.SiteSettings{
				SiteName:   trimmed(form, "site_name"),
				Tagline:    trimmed(form, "tagline"),
				LogoURL:    trimmed(form, "logo_url"),
				FooterHTML: htmlsanitize.Sanitize(form("footer_html")),
			}
		},
	},
	models.ContentKeyAbout: typed[models.AboutContent]{
		key:    models.ContentKeyAbout,
		title:  "About page",
		def:    models.DefaultAbout,
		encode: encodeAbout,
		decode: decodeAbout,
	},
	models.ContentKeyContact: typed[models.ContactSettings]{
		key:   models.ContentKeyContact,
		title: "Contact details",
		def:   models.DefaultContact,
		encode: func(v models.ContactSettings) Fields {
			rows := make([][]string, len(v.Socials))
			for i, s := range v.Socials {
				rows[i] = []string{s.Label, s.URL}
			}
			return Fields{
				"email":        v.Email,
				"phone":        v.Phone,
				"address":      v.Address,
				"office_hours": v.OfficeHours,
				"socials":      joinLines(rows),
			}
		},
		decode: func(form func(string) string) models.ContactSettings {
			v := models.ContactSettings{
				Email:       normalize.Email(form("email")),
				Phone:       trimmed(form, "phone"),
				Address:     trimmed(form, "address"),
				OfficeHours: trimmed(form, "office_hours"),
			}
			for _, line := range normalize.Lines(form("socials")) {
				cols := normalize.Columns(line, 2)
				v.Socials = append(v.Socials, models.SocialLink{Label: cols[0], URL: cols[1]})
			}
			return v
		},
	},
	models.ContentKeyEventsHero: typed[models.EventsHero]{
		key:   models.ContentKeyEventsHero,
		title: "Events banner",
		def:   models.DefaultEventsHero,
		encode: func(v models.EventsHero) Fields {
			return Fields{"title": v.Title, "subtitle": v.Subtitle, "image_url": v.ImageURL}
		},
		decode: func(form func(string) string) models.EventsHero {
			return models.EventsHero{
				Title:    trimmed(form, "title"),
				Subtitle: trimmed(form, "subtitle"),
				ImageURL: trimmed(form, "image_url"),
			}
		},
	},
}

func encodeAbout(v models.AboutContent) Fields {
	values := make([][]string, len(v.Values))
	for i, item := range v.Values {
		values[i] = []string{item.Title, item.Description}
	}
	team := make([][]string, len(v.Team))
	for i, m := range v.Team {
		team[i] = []string{m.Name, m.Role, m.PhotoURL, m.Bio}
	}
	return Fields{
		"mission": v.Mission,
		"vision":  v.Vision,
		"values":  joinLines(values),
		"team":    joinLines(team),
	}
}

func decodeAbout(form func(string) string) models.AboutContent {
	v := models.AboutContent{
		Mission: trimmed(form, "mission"),
		Vision:  trimmed(form, "vision"),
	}
	for _, line := range normalize.Lines(form("values")) {
		cols := normalize.Columns(line, 2)
		v.Values = append(v.Values, models.ValueItem{Title: cols[0], Description: cols[1]})
	}
	// Bio is last so it may contain "|".
	for _, line := range normalize.Lines(form("team")) {
		cols := normalize.Columns(line, 4)
		v.Team = append(v.Team, models.TeamMember{Name: cols[0], Role: cols[1], PhotoURL: cols[2], Bio: cols[3]})
	}
	return v
}
