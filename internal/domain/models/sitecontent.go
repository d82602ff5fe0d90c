// internal/domain/models/sitecontent.go
package models

// Site content keys. Each key names one singleton document in the
// site_content collection.
const (
	ContentKeyAbout      = "about"
	ContentKeyContact    = "contact"
	ContentKeyEventsHero = "events_hero"
	ContentKeySite       = "site"
)

// AllContentKeys returns the editable content keys in menu order.
func AllContentKeys() []string {
	return []string{ContentKeySite, ContentKeyAbout, ContentKeyContact, ContentKeyEventsHero}
}

// IsValidContentKey reports whether key names a known content document.
func IsValidContentKey(key string) bool {
	return contains(AllContentKeys(), key)
}

// AboutContent is the mission, values and team shown on /about.
type AboutContent struct {
	Mission string       `bson:"mission" json:"mission"`
	Vision  string       `bson:"vision" json:"vision"`
	Values  []ValueItem  `bson:"values" json:"values"`
	Team    []TeamMember `bson:"team" json:"team"`
}

// ValueItem is one of the organization's stated values.
type ValueItem struct {
	Title       string `bson:"title" json:"title"`
	Description string `bson:"description" json:"description"`
}

// TeamMember is a person listed on the about page.
type TeamMember struct {
	Name     string `bson:"name" json:"name"`
	Role     string `bson:"role" json:"role"`
	Bio      string `bson:"bio,omitempty" json:"bio,omitempty"`
	PhotoURL string `bson:"photo_url,omitempty" json:"photo_url,omitempty"`
}

// ContactSettings is the organization's contact information.
type ContactSettings struct {
	Email       string       `bson:"email" json:"email"`
	Phone       string       `bson:"phone" json:"phone"`
	Address     string       `bson:"address" json:"address"`
	OfficeHours string       `bson:"office_hours" json:"office_hours"`
	Socials     []SocialLink `bson:"socials" json:"socials"`
}

// SocialLink is a labelled link to a social media profile.
type SocialLink struct {
	Label string `bson:"label" json:"label"`
	URL   string `bson:"url" json:"url"`
}

// EventsHero is the banner shown above the events list.
type EventsHero struct {
	Title    string `bson:"title" json:"title"`
	Subtitle string `bson:"subtitle" json:"subtitle"`
	ImageURL string `bson:"image_url,omitempty" json:"image_url,omitempty"`
}

// SiteSettings holds site-wide display settings.
type SiteSettings struct {
	SiteName   string `bson:"site_name" json:"site_name"`
	Tagline    string `bson:"tagline" json:"tagline"`
	LogoURL    string `bson:"logo_url,omitempty" json:"logo_url,omitempty"`
	FooterHTML string `bson:"footer_html,omitempty" json:"footer_html,omitempty"`
}

// Default content used when a document has not been saved yet.
const (
	DefaultSiteName = "StrataImpact"
	DefaultTagline  = "Building stronger communities together."
	DefaultMission  = "We connect volunteers, partners and donors to meet real needs in our community."
	DefaultVision   = "A community where everyone has the support they need to thrive."
)

// DefaultAbout returns the about page content shown before an admin saves one.
func DefaultAbout() AboutContent {
	return AboutContent{
		Mission: DefaultMission,
		Vision:  DefaultVision,
		Values: []ValueItem{
			{Title: "Compassion", Description: "We lead with care for the people we serve."},
			{Title: "Integrity", Description: "We are open about how we use every gift of time and money."},
			{Title: "Collaboration", Description: "We work alongside neighbors, partners and volunteers."},
		},
		Team: []TeamMember{
			{Name: "Our Team", Role: "Staff and volunteers", Bio: "A small staff supported by hundreds of volunteers."},
		},
	}
}

// DefaultContact returns the contact information shown before an admin saves one.
func DefaultContact() ContactSettings {
	return ContactSettings{
		Email:       "hello@example.org",
		Phone:       "",
		Address:     "",
		OfficeHours: "Monday to Friday, 9am to 5pm",
	}
}

// DefaultEventsHero returns the events banner shown before an admin saves one.
func DefaultEventsHero() EventsHero {
	return EventsHero{
		Title:    "Upcoming Events",
		Subtitle: "Join us and make a difference.",
	}
}

// DefaultSite returns the site settings used before an admin saves them.
func DefaultSite() SiteSettings {
	return SiteSettings{
		SiteName: DefaultSiteName,
		Tagline:  DefaultTagline,
	}
}
