package normalize

import (
	"reflect"
	"testing"
)

func TestEmail(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  Jane@Example.ORG ", "jane@example.org"},
		{"a@b.co", "a@b.co"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Email(tt.in); got != tt.want {
			t.Errorf("Email(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestName(t *testing.T) {
	if got := Name("  Ada   Lovelace \t"); got != "Ada Lovelace" {
		t.Errorf("Name() = %q, want %q", got, "Ada Lovelace")
	}
}

func TestSlug(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Spring Food Drive 2026!", "spring-food-drive-2026"},
		{"  --Hello, World--  ", "hello-world"},
		{"Already-a-slug", "already-a-slug"},
		{"!!!", ""},
	}
	for _, tt := range tests {
		if got := Slug(tt.in); got != tt.want {
			t.Errorf("Slug(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLines(t *testing.T) {
	got := Lines("one\r\n\n  two  \n\t\nthree")
	want := []string{"one", "two", "three"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Lines() = %v, want %v", got, want)
	}
	if got := Lines("   "); got != nil {
		t.Errorf("Lines(blank) = %v, want nil", got)
	}
}

func TestColumns(t *testing.T) {
	got := Columns(" Jane | Director | Likes | pipes ", 3)
	want := []string{"Jane", "Director", "Likes | pipes"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Columns() = %q, want %q", got, want)
	}

	got = Columns("Only title", 2)
	want = []string{"Only title", ""}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Columns(short) = %q, want %q", got, want)
	}
}

func TestStatusAndRole(t *testing.T) {
	if got := Status(" Archived "); got != "archived" {
		t.Errorf("Status() = %q, want %q", got, "archived")
	}
	if got := Role("ADMIN"); got != "admin" {
		t.Errorf("Role() = %q, want %q", got, "admin")
	}
}

func TestCSVCell(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"Rivera Co", "Rivera Co"},
		{"=HYPERLINK(\"http://x\")", "'=HYPERLINK(\"http://x\")"},
		{"+1 555 0100", "'+1 555 0100"},
		{"-2", "'-2"},
		{"@SUM(A1)", "'@SUM(A1)"},
		{"\tcmd", "'\tcmd"},
		{"a=b", "a=b"},
	}
	for _, tt := range tests {
		if got := CSVCell(tt.in); got != tt.want {
			t.Errorf("CSVCell(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}

	got := CSVRow("ok", "=1+1")
	if want := []string{"ok", "'=1+1"}; !reflect.DeepEqual(got, want) {
		t.Errorf("CSVRow() = %q, want %q", got, want)
	}
}
