package application

import (
	"regexp"
	"testing"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

func TestSlugify(t *testing.T) {
	tests := []struct {
		name  string
		title string
		want  string
	}{
		{"simple title", "My First Post", "my-first-post"},
		{"punctuation runs collapse", "Hello, World!  Foo", "hello-world-foo"},
		{"leading and trailing junk", "  --Go is fun!-- ", "go-is-fun"},
		{"diacritics are folded", "Crème Brûlée à la carte", "creme-brulee-a-la-carte"},
		{"digits kept", "Top 10 Tips for 2024", "top-10-tips-for-2024"},
		{"existing hyphens", "already-a-slug", "already-a-slug"},
		{"underscores become hyphens", "snake_case_title", "snake-case-title"},
		{"only symbols", "!!! ???", ""},
		{"empty", "", ""},
		{"non latin dropped", "日本語 post", "post"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Slugify(tt.title); got != tt.want {
				t.Errorf("Slugify(%q) = %q, want %q", tt.title, got, tt.want)
			}
		})
	}
}

func TestSlugifyShape(t *testing.T) {
	inputs := []string{
		"Hello, World!  Foo",
		"a -- b",
		"Ünïcödé Everywhere",
		"tabs\tand\nnewlines",
		"---",
		"x",
		"MiXeD CaSe 123",
		"ends with punctuation...",
	}

	for _, in := range inputs {
		got := Slugify(in)
		if got == "" {
			continue
		}
		if !slugPattern.MatchString(got) {
			t.Errorf("Slugify(%q) = %q, has invalid characters or stray hyphens", in, got)
		}
		if Slugify(got) != got {
			t.Errorf("Slugify is not idempotent for %q: %q then %q", in, got, Slugify(got))
		}
	}
}
