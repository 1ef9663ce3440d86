package api

import "time"

type Post struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Content         string    `json:"content"`
	FeaturedImageID string    `json:"featured_image_id,omitempty"`
	Status          string    `json:"status"`
	AuthorID        string    `json:"author_id"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type Image struct {
	URL         string `json:"url"`
	Placeholder bool   `json:"placeholder"`
}

type DetailImage struct {
	Image
	Loading bool `json:"loading"`
	Error   bool `json:"error"`
}

type PostCard struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Excerpt   string    `json:"excerpt"`
	Status    string    `json:"status"`
	AuthorID  string    `json:"author_id"`
	CreatedAt time.Time `json:"created_at"`
	Image     Image     `json:"image"`
}

type Notice struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type Redirect struct {
	Path    string `json:"path"`
	AfterMs int64  `json:"after_ms"`
}

type ListPage struct {
	State string     `json:"state"`
	Posts []PostCard `json:"posts"`
	Empty *Notice    `json:"empty,omitempty"`
	Error string     `json:"error,omitempty"`
	Retry bool       `json:"retry,omitempty"`
}

type DetailPage struct {
	State       string      `json:"state"`
	Post        *Post       `json:"post,omitempty"`
	Title       string      `json:"title,omitempty"`
	ContentHTML string      `json:"content_html,omitempty"`
	Image       DetailImage `json:"image"`
	IsAuthor    bool        `json:"is_author"`
	Error       string      `json:"error,omitempty"`
	Redirect    *Redirect   `json:"redirect,omitempty"`
}

type FormValues struct {
	Title   string `json:"title"`
	Slug    string `json:"slug"`
	Content string `json:"content"`
	Status  string `json:"status"`
}

type FormView struct {
	Mode        string            `json:"mode"`
	State       string            `json:"state"`
	Values      FormValues        `json:"values"`
	Submitting  bool              `json:"submitting"`
	Progress    string            `json:"progress,omitempty"`
	Error       string            `json:"error,omitempty"`
	FieldErrors map[string]string `json:"field_errors,omitempty"`
	Redirect    *Redirect         `json:"redirect,omitempty"`
}

type EditPage struct {
	State    string    `json:"state"`
	Post     *Post     `json:"post,omitempty"`
	Form     *FormView `json:"form,omitempty"`
	Image    *Image    `json:"image,omitempty"`
	Error    string    `json:"error,omitempty"`
	Redirect *Redirect `json:"redirect,omitempty"`
}

// SubmitResult is returned by create and update.
type SubmitResult struct {
	Post Post     `json:"post"`
	Form FormView `json:"form"`
}

type SlugPreview struct {
	Title string `json:"title"`
	Slug  string `json:"slug"`
}

type DeleteResult struct {
	ID      string `json:"id"`
	Deleted bool   `json:"deleted"`
}
