package blog

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/fotoescola/core"
)

type Post struct {
	ID          string    `json:"id"`
	Slug        string    `json:"slug"`
	Title       string    `json:"title"`
	Excerpt     string    `json:"excerpt"`
	Body        string    `json:"body"`
	Author      string    `json:"author"`
	Tags        []string  `json:"tags"`
	IsPublished bool      `json:"is_published"`
	PublishedAt time.Time `json:"published_at"` // UTC, zero until first published
	CreatedAt   time.Time `json:"created_at"`   // UTC
	UpdatedAt   time.Time `json:"updated_at"`   // UTC
}

func (p Post) HasTag(tag string) bool {
	for _, t := range p.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

type NewPost struct {
	Title       string   `json:"title" validate:"required,notblank,max=200"`
	Excerpt     string   `json:"excerpt" validate:"max=500"`
	Body        string   `json:"body" validate:"required,notblank"`
	Author      string   `json:"author" validate:"max=100"`
	Tags        []string `json:"tags" validate:"omitempty,dive,max=40"`
	IsPublished bool     `json:"is_published"`
}

func (np *NewPost) Validate(validate *validator.Validate) error {
	np.Title = core.CleanString(np.Title)
	np.Excerpt = core.CleanString(np.Excerpt)
	np.Author = core.CleanString(np.Author)
	np.Tags = cleanTags(np.Tags)
	return validate.Struct(np)
}

// UpdatePost defines what information may be provided to modify an existing Post.
type UpdatePost struct {
	Title       string   `json:"title" validate:"max=200"`
	Excerpt     *string  `json:"excerpt" validate:"omitempty,max=500"`
	Body        string   `json:"body"`
	Author      *string  `json:"author" validate:"omitempty,max=100"`
	Tags        []string `json:"tags" validate:"omitempty,dive,max=40"`
	IsPublished *bool    `json:"is_published"`
}

func (up *UpdatePost) Validate(validate *validator.Validate) error {
	up.Title = core.CleanString(up.Title)
	if up.Excerpt != nil {
		s := core.CleanString(*up.Excerpt)
		up.Excerpt = &s
	}
	if up.Author != nil {
		s := core.CleanString(*up.Author)
		up.Author = &s
	}
	if up.Tags != nil {
		up.Tags = cleanTags(up.Tags)
	}
	return validate.Struct(up)
}

// cleanTags lowers, trims and dedups tags, dropping blank ones.
func cleanTags(tags []string) []string {
	cleaned := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = core.CleanString(t, true /* lower */)
		if _, ok := seen[t]; ok || t == "" {
			continue
		}
		seen[t] = struct{}{}
		cleaned = append(cleaned, t)
	}
	return cleaned
}

type QueryFilter struct {
	Search    string `query:"search"`
	Tag       string `query:"tag"`
	Published *bool  `query:"published"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Tag = core.CleanString(qf.Tag, true /* lower */)
}

// Match applies AND on the set fields of qf. Search matches Title, Excerpt or Body.
func (qf QueryFilter) Match(p Post) bool {
	if qf.Search != "" &&
		!core.ContainsFold(p.Title, qf.Search) &&
		!core.ContainsFold(p.Excerpt, qf.Search) &&
		!core.ContainsFold(p.Body, qf.Search) {
		return false
	}
	if qf.Tag != "" && !p.HasTag(qf.Tag) {
		return false
	}
	if qf.Published != nil && p.IsPublished != *qf.Published {
		return false
	}
	return true
}
