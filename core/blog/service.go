package blog

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	pkgerrors "github.com/pkg/errors"

	"github.com/trezcool/fotoescola/core"
)

var (
	// errors
	ErrNotFound = errors.New("post não encontrado")

	nowFunc = time.Now // mockable

	// OrderingFields are the fields posts can be ordered by.
	OrderingFields = []string{"title", "published_at", "created_at", "updated_at"}
)

type (
	Repository interface {
		CreatePost(ctx context.Context, p Post) (Post, error)
		PostSlugExists(ctx context.Context, slug string) (bool, error)
		GetPost(ctx context.Context, id string) (Post, error)
		GetPostBySlug(ctx context.Context, slug string) (Post, error)
		// UpdatePost replaces every field of the stored post but ID and CreatedAt.
		UpdatePost(ctx context.Context, p Post) (Post, error)
		DeletePost(ctx context.Context, id string) error
		QueryPosts(ctx context.Context, filter QueryFilter, ordering []core.DBOrdering) ([]Post, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) uniqueSlug(ctx context.Context, title, ownSlug string) (string, error) {
	return core.UniqueSlug(core.Slugify(title), func(s string) (bool, error) {
		if s == ownSlug {
			return false, nil
		}
		return svc.repo.PostSlugExists(ctx, s)
	})
}

// Create adds a post with a unique slug made from its title.
func (svc *Service) Create(ctx context.Context, np NewPost) (Post, error) {
	slug, err := svc.uniqueSlug(ctx, np.Title, "")
	if err != nil {
		return Post{}, pkgerrors.Wrap(err, "making slug")
	}

	now := nowFunc().UTC()
	p := Post{
		ID:          uuid.New().String(),
		Slug:        slug,
		Title:       np.Title,
		Excerpt:     np.Excerpt,
		Body:        np.Body,
		Author:      np.Author,
		Tags:        np.Tags,
		IsPublished: np.IsPublished,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if p.Tags == nil {
		p.Tags = []string{}
	}
	if p.IsPublished {
		p.PublishedAt = now
	}
	p, err = svc.repo.CreatePost(ctx, p)
	return p, pkgerrors.Wrap(err, "creating post")
}

func (svc *Service) GetByID(ctx context.Context, id string) (Post, error) {
	return svc.repo.GetPost(ctx, id)
}

func (svc *Service) GetBySlug(ctx context.Context, slug string) (Post, error) {
	return svc.repo.GetPostBySlug(ctx, core.CleanString(slug, true /* lower */))
}

// GetPublishedBySlug hides drafts behind ErrNotFound.
func (svc *Service) GetPublishedBySlug(ctx context.Context, slug string) (Post, error) {
	p, err := svc.GetBySlug(ctx, slug)
	if err != nil {
		return Post{}, err
	}
	if !p.IsPublished {
		return Post{}, ErrNotFound
	}
	return p, nil
}

func (svc *Service) Query(ctx context.Context, filter QueryFilter, ordering []core.DBOrdering) ([]Post, error) {
	filter.Clean()
	return svc.repo.QueryPosts(ctx, filter, core.FilterOrdering(ordering, OrderingFields...))
}

func (svc *Service) QueryPublished(ctx context.Context, filter QueryFilter, ordering []core.DBOrdering) ([]Post, error) {
	published := true
	filter.Published = &published
	return svc.Query(ctx, filter, ordering)
}

// Update modifies post id. A new title gets a new slug; the first publication sets PublishedAt.
func (svc *Service) Update(ctx context.Context, id string, up UpdatePost) (Post, error) {
	p, err := svc.repo.GetPost(ctx, id)
	if err != nil {
		return Post{}, err
	}
	now := nowFunc().UTC()

	if up.Title != "" && up.Title != p.Title {
		slug, err := svc.uniqueSlug(ctx, up.Title, p.Slug)
		if err != nil {
			return Post{}, pkgerrors.Wrap(err, "making slug")
		}
		p.Title, p.Slug = up.Title, slug
	}
	if up.Excerpt != nil {
		p.Excerpt = *up.Excerpt
	}
	if up.Body != "" {
		p.Body = up.Body
	}
	if up.Author != nil {
		p.Author = *up.Author
	}
	if up.Tags != nil {
		p.Tags = up.Tags
	}
	if up.IsPublished != nil {
		p.IsPublished = *up.IsPublished
		if p.IsPublished && p.PublishedAt.IsZero() {
			p.PublishedAt = now
		}
	}
	p.UpdatedAt = now
	return svc.repo.UpdatePost(ctx, p)
}

func (svc *Service) Delete(ctx context.Context, id string) error {
	return svc.repo.DeletePost(ctx, id)
}
