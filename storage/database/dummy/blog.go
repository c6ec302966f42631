package dummydb

import (
	"context"

	"github.com/trezcool/fotoescola/core"
	"github.com/trezcool/fotoescola/core/blog"
)

type postRepository struct {
	db *DB
	t  *postTable
}

var _ blog.Repository = (*postRepository)(nil) // interface compliance check

func NewPostRepository(db *DB) blog.Repository {
	return &postRepository{db: db, t: db.post}
}

func clonePost(p blog.Post) *blog.Post {
	p.Tags = copyStrings(p.Tags)
	return &p
}

func (repo *postRepository) CreatePost(ctx context.Context, p blog.Post) (blog.Post, error) {
	if err := repo.db.wait(ctx); err != nil {
		return blog.Post{}, err
	}
	repo.t.Lock()
	defer repo.t.Unlock()

	repo.t.table[p.ID] = clonePost(p)
	return p, nil
}

func (repo *postRepository) PostSlugExists(ctx context.Context, slug string) (bool, error) {
	if err := repo.db.wait(ctx); err != nil {
		return false, err
	}
	repo.t.RLock()
	defer repo.t.RUnlock()

	for _, p := range repo.t.table {
		if p.Slug == slug {
			return true, nil
		}
	}
	return false, nil
}

func (repo *postRepository) GetPost(ctx context.Context, id string) (blog.Post, error) {
	if err := repo.db.wait(ctx); err != nil {
		return blog.Post{}, err
	}
	repo.t.RLock()
	defer repo.t.RUnlock()

	if p, ok := repo.t.table[id]; ok {
		return *clonePost(*p), nil
	}
	return blog.Post{}, blog.ErrNotFound
}

func (repo *postRepository) GetPostBySlug(ctx context.Context, slug string) (blog.Post, error) {
	if err := repo.db.wait(ctx); err != nil {
		return blog.Post{}, err
	}
	repo.t.RLock()
	defer repo.t.RUnlock()

	for _, p := range repo.t.table {
		if p.Slug == slug {
			return *clonePost(*p), nil
		}
	}
	return blog.Post{}, blog.ErrNotFound
}

func (repo *postRepository) UpdatePost(ctx context.Context, p blog.Post) (blog.Post, error) {
	if err := repo.db.wait(ctx); err != nil {
		return blog.Post{}, err
	}
	repo.t.Lock()
	defer repo.t.Unlock()

	orig, ok := repo.t.table[p.ID]
	if !ok {
		return blog.Post{}, blog.ErrNotFound
	}
	p.CreatedAt = orig.CreatedAt
	repo.t.table[p.ID] = clonePost(p)
	return p, nil
}

func (repo *postRepository) DeletePost(ctx context.Context, id string) error {
	if err := repo.db.wait(ctx); err != nil {
		return err
	}
	repo.t.Lock()
	defer repo.t.Unlock()

	if _, ok := repo.t.table[id]; !ok {
		return blog.ErrNotFound
	}
	delete(repo.t.table, id)
	return nil
}

func (repo *postRepository) QueryPosts(ctx context.Context, filter blog.QueryFilter, ordering []core.DBOrdering) ([]blog.Post, error) {
	if err := repo.db.wait(ctx); err != nil {
		return nil, err
	}
	repo.t.RLock()
	defer repo.t.RUnlock()

	posts := make([]blog.Post, 0)
	for _, p := range repo.t.table {
		if filter.Match(*p) {
			posts = append(posts, *clonePost(*p))
		}
	}
	sortBy(posts, ordering, core.DBOrdering{Field: "published_at"}, func(i, j int, field string) int {
		a, b := posts[i], posts[j]
		switch field {
		case "title":
			return compareStrings(a.Title, b.Title)
		case "published_at":
			return compareTimes(a.PublishedAt, b.PublishedAt)
		case "created_at":
			return compareTimes(a.CreatedAt, b.CreatedAt)
		case "updated_at":
			return compareTimes(a.UpdatedAt, b.UpdatedAt)
		}
		return 0
	})
	return posts, nil
}
