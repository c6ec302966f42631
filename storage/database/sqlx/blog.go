package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/fotoescola/core"
	"github.com/trezcool/fotoescola/core/blog"
)

const postTable = "post"

var postColumns = []string{"id", "slug", "title", "excerpt", "body", "author", "tags", "is_published", "published_at", "created_at", "updated_at"}

type postRow struct {
	ID          string         `db:"id"`
	Slug        string         `db:"slug"`
	Title       string         `db:"title"`
	Excerpt     string         `db:"excerpt"`
	Body        string         `db:"body"`
	Author      string         `db:"author"`
	Tags        pq.StringArray `db:"tags"`
	IsPublished bool           `db:"is_published"`
	PublishedAt sql.NullTime   `db:"published_at"`
	CreatedAt   time.Time      `db:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at"`
}

func (r postRow) toPost() blog.Post {
	tags := []string(r.Tags)
	if tags == nil {
		tags = []string{}
	}
	return blog.Post{
		ID:          r.ID,
		Slug:        r.Slug,
		Title:       r.Title,
		Excerpt:     r.Excerpt,
		Body:        r.Body,
		Author:      r.Author,
		Tags:        tags,
		IsPublished: r.IsPublished,
		PublishedAt: fromNullTime(r.PublishedAt),
		CreatedAt:   r.CreatedAt.UTC(),
		UpdatedAt:   r.UpdatedAt.UTC(),
	}
}

type postRepository struct {
	db *sqlx.DB
}

var _ blog.Repository = (*postRepository)(nil) // interface compliance check

func NewPostRepository(db *sqlx.DB) blog.Repository {
	return &postRepository{db: db}
}

func (repo *postRepository) CreatePost(ctx context.Context, p blog.Post) (blog.Post, error) {
	query := psql.Insert(postTable).Columns(postColumns...).Values(
		p.ID, p.Slug, p.Title, p.Excerpt, p.Body, p.Author, pq.StringArray(p.Tags),
		p.IsPublished, nullTime(p.PublishedAt), p.CreatedAt, p.UpdatedAt,
	)
	if err := exec(ctx, repo.db, query, nil); err != nil {
		return blog.Post{}, errors.Wrap(err, "inserting post")
	}
	return p, nil
}

func (repo *postRepository) PostSlugExists(ctx context.Context, slug string) (bool, error) {
	var found bool
	query := psql.Select("true").From(postTable).Where(sq.Eq{"slug": slug})
	err := get(ctx, repo.db, &found, query, blog.ErrNotFound)
	if err == blog.ErrNotFound {
		return false, nil
	}
	return found, err
}

func (repo *postRepository) getBy(ctx context.Context, where sq.Eq) (blog.Post, error) {
	var row postRow
	query := psql.Select(postColumns...).From(postTable).Where(where)
	if err := get(ctx, repo.db, &row, query, blog.ErrNotFound); err != nil {
		return blog.Post{}, err
	}
	return row.toPost(), nil
}

func (repo *postRepository) GetPost(ctx context.Context, id string) (blog.Post, error) {
	if !validUUID(id) {
		return blog.Post{}, blog.ErrNotFound
	}
	return repo.getBy(ctx, sq.Eq{"id": id})
}

func (repo *postRepository) GetPostBySlug(ctx context.Context, slug string) (blog.Post, error) {
	return repo.getBy(ctx, sq.Eq{"slug": slug})
}

func (repo *postRepository) UpdatePost(ctx context.Context, p blog.Post) (blog.Post, error) {
	if !validUUID(p.ID) {
		return blog.Post{}, blog.ErrNotFound
	}
	query := psql.Update(postTable).SetMap(map[string]interface{}{
		"slug":         p.Slug,
		"title":        p.Title,
		"excerpt":      p.Excerpt,
		"body":         p.Body,
		"author":       p.Author,
		"tags":         pq.StringArray(p.Tags),
		"is_published": p.IsPublished,
		"published_at": nullTime(p.PublishedAt),
		"updated_at":   p.UpdatedAt,
	}).Where(sq.Eq{"id": p.ID})
	if err := exec(ctx, repo.db, query, blog.ErrNotFound); err != nil {
		if err == blog.ErrNotFound {
			return blog.Post{}, err
		}
		return blog.Post{}, errors.Wrap(err, "updating post")
	}
	return repo.GetPost(ctx, p.ID)
}

func (repo *postRepository) DeletePost(ctx context.Context, id string) error {
	if !validUUID(id) {
		return blog.ErrNotFound
	}
	err := exec(ctx, repo.db, psql.Delete(postTable).Where(sq.Eq{"id": id}), blog.ErrNotFound)
	if err != nil && err != blog.ErrNotFound {
		return errors.Wrap(err, "deleting post")
	}
	return err
}

func (repo *postRepository) QueryPosts(ctx context.Context, filter blog.QueryFilter, ordering []core.DBOrdering) ([]blog.Post, error) {
	query := psql.Select(postColumns...).From(postTable).OrderBy(orderBy(ordering, "published_at DESC NULLS LAST")...)
	if filter.Search != "" {
		pattern := containsPattern(filter.Search)
		query = query.Where(sq.Or{sq.ILike{"title": pattern}, sq.ILike{"excerpt": pattern}, sq.ILike{"body": pattern}})
	}
	if filter.Tag != "" {
		query = query.Where(sq.Expr("? = ANY(tags)", filter.Tag))
	}
	if filter.Published != nil {
		query = query.Where(sq.Eq{"is_published": *filter.Published})
	}

	var rows []postRow
	if err := selectAll(ctx, repo.db, &rows, query); err != nil {
		return nil, err
	}
	posts := make([]blog.Post, 0, len(rows))
	for _, r := range rows {
		posts = append(posts, r.toPost())
	}
	return posts, nil
}
