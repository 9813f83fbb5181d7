package blog

import (
	"context"

	"inkwell/internal/slug"
	"inkwell/internal/store"
)

// Home returns a page of the published feed with the recent posts and the
// most used tags.
func (s *Service) Home(ctx context.Context, page int) (*HomeView, error) {
	posts := store.NewPostStore(s.db)

	feed, err := s.publishedPage(ctx, posts, page)
	if err != nil {
		return nil, err
	}
	recent, err := posts.ListRecent(ctx, RecentLimit)
	if err != nil {
		return nil, err
	}
	popular, err := store.NewTagStore(s.db).Popular(ctx, PopularTagLimit)
	if err != nil {
		return nil, err
	}
	return &HomeView{Feed: feed, Recent: recent, PopularTags: popular}, nil
}

// Feed returns a page of published posts, filtered by tag slug when one is
// given. An unknown tag is ErrNotFound.
func (s *Service) Feed(ctx context.Context, tagSlug string, page int) (*FeedView, error) {
	posts := store.NewPostStore(s.db)

	if tagSlug == "" {
		feed, err := s.publishedPage(ctx, posts, page)
		if err != nil {
			return nil, err
		}
		return &FeedView{Feed: feed}, nil
	}

	if !slug.Valid(tagSlug) {
		return nil, ErrNotFound
	}
	tag, err := store.NewTagStore(s.db).FindBySlug(ctx, tagSlug)
	if err != nil {
		return nil, err
	}
	if tag == nil {
		return nil, ErrNotFound
	}

	total, err := posts.CountPublishedByTag(ctx, tag.ID)
	if err != nil {
		return nil, err
	}
	pg := NewPage(page, s.perPage, total)
	list, err := posts.ListPublishedByTag(ctx, tag.ID, pg.Size, pg.Offset())
	if err != nil {
		return nil, err
	}
	if err := posts.LoadTags(ctx, list); err != nil {
		return nil, err
	}
	return &FeedView{Tag: tag, Feed: PostPage{Posts: list, Page: pg}}, nil
}

// Search finds published posts whose title or content contains the query,
// ignoring case. An empty query finds nothing.
func (s *Service) Search(ctx context.Context, query string, page int) (*SearchView, error) {
	query = normalizeQuery(query)
	if query == "" {
		return &SearchView{Feed: PostPage{Page: NewPage(1, s.perPage, 0)}}, nil
	}

	posts := store.NewPostStore(s.db)
	pattern := containsPattern(query)

	total, err := posts.CountSearchPublished(ctx, pattern)
	if err != nil {
		return nil, err
	}
	pg := NewPage(page, s.perPage, total)
	list, err := posts.SearchPublished(ctx, pattern, pg.Size, pg.Offset())
	if err != nil {
		return nil, err
	}
	if err := posts.LoadTags(ctx, list); err != nil {
		return nil, err
	}
	return &SearchView{Query: query, Feed: PostPage{Posts: list, Page: pg}}, nil
}

func (s *Service) publishedPage(ctx context.Context, posts *store.PostStore, page int) (PostPage, error) {
	total, err := posts.CountPublished(ctx)
	if err != nil {
		return PostPage{}, err
	}
	pg := NewPage(page, s.perPage, total)
	list, err := posts.ListPublished(ctx, pg.Size, pg.Offset())
	if err != nil {
		return PostPage{}, err
	}
	if err := posts.LoadTags(ctx, list); err != nil {
		return PostPage{}, err
	}
	return PostPage{Posts: list, Page: pg}, nil
}
