package rest

import (
	"github.com/dfryer1193/blogwrite/api"
	"github.com/dfryer1193/blogwrite/blog/application"
	"github.com/dfryer1193/blogwrite/blog/domain"
)

func toPost(p *domain.Post) *api.Post {
	if p == nil {
		return nil
	}
	return &api.Post{
		ID:              p.ID,
		Title:           p.Title,
		Content:         p.Content,
		FeaturedImageID: p.FeaturedImageID,
		Status:          string(p.Status),
		AuthorID:        p.AuthorID,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
}

func toImage(v domain.ImageView) api.Image {
	return api.Image{URL: v.URL, Placeholder: v.Placeholder}
}

func toRedirect(r *application.Redirect) *api.Redirect {
	if r == nil {
		return nil
	}
	return &api.Redirect{Path: r.Path, AfterMs: r.After.Milliseconds()}
}

func toNotice(n *application.Notice) *api.Notice {
	if n == nil {
		return nil
	}
	return &api.Notice{Title: n.Title, Description: n.Description}
}

func toListPage(p application.ListPage) api.ListPage {
	cards := make([]api.PostCard, 0, len(p.Posts))
	for _, card := range p.Posts {
		cards = append(cards, api.PostCard{
			ID:        card.ID,
			Title:     card.Title,
			Excerpt:   card.Excerpt,
			Status:    string(card.Status),
			AuthorID:  card.AuthorID,
			CreatedAt: card.CreatedAt,
			Image:     toImage(card.Image),
		})
	}

	return api.ListPage{
		State: string(p.State),
		Posts: cards,
		Empty: toNotice(p.Empty),
		Error: p.Error,
		Retry: p.Retry,
	}
}

func toDetailPage(p application.DetailPage) api.DetailPage {
	return api.DetailPage{
		State:       string(p.State),
		Post:        toPost(p.Post),
		Title:       p.Title,
		ContentHTML: p.ContentHTML,
		Image: api.DetailImage{
			Image:   toImage(p.Image.ImageView),
			Loading: p.Image.Loading,
			Error:   p.Image.Error,
		},
		IsAuthor: p.IsAuthor,
		Error:    p.Error,
		Redirect: toRedirect(p.Redirect),
	}
}

func toFormView(v application.FormView) api.FormView {
	return api.FormView{
		Mode:  v.Mode,
		State: string(v.State),
		Values: api.FormValues{
			Title:   v.Values.Title,
			Slug:    v.Values.Slug,
			Content: v.Values.Content,
			Status:  string(v.Values.Status),
		},
		Submitting:  v.Submitting,
		Progress:    v.Progress,
		Error:       v.Error,
		FieldErrors: v.FieldErrors,
		Redirect:    toRedirect(v.Redirect),
	}
}

func toEditPage(p application.EditPage) api.EditPage {
	page := api.EditPage{
		State:    string(p.State),
		Post:     toPost(p.Post),
		Error:    p.Error,
		Redirect: toRedirect(p.Redirect),
	}
	if p.State == application.PagePopulated {
		form := toFormView(p.Form)
		image := toImage(p.Image)
		page.Form = &form
		page.Image = &image
	}
	return page
}
