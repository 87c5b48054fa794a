package feed

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/lysyi3m/news-comb/app/errs"
)

const newsAPIBaseURL = "https://newsapi.org/v2/top-headlines"

type newsAPIResponse struct {
	Status   string           `json:"status"`
	Code     string           `json:"code"`
	Message  string           `json:"message"`
	Articles []newsAPIArticle `json:"articles"`
}

type newsAPIArticle struct {
	Source struct {
		Name string `json:"name"`
	} `json:"source"`
	Author      string     `json:"author"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	URL         string     `json:"url"`
	URLToImage  string     `json:"urlToImage"`
	PublishedAt *time.Time `json:"publishedAt"`
	Content     string     `json:"content"`
}

// NewsAPIURL builds the top-headlines endpoint for a source category.
func NewsAPIURL(category, apiKey string) string {
	params := url.Values{}
	params.Set("language", "en")
	params.Set("pageSize", "50")
	params.Set("category", newsAPICategory(category))
	params.Set("apiKey", apiKey)
	return newsAPIBaseURL + "?" + params.Encode()
}

func newsAPICategory(category string) string {
	switch category {
	case "tech":
		return "technology"
	case "entertainment":
		return "entertainment"
	default:
		return "general"
	}
}

// ParseNewsAPI decodes a NewsAPI-style JSON payload.
func ParseNewsAPI(data []byte) ([]Item, error) {
	var response newsAPIResponse
	if err := json.Unmarshal(data, &response); err != nil {
		return nil, fmt.Errorf("%w: failed to decode NewsAPI response: %v", errs.ErrUpstreamFormat, err)
	}

	if response.Status != "" && response.Status != "ok" {
		return nil, fmt.Errorf("%w: NewsAPI error %s: %s", errs.ErrUpstreamFormat, response.Code, response.Message)
	}

	items := make([]Item, 0, len(response.Articles))
	for _, article := range response.Articles {
		item := Item{
			GUID:        article.URL,
			Title:       strings.TrimSpace(article.Title),
			Link:        strings.TrimSpace(article.URL),
			Description: article.Description,
			Content:     article.Content,
			ImageURL:    article.URLToImage,
			PublishedAt: article.PublishedAt,
			Publisher:   strings.TrimSpace(article.Source.Name),
		}
		if author := strings.TrimSpace(article.Author); author != "" {
			item.Authors = []string{author}
		}
		items = append(items, item)
	}

	return items, nil
}
