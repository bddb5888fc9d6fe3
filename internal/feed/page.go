package feed

import (
	"math"
	"strconv"
	"strings"

	"github.com/weblithic/site/internal/models"
)

const wordsPerMinute = 200

// Page is one rendered page of the feed.
type Page struct {
	Number     int        `json:"page"`
	TotalPages int        `json:"total_pages"`
	Cards      []Card     `json:"cards"`
	Links      []PageLink `json:"links"`

	// ShowingStart and ShowingEnd are the 1-based positions of the first and
	// last card on the page; both are 0 when the page is empty.
	ShowingStart int `json:"showing_start"`
	ShowingEnd   int `json:"showing_end"`
	Total        int `json:"total"`

	HasPrev  bool `json:"has_prev"`
	HasNext  bool `json:"has_next"`
	Fallback bool `json:"fallback"`
}

// PageLink is one entry of the page-number window.
type PageLink struct {
	Number int  `json:"number"`
	Active bool `json:"active"`
}

// Card is a post prepared for display.
type Card struct {
	Post     models.Post `json:"post"`
	Date     string      `json:"date"`
	ReadTime string      `json:"read_time"`
	URL      string      `json:"url"`
}

func newCard(p models.Post) Card {
	c := Card{Post: p, ReadTime: ReadTime(p.Content)}
	if !p.PublishedDate.IsZero() {
		c.Date = p.PublishedDate.Format("Jan 2, 2006")
	}
	if p.Slug != "" {
		c.URL = "/blog/" + p.Slug
	}
	return c
}

// ReadTime estimates reading time at 200 words per minute, never below one
// minute.
func ReadTime(content string) string {
	words := len(strings.Fields(content))
	minutes := int(math.Ceil(float64(words) / wordsPerMinute))
	if minutes < 1 {
		minutes = 1
	}
	return strconv.Itoa(minutes) + " min read"
}
