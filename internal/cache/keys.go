package cache

import "fmt"

const (
	feedGenerationKey = "feed:generation"
	feedKey           = "feed:%d:%s:%s" // <generation>:<status>:<category>
)

func feedListKey(generation Generation, status, category string) string {
	return fmt.Sprintf(feedKey, generation, status, category)
}
