package source_test

import (
	"fmt"
	"time"
)

func sprintfFeed(published time.Time) string {
	return fmt.Sprintf(feedXML, published.UTC().Format(time.RFC1123Z))
}
