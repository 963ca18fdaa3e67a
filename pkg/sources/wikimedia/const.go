package wikimedia

const (
	// FeedURL is the base URL of the Wikimedia feed API.
	// See https://api.wikimedia.org/wiki/Feed_API/Reference/Featured_content
	FeedURL = "https://api.wikimedia.org/feed/v1/wikipedia"

	// defaultLanguage is used when the user's locale has no language.
	defaultLanguage = "en"
)
