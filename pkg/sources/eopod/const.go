package eopod

// FeedURL is the RSS feed of the Earth Observatory image of the day.
const FeedURL = "https://earthobservatory.nasa.gov/feeds/image-of-the-day.rss"
