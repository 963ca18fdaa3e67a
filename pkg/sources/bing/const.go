package bing

const (
	// BaseURL is the Bing home page, image URLs are relative to it.
	BaseURL = "https://www.bing.com"

	// archivePath is the image archive endpoint below BaseURL.
	archivePath = "/HPImageArchive.aspx"

	// numberOfImages is how many recent images to choose from.
	numberOfImages = 8
)
