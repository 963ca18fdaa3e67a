package apod

const (
	// APIURL is the endpoint of the APOD API.
	// See https://github.com/nasa/apod-api#endpoint-versionapod
	APIURL = "https://api.nasa.gov/planetary/apod"

	// PageURL is the base of the APOD web pages, one per day.
	PageURL = "https://apod.nasa.gov/apod/"

	// Error codes of the APOD API.
	codeInvalidAPIKey = "API_KEY_INVALID"
	codeRateLimit     = "OVER_RATE_LIMIT"
)
