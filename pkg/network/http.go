package network

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/dixieflatline76/Potd/util/log"
)

// maxErrorBody bounds how much of an error response is kept in StatusError.
const maxErrorBody = 64 << 10

func get(ctx context.Context, client *http.Client, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &RequestError{URL: url, Msg: fmt.Sprintf("Invalid request to %s", url), Err: err}
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, &RequestError{URL: url, Msg: fmt.Sprintf("Failed to make GET request to %s", url), Err: err}
	}
	return resp, nil
}

func statusError(resp *http.Response) *StatusError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	reason := resp.Status
	if len(reason) > 4 {
		// Status is "404 Not Found"; keep only the phrase.
		reason = reason[4:]
	}
	return &StatusError{Code: resp.StatusCode, Reason: reason, Body: body}
}

// GetString fetches url and returns the response body as string.
// Non-200 responses fail with a RequestError wrapping a StatusError, empty
// bodies with a RequestError wrapping ErrNoData.
func GetString(ctx context.Context, client *http.Client, url string) (string, error) {
	resp, err := get(ctx, client, url)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &RequestError{URL: url, Msg: fmt.Sprintf("Request to %s received error response", url), Err: statusError(resp)}
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &RequestError{URL: url, Msg: fmt.Sprintf("Failed to get data from %s", url), Err: err}
	}
	if len(data) == 0 {
		return "", &RequestError{URL: url, Msg: fmt.Sprintf("Failed to decode data from %s", url), Err: ErrNoData}
	}
	return string(data), nil
}

// GetJSON fetches url and decodes the JSON response into v.
func GetJSON(ctx context.Context, client *http.Client, url string, v any) error {
	data, err := GetString(ctx, client, url)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(data), v); err != nil {
		return &RequestError{URL: url, Msg: fmt.Sprintf("Failed to parse data from %s", url), Err: err}
	}
	return nil
}

// DownloadToFile downloads url to target. An existing target is kept as is.
// Missing parent directories are created. A partially written target is
// removed when the download fails.
func DownloadToFile(ctx context.Context, client *http.Client, url, target string) error {
	if _, err := os.Stat(target); err == nil {
		log.Debugf("Skipping download of %s, %s exists", url, target)
		return nil
	}

	resp, err := get(ctx, client, url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &RequestError{URL: url, Msg: fmt.Sprintf("GET request to %s returned error", url), Err: statusError(resp)}
	}

	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return &IOError{Path: dir, Msg: fmt.Sprintf("Failed to create target directory at %s to download from %s", dir, url), Err: err}
	}

	file, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return &IOError{Path: target, Msg: fmt.Sprintf("Failed to open target file at %s to download from %s", target, url), Err: err}
	}

	_, copyErr := io.Copy(file, resp.Body)
	closeErr := file.Close()
	if copyErr == nil && closeErr != nil {
		copyErr = &IOError{Path: target, Msg: fmt.Sprintf("Failed to write %s", target), Err: closeErr}
	} else if copyErr != nil {
		copyErr = &RequestError{URL: url, Msg: fmt.Sprintf("Failed to download data from %s to %s", url, target), Err: copyErr}
	}
	if copyErr != nil {
		log.Printf("Download failed, deleting partial target file at %s", target)
		if err := os.Remove(target); err != nil && !errors.Is(err, os.ErrNotExist) {
			log.Printf("Failed to delete result of partial download at %s: %v", target, err)
		}
		return copyErr
	}
	return nil
}
