package httputils

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// StatusError is returned when the remote side answers with a non-200 status.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("bad status: %d", e.Code)
	}
	return fmt.Sprintf("bad status: %d: %s", e.Code, e.Body)
}

func PostJSON(ctx context.Context, client *http.Client, url string, body interface{}, resp interface{}) error {
	r, err := PostStream(ctx, client, url, body)
	if err != nil {
		return err
	}
	defer r.Close()
	if resp != nil {
		return json.NewDecoder(r).Decode(resp)
	}
	return nil
}

// PostStream posts body as JSON and hands back the open response body.
func PostStream(ctx context.Context, client *http.Client, url string, body interface{}) (io.ReadCloser, error) {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return do(client, req)
}

func GetJSON(ctx context.Context, client *http.Client, url string, resp interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	r, err := do(client, req)
	if err != nil {
		return err
	}
	defer r.Close()
	return json.NewDecoder(r).Decode(resp)
}

func do(client *http.Client, req *http.Request) (io.ReadCloser, error) {
	if client == nil {
		client = http.DefaultClient
	}
	r, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	if r.StatusCode != http.StatusOK {
		defer r.Body.Close()
		msg, _ := io.ReadAll(io.LimitReader(r.Body, 512))
		return nil, &StatusError{Code: r.StatusCode, Body: string(bytes.TrimSpace(msg))}
	}
	return r.Body, nil
}
