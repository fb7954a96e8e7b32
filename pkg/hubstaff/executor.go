package hubstaff

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
)

const (
	maxBackoffRetries = 2
	baseBackoff       = 250 * time.Millisecond
)

// maxRetryAfter caps a server-sent Retry-After, in seconds.
const maxRetryAfter = 3600

// execute performs one authenticated logical call: a proactive refresh when
// needed, one forced refresh and resend on 401, and up to maxBackoffRetries
// resends on 429 or 5xx.
func (c *HTTPClient) execute(ctx context.Context, method, path string, body []byte) (json.RawMessage, error) {
	info := RequestInfo{
		CallID: uuid.NewString(),
		Method: method,
		URL:    c.apiBase + path,
	}

	reauthed := false
	backoffs := 0
	for {
		token, err := c.AccessToken(ctx)
		if err != nil {
			return nil, err
		}

		status, header, respBody, err := c.send(ctx, info, token, body)
		if err != nil {
			return nil, err
		}

		switch {
		case status >= 200 && status <= 299:
			return parseBody(respBody), nil

		case status == http.StatusUnauthorized && !reauthed:
			reauthed = true
			c.logger.Debug("received 401, forcing token refresh", "call_id", info.CallID)
			if _, err := c.coord.EnsureFresh(ctx, token); err != nil {
				return nil, err
			}

		case isRetryable(status) && backoffs < maxBackoffRetries:
			delay := backoffDelay(header.Get("Retry-After"), backoffs)
			apiErr := ErrAPI(status, respBody)
			c.hooks.OnRetry(ctx, info, backoffs+1, delay, apiErr)
			c.logger.Debug("retrying request", "call_id", info.CallID, "status", status, "delay", delay)
			if err := c.sleep(ctx, delay); err != nil {
				return nil, ErrNetwork(err)
			}
			backoffs++

		default:
			return nil, ErrAPI(status, respBody)
		}
		info.Attempt++
	}
}

// send performs a single HTTP exchange bounded by the configured timeout.
func (c *HTTPClient) send(ctx context.Context, info RequestInfo, token string, body []byte) (int, http.Header, []byte, error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(reqCtx, info.Method, info.URL, reader)
	if err != nil {
		return 0, nil, nil, ErrNetwork(err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	hookCtx := c.hooks.OnRequestStart(ctx, info)
	start := c.now()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		terr := transportError(ctx, err)
		c.hooks.OnRequestEnd(hookCtx, info, RequestResult{Duration: c.now().Sub(start), Error: terr})
		return 0, nil, nil, terr
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		terr := transportError(ctx, err)
		c.hooks.OnRequestEnd(hookCtx, info, RequestResult{StatusCode: resp.StatusCode, Duration: c.now().Sub(start), Error: terr})
		return 0, nil, nil, terr
	}
	c.hooks.OnRequestEnd(hookCtx, info, RequestResult{StatusCode: resp.StatusCode, Duration: c.now().Sub(start)})
	return resp.StatusCode, resp.Header, respBody, nil
}

func isRetryable(status int) bool {
	return status == http.StatusTooManyRequests || (status >= 500 && status <= 599)
}

// backoffDelay honors a positive Retry-After (seconds) and otherwise
// doubles from baseBackoff.
func backoffDelay(retryAfter string, attempt int) time.Duration {
	if secs, err := strconv.Atoi(retryAfter); err == nil && secs > 0 {
		return time.Duration(min(secs, maxRetryAfter)) * time.Second
	}
	return baseBackoff * time.Duration(1<<attempt)
}

// parseBody maps an empty body to {} and non-JSON text to a JSON string.
func parseBody(body []byte) json.RawMessage {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return json.RawMessage(`{}`)
	}
	if json.Valid(trimmed) {
		return json.RawMessage(trimmed)
	}
	quoted, _ := json.Marshal(string(body))
	return json.RawMessage(quoted)
}

func decodeDetails(body []byte) any {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil
	}
	var v any
	if err := json.Unmarshal(trimmed, &v); err != nil {
		return string(body)
	}
	return v
}
