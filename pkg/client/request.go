package client

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// listResponse is the body of a list call. A missing data field decodes to nil.
type listResponse struct {
	Data []Item `json:"data"`
}

type itemResponse struct {
	Data Item `json:"data"`
}

type mutationRequest struct {
	Collection string `json:"collection"`
	Data       Item   `json:"data"`
}

// endpoint builds {base}/api/{namespace}/{collection}/{elem...}. Segments are
// escaped and appended verbatim; dot segments are not resolved.
func (c *Client) endpoint(collection string, elem ...string) *url.URL {
	u := *c.baseURL
	path := strings.TrimSuffix(u.Path, "/")
	rawPath := strings.TrimSuffix(u.EscapedPath(), "/")

	for _, segment := range append([]string{"api", c.namespace, collection}, elem...) {
		path += "/" + segment
		rawPath += "/" + url.PathEscape(segment)
	}

	u.Path = path
	u.RawPath = rawPath

	return &u
}

func (c *Client) request(ctx context.Context, method string, endpoint *url.URL, header http.Header, body io.Reader, result io.Writer) error {
	c.logger.Debug("new client request",
		zap.String("method", method),
		zap.String("path", endpoint.Path),
		zap.String("host", endpoint.Host),
	)

	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), body)
	if err != nil {
		return errors.WithStack(err)
	}

	for k, v := range header {
		req.Header[k] = v
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return errors.WithStack(err)
	}

	defer res.Body.Close()

	if res.StatusCode < http.StatusOK || res.StatusCode >= http.StatusMultipleChoices {
		return errors.Errorf("unexpected response code %d (%s)", res.StatusCode, res.Status)
	}

	if result == nil {
		result = io.Discard
	}

	if _, err := io.Copy(result, res.Body); err != nil {
		return errors.WithStack(err)
	}

	return nil
}

// jsonRequest encodes payload, when set, as the request body and decodes a
// non-empty response body into result, when set.
func (c *Client) jsonRequest(ctx context.Context, method string, endpoint *url.URL, payload any, result any) error {
	var (
		body   io.Reader
		header http.Header
	)

	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return errors.WithStack(err)
		}
		body = bytes.NewReader(data)
		header = http.Header{"Content-Type": []string{"application/json"}}
	}

	var buff bytes.Buffer

	if err := c.request(ctx, method, endpoint, header, body, &buff); err != nil {
		return errors.WithStack(err)
	}

	if result == nil || buff.Len() == 0 {
		return nil
	}

	if err := json.Unmarshal(buff.Bytes(), result); err != nil {
		return errors.WithStack(err)
	}

	return nil
}
