package recruiting

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/crb12546/musical-memory/internal/utils"
)

const (
	contentType     = "application/json"
	contentEncoding = "gzip"
	maxLoggedBody   = 300
)

var statusMessages = map[int]string{
	http.StatusBadRequest:            "请求参数错误",
	http.StatusUnauthorized:          "未授权访问",
	http.StatusForbidden:             "没有操作权限",
	http.StatusNotFound:              "资源不存在",
	http.StatusConflict:              "数据冲突",
	http.StatusRequestEntityTooLarge: "请求内容过大",
	http.StatusUnprocessableEntity:   "数据校验失败",
	http.StatusInternalServerError:   "服务器内部错误",
	http.StatusBadGateway:            "网关错误",
	http.StatusServiceUnavailable:    "服务暂不可用",
}

// getJSON issues a GET and decodes the 2xx body into target.
func (c *Client) getJSON(ctx context.Context, op, path string, target any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url(path), nil)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", op, err)
	}

	req = c.setHeaders(req)

	return c.do(op, req, target)
}

// sendJSON issues a request with a JSON body and decodes the 2xx body into target.
func (c *Client) sendJSON(ctx context.Context, op, method, path string, body, target any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: encode body: %w", op, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.url(path), reader)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", op, err)
	}

	req = c.setHeaders(req)
	req.Header.Set("Content-Type", contentType)

	return c.do(op, req, target)
}

func (c *Client) do(op string, req *http.Request, target any) error {
	resp, err := c.request(req)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	data, err := readBody(resp)
	if err != nil {
		return &TransportError{Op: op, Err: fmt.Errorf("read body: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := translateError(op, resp.StatusCode, data)
		c.logger.Debug("backend rejected request",
			zap.String("op", op),
			zap.Int("status", resp.StatusCode),
			zap.String("body", utils.TruncateForLog(string(data), maxLoggedBody)),
		)
		return apiErr
	}

	if target == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}

	if err := json.Unmarshal(data, target); err != nil {
		c.logger.Debug("undecodable response body",
			zap.String("op", op),
			zap.String("body", utils.TruncateForLog(string(data), maxLoggedBody)),
		)
		return &APIError{
			Op:         op,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("响应格式错误（HTTP %d）", resp.StatusCode),
			Err:        fmt.Errorf("%w: %w", ErrMalformedResponse, err),
		}
	}

	return nil
}

func (c *Client) request(req *http.Request) (*http.Response, error) {
	c.logger.Debug("make request", zap.String("method", req.Method), zap.String("url", req.URL.String()))
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}

	return resp, nil
}

func (c *Client) setHeaders(req *http.Request) *http.Request {
	req.Header.Set("Accept", contentType)
	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("Accept-Encoding", contentEncoding)
	if c.Origin != "" {
		req.Header.Set("Origin", c.Origin)
	}

	return req
}

func readBody(resp *http.Response) ([]byte, error) {
	var reader io.Reader = resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gzipReader, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, err
		}
		defer gzipReader.Close()
		reader = gzipReader
	}

	return io.ReadAll(reader)
}

type errorBody struct {
	Detail json.RawMessage `json:"detail"`
}

type detailItem struct {
	Msg string `json:"msg"`
}

// translateError turns a non-2xx response into an APIError. The backend
// detail is used verbatim when it can be decoded.
func translateError(op string, status int, body []byte) *APIError {
	apiErr := &APIError{Op: op, StatusCode: status}

	if msg := decodeDetail(body); msg != "" {
		apiErr.Message = msg
		apiErr.FromServer = true
		return apiErr
	}

	if msg, ok := statusMessages[status]; ok {
		apiErr.Message = fmt.Sprintf("%s（HTTP %d）", msg, status)
	} else {
		apiErr.Message = fmt.Sprintf("HTTP错误 %d", status)
	}
	return apiErr
}

func decodeDetail(body []byte) string {
	var parsed errorBody
	if err := json.Unmarshal(body, &parsed); err != nil || len(parsed.Detail) == 0 {
		return ""
	}

	var text string
	if err := json.Unmarshal(parsed.Detail, &text); err == nil {
		return strings.TrimSpace(text)
	}

	// FastAPI validation errors carry a list of {loc, msg, type}.
	var items []detailItem
	if err := json.Unmarshal(parsed.Detail, &items); err == nil {
		msgs := make([]string, 0, len(items))
		for _, item := range items {
			if m := strings.TrimSpace(item.Msg); m != "" {
				msgs = append(msgs, m)
			}
		}
		return strings.Join(msgs, "; ")
	}

	return ""
}
