package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	apperrors "MediaScribe/pkg/errors"
	"MediaScribe/pkg/llm"

	"go.uber.org/zap"
)

type Config struct {
	BaseURL string
	Token   string // optional, sent as Bearer
	Timeout time.Duration
	Retries int
}

// Client talks to the transcoding/inference backend over HTTP JSON.
type Client struct {
	cfg         Config
	http        *http.Client
	backoffBase time.Duration
	lg          *zap.Logger
}

func NewClient(cfg Config, lg *zap.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Retries < 0 {
		cfg.Retries = 0
	}
	if lg == nil {
		lg = zap.NewNop()
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Client{
		cfg:         cfg,
		http:        &http.Client{},
		backoffBase: 500 * time.Millisecond,
		lg:          lg,
	}
}

// UploadMedia streams f as multipart/form-data to POST /media. Uploads are
// not retried because the body is consumed.
func (c *Client) UploadMedia(ctx context.Context, f File, onProgress ProgressFunc) (UploadResult, error) {
	pr, pw := io.Pipe()
	writer := multipart.NewWriter(pw)

	errCh := make(chan error, 1)
	go func() {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, escapeQuotes(f.Name)))
		ct := f.ContentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		h.Set("Content-Type", ct)

		part, err := writer.CreatePart(h)
		if err == nil {
			_, err = io.Copy(part, newProgressReader(f.Reader, f.Size, onProgress))
		}
		if err == nil {
			err = writer.Close()
		}
		pw.CloseWithError(err)
		errCh <- err
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/media", pr)
	if err != nil {
		_ = pr.CloseWithError(err)
		<-errCh
		return UploadResult{}, apperrors.WrapCode(err, apperrors.CodeUploadFailure, "create upload request")
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	c.authorize(req)

	var out UploadResult
	status, body, err := c.do(req, c.cfg.Timeout*10)
	_ = pr.CloseWithError(io.ErrClosedPipe)
	if writeErr := <-errCh; writeErr != nil && err == nil {
		err = writeErr
	}
	if err == nil {
		err = decode(status, body, &out)
	}
	if err != nil {
		return UploadResult{}, apperrors.WrapCode(err, apperrors.CodeUploadFailure, "upload media")
	}
	if out.ID == "" || out.URL == "" {
		return UploadResult{}, apperrors.WithCode(apperrors.CodeUploadFailure, "upload response without id or url")
	}
	return out, nil
}

// CreateTranscriptionJob requests a job via POST /transcriptions.
func (c *Client) CreateTranscriptionJob(ctx context.Context, mediaID, mediaURL, language string) (string, error) {
	payload := map[string]string{"mediaId": mediaID, "mediaUrl": mediaURL, "language": language}
	var out struct {
		ID string `json:"id"`
	}
	if err := c.postJSON(ctx, "/transcriptions", payload, &out); err != nil {
		return "", apperrors.WrapCode(err, apperrors.CodeJobCreationFailure, "create transcription job")
	}
	if out.ID == "" {
		return "", apperrors.WithCode(apperrors.CodeJobCreationFailure, "create transcription job: empty id")
	}
	return out.ID, nil
}

// GetTranscriptionStatus polls GET /transcriptions/{id} once. Any failure is
// a transient poll failure.
func (c *Client) GetTranscriptionStatus(ctx context.Context, jobID string) (JobStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"/transcriptions/"+url.PathEscape(jobID), nil)
	if err != nil {
		return JobStatus{}, apperrors.WrapCode(err, apperrors.CodePollTransientFailure, "create status request")
	}
	c.authorize(req)

	var out JobStatus
	status, body, err := c.do(req, c.cfg.Timeout)
	if err == nil {
		err = decode(status, body, &out)
	}
	if err != nil {
		return JobStatus{}, apperrors.WrapCode(err, apperrors.CodePollTransientFailure, "get transcription status")
	}
	out.Status = strings.ToLower(strings.TrimSpace(out.Status))
	if out.Status == "" {
		return JobStatus{}, apperrors.WithCode(apperrors.CodePollTransientFailure, "status response without status")
	}
	return out, nil
}

// RunTextSkill calls POST /skills/{id}.
func (c *Client) RunTextSkill(ctx context.Context, skillID string, in llm.SkillInput) (string, error) {
	payload := map[string]string{"transcript": in.Transcript}
	if in.TargetLanguage != "" {
		payload["targetLanguage"] = in.TargetLanguage
	}
	var out struct {
		Result string `json:"result"`
	}
	if err := c.postJSON(ctx, "/skills/"+url.PathEscape(skillID), payload, &out); err != nil {
		return "", apperrors.Wrapf(err, "run skill %s", skillID)
	}
	return out.Result, nil
}

// RunSkill lets the client stand in for an llm.SkillRunner.
func (c *Client) RunSkill(ctx context.Context, skillID string, in llm.SkillInput) (string, error) {
	return c.RunTextSkill(ctx, skillID, in)
}

func (c *Client) postJSON(ctx context.Context, path string, payload, out interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	var lastErr error
	for attempt := 0; attempt <= c.cfg.Retries; attempt++ {
		if attempt > 0 {
			backoff := c.backoff(attempt)
			c.lg.Debug("retry backend request", zap.String("path", path), zap.Int("attempt", attempt), zap.Duration("backoff", backoff))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, bytes.NewReader(data))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		c.authorize(req)

		status, body, err := c.do(req, c.cfg.Timeout)
		if err == nil {
			err = decode(status, body, out)
		}
		if err == nil {
			return nil
		}
		if !isRetryable(err) {
			return err
		}
		lastErr = err
	}
	return fmt.Errorf("all %d retries exhausted: %w", c.cfg.Retries, lastErr)
}

func (c *Client) do(req *http.Request, timeout time.Duration) (int, []byte, error) {
	ctx, cancel := context.WithTimeout(req.Context(), timeout)
	defer cancel()

	resp, err := c.http.Do(req.WithContext(ctx))
	if err != nil {
		return 0, nil, &retryableError{err: fmt.Errorf("http request: %w", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, &retryableError{err: fmt.Errorf("read response body: %w", err)}
	}
	return resp.StatusCode, body, nil
}

func (c *Client) authorize(req *http.Request) {
	if c.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	}
}

func decode(status int, body []byte, out interface{}) error {
	if status >= 500 {
		return &retryableError{err: fmt.Errorf("server error %d: %s", status, truncate(body, 200))}
	}
	if status < 200 || status >= 300 {
		return fmt.Errorf("http %d: %s", status, truncate(body, 200))
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// retryableError marks network failures and 5xx responses.
type retryableError struct {
	err error
}

func (e *retryableError) Error() string { return e.err.Error() }
func (e *retryableError) Unwrap() error { return e.err }

func isRetryable(err error) bool {
	_, ok := err.(*retryableError)
	return ok
}

// backoff is base * 2^(attempt-1) plus up to 25% jitter.
func (c *Client) backoff(attempt int) time.Duration {
	delay := c.backoffBase
	for i := 1; i < attempt; i++ {
		delay *= 2
	}
	jitter := time.Duration(rand.Int63n(int64(delay/4) + 1))
	return delay + jitter
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
