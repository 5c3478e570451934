// Package xapi is a minimal client for the two platform endpoints the server
// needs: creating a post and uploading media. Requests are signed with
// OAuth 1.0a user-context credentials.
package xapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dghubble/oauth1"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/debemdeboas/x-mcp/internal/config"
	"github.com/debemdeboas/x-mcp/internal/model"
)

const (
	createPostPath  = "/2/tweets"
	mediaUploadPath = "/1.1/media/upload.json"

	// maxErrorBody caps how much of an error response is read.
	maxErrorBody = 64 << 10
)

var apiLogger = zerolog.Nop()

func SetLogger(l zerolog.Logger) {
	apiLogger = l
}

type Client struct {
	apiBase    string
	uploadBase string
	http       *http.Client
}

// New returns a client signing every request with creds.
func New(cfg config.XConfig, creds config.Credentials) *Client {
	oauthCfg := oauth1.NewConfig(creds.APIKey, creds.APISecret)
	httpClient := oauthCfg.Client(oauth1.NoContext, oauth1.NewToken(creds.AccessToken, creds.AccessTokenSecret))
	httpClient.Timeout = cfg.Timeout.Duration

	return NewWithHTTPClient(cfg.APIBase, cfg.UploadBase, httpClient)
}

// NewWithHTTPClient uses httpClient as is. Signing, if any, is the caller's
// concern.
func NewWithHTTPClient(apiBase, uploadBase string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		apiBase:    strings.TrimRight(apiBase, "/"),
		uploadBase: strings.TrimRight(uploadBase, "/"),
		http:       httpClient,
	}
}

type createPostRequest struct {
	Text  string      `json:"text"`
	Reply *replyField `json:"reply,omitempty"`
	Media *mediaField `json:"media,omitempty"`
}

type replyField struct {
	InReplyToTweetID string `json:"in_reply_to_tweet_id"`
}

type mediaField struct {
	MediaIDs []string `json:"media_ids"`
}

type createPostResponse struct {
	Data struct {
		ID   string `json:"id"`
		Text string `json:"text"`
	} `json:"data"`
}

// CreatePost publishes text, optionally as a reply to replyTo and with the
// given uploaded media attached, and returns the new post id.
func (c *Client) CreatePost(ctx context.Context, text string, replyTo model.PostID, mediaIDs []string) (model.PostID, error) {
	payload := createPostRequest{Text: text}
	if replyTo != "" {
		payload.Reply = &replyField{InReplyToTweetID: string(replyTo)}
	}
	if len(mediaIDs) > 0 {
		payload.Media = &mediaField{MediaIDs: mediaIDs}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", errors.Wrap(err, "marshal post request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiBase+createPostPath, bytes.NewReader(body))
	if err != nil {
		return "", errors.Wrap(err, "create request")
	}
	req.Header.Set("Content-Type", "application/json")

	var out createPostResponse
	if err := c.do(req, &out); err != nil {
		return "", err
	}
	if out.Data.ID == "" {
		return "", errors.New("post response carried no id")
	}

	apiLogger.Debug().Str("post_id", out.Data.ID).Str("reply_to", string(replyTo)).Msg("Post created")
	return model.PostID(out.Data.ID), nil
}

type uploadResponse struct {
	MediaID       int64  `json:"media_id"`
	MediaIDString string `json:"media_id_string"`
}

// UploadMedia sends the file at path as a simple (non-chunked) media upload
// and returns the media id to attach to a post.
func (c *Client) UploadMedia(ctx context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", errors.Wrapf(err, "open %s", path)
	}
	defer f.Close()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("media", filepath.Base(path))
	if err != nil {
		return "", errors.Wrap(err, "create multipart field")
	}
	if _, err := io.Copy(part, f); err != nil {
		return "", errors.Wrapf(err, "read %s", path)
	}
	if err := mw.Close(); err != nil {
		return "", errors.Wrap(err, "finish multipart body")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.uploadBase+mediaUploadPath, &buf)
	if err != nil {
		return "", errors.Wrap(err, "create request")
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var out uploadResponse
	if err := c.do(req, &out); err != nil {
		return "", err
	}

	id := out.MediaIDString
	if id == "" && out.MediaID != 0 {
		id = fmt.Sprintf("%d", out.MediaID)
	}
	if id == "" {
		return "", errors.New("upload response carried no media id")
	}

	apiLogger.Debug().Str("media_id", id).Str("path", path).Msg("Media uploaded")
	return id, nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrapf(err, "%s %s", req.Method, req.URL.Path)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &APIError{StatusCode: resp.StatusCode, Message: errorMessage(data)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(err, "decode response")
	}
	return nil
}
