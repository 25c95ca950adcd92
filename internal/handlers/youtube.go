package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const youtubeUploadURL = "https://www.googleapis.com/upload/youtube/v3/videos"

// YouTubeHandler proxies resumable uploads so the browser is not blocked by
// CORS on googleapis.com. "init" opens the upload session; "upload" streams
// the stored video file through to the session URL.
type YouTubeHandler struct {
	httpClient *http.Client
	log        *zap.Logger
}

func NewYouTubeHandler(log *zap.Logger) *YouTubeHandler {
	return &YouTubeHandler{
		// Large video transfers; no overall timeout beyond the server's.
		httpClient: &http.Client{Timeout: 10 * time.Minute},
		log:        log,
	}
}

type youtubeUploadRequest struct {
	Action      string          `json:"action"`
	VideoURL    string          `json:"videoUrl"`
	Metadata    json.RawMessage `json:"metadata"`
	UploadURL   string          `json:"uploadUrl"`
	AccessToken string          `json:"accessToken"`
}

func (y *YouTubeHandler) Upload(c *gin.Context) {
	var req youtubeUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid request body",
		})
		return
	}

	switch req.Action {
	case "init":
		y.initUpload(c, req)
	case "upload":
		y.streamUpload(c, req)
	default:
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "Invalid action",
		})
	}
}

func (y *YouTubeHandler) initUpload(c *gin.Context, req youtubeUploadRequest) {
	params := url.Values{
		"uploadType":   {"resumable"},
		"part":         {"snippet,status"},
		"access_token": {req.AccessToken},
	}
	httpReq, err := http.NewRequestWithContext(c.Request.Context(), http.MethodPost,
		youtubeUploadURL+"?"+params.Encode(), bytes.NewReader(req.Metadata))
	if err != nil {
		y.fail(c, err)
		return
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Upload-Content-Type", "video/*")

	resp, err := y.httpClient.Do(httpReq)
	if err != nil {
		y.fail(c, err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		y.fail(c, fmt.Errorf("youtube init failed: %d %s", resp.StatusCode, body))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"uploadUrl": resp.Header.Get("Location"),
	})
}

func (y *YouTubeHandler) streamUpload(c *gin.Context, req youtubeUploadRequest) {
	ctx := c.Request.Context()

	videoResp, err := y.httpClient.Get(req.VideoURL)
	if err != nil {
		y.fail(c, err)
		return
	}
	defer videoResp.Body.Close()
	if videoResp.StatusCode != http.StatusOK {
		y.fail(c, fmt.Errorf("fetch video failed: %d", videoResp.StatusCode))
		return
	}

	y.log.Info("streaming video to youtube",
		zap.Int64("content_length", videoResp.ContentLength))

	putReq, err := http.NewRequestWithContext(ctx, http.MethodPut, req.UploadURL, videoResp.Body)
	if err != nil {
		y.fail(c, err)
		return
	}
	putReq.Header.Set("Content-Type", "video/*")
	putReq.ContentLength = videoResp.ContentLength

	uploadResp, err := y.httpClient.Do(putReq)
	if err != nil {
		y.fail(c, err)
		return
	}
	defer uploadResp.Body.Close()

	body, err := io.ReadAll(uploadResp.Body)
	if err != nil {
		y.fail(c, err)
		return
	}
	if uploadResp.StatusCode < 200 || uploadResp.StatusCode >= 300 {
		y.fail(c, fmt.Errorf("youtube upload failed: %d %s", uploadResp.StatusCode, body))
		return
	}

	var uploaded struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &uploaded); err != nil {
		y.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"videoId":  uploaded.ID,
		"videoUrl": "https://www.youtube.com/watch?v=" + uploaded.ID,
	})
}

func (y *YouTubeHandler) fail(c *gin.Context, err error) {
	y.log.Error("youtube upload error", zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{
		"success": false,
		"error":   err.Error(),
	})
}
