package services

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/soundmatch/internal/models"
	"github.com/desertthunder/soundmatch/internal/shared"
)

const acrIdentifyPath = "/v1/identify"

// AudioExtensions lists the upload formats accepted for recognition.
var AudioExtensions = []string{".mp3", ".wav", ".m4a", ".flac"}

// Recognition is what the fingerprint service reports for a sample.
type Recognition struct {
	Title       string `json:"title"`
	Artist      string `json:"artist"`
	Album       string `json:"album"`
	ReleaseDate string `json:"release_date"`
}

// Recognizer identifies a song from an audio sample.
type Recognizer interface {
	Recognize(ctx context.Context, filename string, audio []byte) (*Recognition, error)
}

type acrResponse struct {
	Status struct {
		Code int    `json:"code"`
		Msg  string `json:"msg"`
	} `json:"status"`
	Metadata struct {
		Music []struct {
			Title   string `json:"title"`
			Artists []struct {
				Name string `json:"name"`
			} `json:"artists"`
			Album struct {
				Name string `json:"name"`
			} `json:"album"`
			ReleaseDate string `json:"release_date"`
		} `json:"music"`
	} `json:"metadata"`
}

// ACRCloud is a [Recognizer] backed by the ACRCloud identify endpoint.
type ACRCloud struct {
	client
	accessKey    string
	accessSecret string
	now          func() time.Time
}

// NewACRCloud creates a recognizer for host. opts.BaseURL overrides http://{host}.
func NewACRCloud(cfg shared.ACRCloudConfig, opts Options) *ACRCloud {
	return &ACRCloud{
		client:       newClient(models.Unknown, "http://"+cfg.Host, opts),
		accessKey:    cfg.AccessKey,
		accessSecret: cfg.AccessSecret,
		now:          time.Now,
	}
}

// SupportedAudio reports whether filename has an accepted extension.
func SupportedAudio(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, allowed := range AudioExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

// Sign returns the base64 HMAC-SHA1 request signature for timestamp.
func (a *ACRCloud) Sign(timestamp string) string {
	payload := strings.Join([]string{"POST", acrIdentifyPath, a.accessKey, "audio", "1", timestamp}, "\n")
	mac := hmac.New(sha1.New, []byte(a.accessSecret))
	mac.Write([]byte(payload))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func (a *ACRCloud) Recognize(ctx context.Context, filename string, audio []byte) (*Recognition, error) {
	if !SupportedAudio(filename) {
		return nil, fmt.Errorf("%w: %s", shared.ErrUnsupportedFormat, filepath.Ext(filename))
	}
	if a.accessKey == "" || a.accessSecret == "" {
		return nil, fmt.Errorf("%w: acrcloud access key", shared.ErrMissingCredentials)
	}
	if a.limiter != nil {
		if err := a.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: %v", shared.ErrRateLimited, err)
		}
	}

	timestamp := strconv.FormatInt(a.now().Unix(), 10)

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("sample", filepath.Base(filename))
	if err != nil {
		return nil, fmt.Errorf("failed to build form: %w", err)
	}
	if _, err := part.Write(audio); err != nil {
		return nil, fmt.Errorf("failed to build form: %w", err)
	}

	fields := [][2]string{
		{"access_key", a.accessKey},
		{"sample_bytes", strconv.Itoa(len(audio))},
		{"timestamp", timestamp},
		{"signature", a.Sign(timestamp)},
		{"data_type", "audio"},
		{"signature_version", "1"},
	}
	for _, f := range fields {
		if err := w.WriteField(f[0], f[1]); err != nil {
			return nil, fmt.Errorf("failed to build form: %w", err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to build form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+acrIdentifyPath, &body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: acrcloud API error: status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	var result acrResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if result.Status.Code != 0 || len(result.Metadata.Music) == 0 {
		return nil, fmt.Errorf("%w: %s (code %d)", shared.ErrRecognitionFailed, result.Status.Msg, result.Status.Code)
	}

	music := result.Metadata.Music[0]
	rec := &Recognition{Title: music.Title, Album: music.Album.Name, ReleaseDate: music.ReleaseDate}
	if len(music.Artists) > 0 {
		rec.Artist = music.Artists[0].Name
	}
	return rec, nil
}
