// Bilibili REST API implementation of [CollectionService]
//
// Endpoint shapes follow the public web API under api.bilibili.com.
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/favsync/internal/shared"
	"golang.org/x/time/rate"
)

const (
	defaultBaseURL = "https://api.bilibili.com"
	pageSize       = 20

	// media type 2 is a plain video; other types (audio, articles) are
	// skipped during listing.
	mediaTypeVideo = 2

	codeOK          = 0
	codeNeedLogin   = -403
	fnvalDash       = 16
	downloadBufSize = 32 * 1024
)

// apiResponse is the envelope every bilibili endpoint wraps its payload in.
type apiResponse struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type folderInfo struct {
	ID         int64  `json:"id"`
	Title      string `json:"title"`
	MediaCount int    `json:"media_count"`
	Upper      *struct {
		Name string `json:"name"`
	} `json:"upper"`
}

type mediaUpper struct {
	Name string `json:"name"`
}

type media struct {
	Type     int        `json:"type"`
	BVID     string     `json:"bvid"`
	Title    string     `json:"title"`
	Upper    mediaUpper `json:"upper"`
	Duration int        `json:"duration"`
	Pubtime  int64      `json:"pubtime"`
}

type resourceList struct {
	Medias  []media `json:"medias"`
	HasMore bool    `json:"has_more"`
}

type viewPage struct {
	CID int64 `json:"cid"`
}

type viewInfo struct {
	Pages []viewPage `json:"pages"`
}

type dashStream struct {
	BaseURL string `json:"baseUrl"`
}

type playInfo struct {
	Quality int `json:"quality"`
	Dash    *struct {
		Video []dashStream `json:"video"`
		Audio []dashStream `json:"audio"`
	} `json:"dash"`
	Durl []struct {
		URL string `json:"url"`
	} `json:"durl"`
}

// BilibiliService implements [CollectionService] against the bilibili web API.
// All requests carry the same explicitly constructed header set; page
// listing is paced by a token bucket so pagination never hammers the API.
type BilibiliService struct {
	baseURL    string
	httpClient *http.Client
	// large media transfers get a client without an overall deadline;
	// cancellation comes from the request context instead
	downloadClient *http.Client
	headers        map[string]string
	pageLimiter    *rate.Limiter
	logger         *log.Logger
}

// NewBilibiliService creates a service from API configuration. A zero page
// delay disables pacing.
func NewBilibiliService(cfg shared.APIConfig, pageDelay time.Duration, logger *log.Logger) *BilibiliService {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	headers := map[string]string{
		"User-Agent": cfg.UserAgent,
		"Referer":    cfg.Referer,
	}
	if cfg.Cookie != "" {
		headers["Cookie"] = cfg.Cookie
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if pageDelay > 0 {
		limiter = rate.NewLimiter(rate.Every(pageDelay), 1)
	}

	return &BilibiliService{
		baseURL:        baseURL,
		httpClient:     &http.Client{Timeout: 30 * time.Second},
		downloadClient: &http.Client{},
		headers:        headers,
		pageLimiter:    limiter,
		logger:         logger,
	}
}

func (s *BilibiliService) Name() string {
	return "bilibili"
}

// doRequest performs a GET against the API and decodes the response envelope.
// Non-zero API codes are reported as errors wrapping [shared.ErrAPIRequest],
// with -403 additionally wrapping [shared.ErrCollectionPrivate].
func (s *BilibiliService) doRequest(ctx context.Context, endpoint string, params url.Values, result interface{}) error {
	apiURL := s.baseURL + endpoint + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	for k, v := range s.headers {
		req.Header.Set(k, v)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: status %d for %s", shared.ErrAPIRequest, resp.StatusCode, endpoint)
	}

	var envelope apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	if envelope.Code != codeOK {
		if envelope.Code == codeNeedLogin {
			return fmt.Errorf("%w: %s", shared.ErrCollectionPrivate, envelope.Message)
		}
		return fmt.Errorf("%w: code %d: %s", shared.ErrAPIRequest, envelope.Code, envelope.Message)
	}

	if result != nil {
		if err := json.Unmarshal(envelope.Data, result); err != nil {
			return fmt.Errorf("failed to decode response payload: %w", err)
		}
	}

	return nil
}

// CollectionInfo retrieves a collection's metadata.
// Returns (nil, nil) when the collection does not exist or is inaccessible.
func (s *BilibiliService) CollectionInfo(ctx context.Context, collectionID string) (*CollectionInfo, error) {
	params := url.Values{}
	params.Set("media_id", collectionID)

	var info folderInfo
	if err := s.doRequest(ctx, "/x/v3/fav/folder/info", params, &info); err != nil {
		s.logger.Warn("failed to fetch collection info", "collection", collectionID, "err", err)
		return nil, nil
	}

	upper := "Unknown"
	if info.Upper != nil && info.Upper.Name != "" {
		upper = info.Upper.Name
	}

	return &CollectionInfo{
		ID:         collectionID,
		Title:      info.Title,
		MediaCount: info.MediaCount,
		Upper:      upper,
	}, nil
}

// CollectionItems retrieves the full membership of a collection, one page at
// a time. Listing stops on the first empty page. A service error mid-listing
// sets the Partial flag and returns everything accumulated so far.
func (s *BilibiliService) CollectionItems(ctx context.Context, collectionID string) (*Snapshot, error) {
	snapshot := &Snapshot{}

	for page := 1; ; page++ {
		if err := s.pageLimiter.Wait(ctx); err != nil {
			return snapshot, err
		}

		params := url.Values{}
		params.Set("media_id", collectionID)
		params.Set("pn", fmt.Sprintf("%d", page))
		params.Set("ps", fmt.Sprintf("%d", pageSize))
		params.Set("keyword", "")
		params.Set("order", "mtime")
		params.Set("type", "0")
		params.Set("tid", "0")
		params.Set("platform", "web")

		var list resourceList
		if err := s.doRequest(ctx, "/x/v3/fav/resource/list", params, &list); err != nil {
			s.logger.Warn("listing aborted", "collection", collectionID, "page", page, "err", err)
			snapshot.Partial = true
			return snapshot, nil
		}

		if len(list.Medias) == 0 {
			break
		}

		for _, m := range list.Medias {
			if m.Type != mediaTypeVideo {
				continue
			}
			snapshot.Items = append(snapshot.Items, RemoteItem{
				ItemID:   m.BVID,
				Title:    m.Title,
				Upper:    m.Upper.Name,
				Duration: m.Duration,
				Pubdate:  m.Pubtime,
			})
		}

		s.logger.Debug("fetched collection page", "page", page, "items", len(list.Medias))

		if !list.HasMore {
			break
		}
	}

	return snapshot, nil
}

// resolveCID looks up the item's first page cid via the view endpoint.
func (s *BilibiliService) resolveCID(ctx context.Context, itemID string) (int64, error) {
	params := url.Values{}
	params.Set("bvid", itemID)

	var view viewInfo
	if err := s.doRequest(ctx, "/x/web-interface/view", params, &view); err != nil {
		return 0, err
	}
	if len(view.Pages) == 0 {
		return 0, fmt.Errorf("%w: item %s has no pages", shared.ErrNoStreams, itemID)
	}
	return view.Pages[0].CID, nil
}

// StreamLocations resolves download URLs for an item. DASH streams carry
// separate video and audio URLs; the legacy durl format yields one combined
// URL with an empty AudioURL.
func (s *BilibiliService) StreamLocations(ctx context.Context, itemID string, quality int) (*StreamLocations, error) {
	cid, err := s.resolveCID(ctx, itemID)
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("bvid", itemID)
	params.Set("cid", fmt.Sprintf("%d", cid))
	params.Set("qn", fmt.Sprintf("%d", quality))
	params.Set("fnval", fmt.Sprintf("%d", fnvalDash))
	params.Set("fourk", "1")

	var play playInfo
	if err := s.doRequest(ctx, "/x/player/playurl", params, &play); err != nil {
		return nil, err
	}

	if play.Dash != nil {
		locations := &StreamLocations{Quality: play.Quality}
		if len(play.Dash.Video) > 0 {
			locations.VideoURL = play.Dash.Video[0].BaseURL
		}
		if len(play.Dash.Audio) > 0 {
			locations.AudioURL = play.Dash.Audio[0].BaseURL
		}
		if locations.VideoURL == "" && locations.AudioURL == "" {
			return nil, fmt.Errorf("%w: item %s", shared.ErrNoStreams, itemID)
		}
		return locations, nil
	}

	if len(play.Durl) > 0 && play.Durl[0].URL != "" {
		return &StreamLocations{
			VideoURL: play.Durl[0].URL,
			Quality:  play.Quality,
		}, nil
	}

	return nil, fmt.Errorf("%w: item %s", shared.ErrNoStreams, itemID)
}

// DownloadFile streams the resource at url to dest, carrying the session
// headers. A failed download removes the partial file.
func (s *BilibiliService) DownloadFile(ctx context.Context, rawURL, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	for k, v := range s.headers {
		req.Header.Set(k, v)
	}

	resp, err := s.downloadClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: status %d downloading %s", shared.ErrAPIRequest, resp.StatusCode, rawURL)
	}

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	buf := make([]byte, downloadBufSize)
	if _, err := io.CopyBuffer(out, resp.Body, buf); err != nil {
		out.Close()
		os.Remove(dest)
		return fmt.Errorf("download failed: %w", err)
	}

	if err := out.Close(); err != nil {
		os.Remove(dest)
		return fmt.Errorf("failed to close file: %w", err)
	}

	return nil
}

// ParseCollectionURL extracts the collection id from a favorites page URL,
// e.g. https://space.bilibili.com/123/favlist?fid=456 yields "456".
func ParseCollectionURL(rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}
	fid := parsed.Query().Get("fid")
	if fid == "" {
		return "", fmt.Errorf("%w: no fid parameter in %s", shared.ErrInvalidInput, rawURL)
	}
	return fid, nil
}
