package recruiting

import (
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultAPIURL = "http://localhost:8000"
	DefaultOrigin = "http://localhost:5173"
	userAgent     = "crb12546/recruit-sync"

	candidatesPath = "/api/candidates/"
	resumesPath    = "/api/resumes/"
	tagsPath       = "/api/tags/"
	projectsPath   = "/api/projects/"
	interviewsPath = "/api/interviews/"
)

// Client talks to the recruitment REST backend. It never retries.
type Client struct {
	logger     *zap.Logger
	HTTPClient *http.Client
	UserAgent  string
	APIURL     string
	Origin     string

	// now is used by the interview scheduling checks.
	now func() time.Time
	// allowText admits text/plain resumes next to PDF and Word.
	allowText bool
}

func New(logger *zap.Logger, apiURL string) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}

	apiURL = strings.TrimRight(strings.TrimSpace(apiURL), "/")
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}

	return &Client{
		logger: logger,
		APIURL: apiURL,
		Origin: DefaultOrigin,
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		UserAgent: userAgent,
		now:       time.Now,
		allowText: true,
	}
}

// SetClock replaces the clock used for "must be in the future" checks.
func (c *Client) SetClock(now func() time.Time) {
	if now != nil {
		c.now = now
	}
}

// AllowTextResumes toggles acceptance of text/plain uploads.
func (c *Client) AllowTextResumes(allow bool) {
	c.allowText = allow
}

func (c *Client) url(path string) string {
	return c.APIURL + path
}
