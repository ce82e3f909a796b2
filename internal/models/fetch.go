package models

import "time"

type StatusClass string

const (
	StatusSuccess      StatusClass = "success"
	StatusClientError  StatusClass = "client-error"
	StatusServerError  StatusClass = "server-error"
	StatusNetworkError StatusClass = "network-error"
)

// ClassifyStatus buckets an HTTP status code.
func ClassifyStatus(code int) StatusClass {
	switch {
	case code <= 0:
		return StatusNetworkError
	case code >= 500:
		return StatusServerError
	case code >= 400:
		return StatusClientError
	default:
		return StatusSuccess
	}
}

// FetchResult is the outcome of one HTTP exchange.
type FetchResult struct {
	RequestURL  string
	FinalURL    string
	Status      StatusClass
	StatusCode  int
	ContentType string
	Body        []byte
	Elapsed     time.Duration
}

// OK reports whether the response carried a 2xx/3xx status.
func (r FetchResult) OK() bool {
	return r.Status == StatusSuccess
}

type SiteType string

const (
	SitePlatformAPI    SiteType = "platform-api"
	SitePlatformMarkup SiteType = "platform-markup"
	SiteScriptRendered SiteType = "script-rendered"
	SiteGenericMarkup  SiteType = "generic-markup"
	SiteUnknown        SiteType = "unknown"
)
