package admin

import "codeberg.org/dishdash/server/internal/errors"

// CatalogEntry is one taxonomy code as exposed to operators
type CatalogEntry struct {
	Code            errors.Code `json:"code"`
	Category        string      `json:"category"`
	HTTPStatus      int         `json:"httpStatus"`
	Message         string      `json:"message"`
	SuggestedAction string      `json:"suggestedAction"`
}

type CatalogResponse struct {
	Errors []CatalogEntry `json:"errors"`
}

// LimiterInfo describes a registered rate limiter
type LimiterInfo struct {
	Name          string      `json:"name"`
	WindowSeconds float64     `json:"windowSeconds"`
	Max           int64       `json:"max"`
	Code          errors.Code `json:"code"`
	SkipSuccess   bool        `json:"skipSuccessful"`
	SkipFailed    bool        `json:"skipFailed"`
}

type LimitersResponse struct {
	Limiters []LimiterInfo `json:"limiters"`
}
