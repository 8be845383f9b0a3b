package model

import (
	"fmt"
	"strings"
)

// ConfigList is the wire envelope for the correlation config endpoint.
type ConfigList struct {
	Components []CorrelationConfig `json:"components"`
}

// ErrorBody is the JSON error returned by the admin gateway.
type ErrorBody struct {
	Code        int64  `json:"code"`
	Message     string `json:"message"`
	Description string `json:"description,omitempty"`
	MoreInfo    string `json:"moreInfo,omitempty"`
}

func (e *ErrorBody) Error() string {
	if e.Description == "" {
		return fmt.Sprintf("%d %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%d %s: %s", e.Code, e.Message, strings.TrimSpace(e.Description))
}

// ValidComponentsHint renders the catalog as shown in gateway errors.
func ValidComponentsHint() string {
	return "The valid component names : [" + strings.Join(ValidComponentNames(), ", ") + "]"
}
