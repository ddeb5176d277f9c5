package controllers

import (
	"net/http"

	"github.com/angelmondragon/ebookshop-backend/api/responses"
	"github.com/angelmondragon/ebookshop-backend/internal/locale"
)

type localeResponse struct {
	Lang      string            `json:"lang"`
	Supported []string          `json:"supported"`
	Strings   map[string]string `json:"strings"`
}

// Locale returns the dictionary resolved from ?lang= or Accept-Language.
func Locale() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dict := locale.FromRequest(r)
		supported := make([]string, 0, len(locale.Supported()))
		for _, tag := range locale.Supported() {
			supported = append(supported, tag.String())
		}
		w.Header().Set("Content-Language", dict.Lang())
		responses.WriteSuccess(w, localeResponse{
			Lang:      dict.Lang(),
			Supported: supported,
			Strings:   dict.All(),
		})
	}
}
