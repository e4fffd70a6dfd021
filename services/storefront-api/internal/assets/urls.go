package assets

import (
	"net/url"
	"strconv"
	"strings"
)

// URLBuilder turns a stored asset reference into a public URL.
type URLBuilder struct {
	BaseURL string
}

func (b URLBuilder) URL(key string) string {
	key = strings.TrimLeft(strings.TrimSpace(key), "/")
	if key == "" {
		return ""
	}
	// keys that are already absolute pass through untouched
	if strings.HasPrefix(key, "http://") || strings.HasPrefix(key, "https://") {
		return key
	}
	parts := strings.Split(key, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.TrimRight(b.BaseURL, "/") + "/" + strings.Join(parts, "/")
}

// Sized appends a width hint understood by the image CDN.
func (b URLBuilder) Sized(key string, width int) string {
	u := b.URL(key)
	if u == "" || width <= 0 {
		return u
	}
	sep := "?"
	if strings.Contains(u, "?") {
		sep = "&"
	}
	return u + sep + "w=" + strconv.Itoa(width)
}
