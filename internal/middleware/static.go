package middleware

import (
	"net/http"
	"os"
	"path/filepath"
)

const defaultAvatarSVG = `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 200 200"><rect width="200" height="200" fill="#f0f0f0"/><circle cx="100" cy="78" r="38" fill="#999"/><path d="M36 176c8-34 34-52 64-52s56 18 64 52z" fill="#999"/></svg>`

// AvatarServer serves profile images from dir and falls back to a generic
// silhouette when the file is missing.
func AvatarServer(dir string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := filepath.Join(dir, filepath.Clean("/"+r.URL.Path))

		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			w.Header().Set("Cache-Control", "public, max-age=2592000")
			http.ServeFile(w, r, path)
			return
		}

		w.Header().Set("Content-Type", "image/svg+xml")
		w.Header().Set("Cache-Control", "public, max-age=86400")
		w.Write([]byte(defaultAvatarSVG))
	})
}
