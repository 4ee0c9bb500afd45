package handlers

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/skip2/go-qrcode"

	"github.com/aaronzipp/impostor/internal/game"
)

const qrSize = 320 // mobile-friendly size

// joinURL is the link players open to join lobbyID
func (ctx *Context) joinURL(r *http.Request, lobbyID string) string {
	base := strings.TrimSuffix(ctx.BaseURL, "/")
	if base == "" {
		// Derive scheme (respecting TLS and X-Forwarded-Proto if present).
		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
			scheme = proto
		}
		base = scheme + "://" + r.Host
	}
	return base + "/?lobby=" + url.QueryEscape(lobbyID)
}

// HandleQRCode renders the lobby's join link as a PNG QR code
func (ctx *Context) HandleQRCode(w http.ResponseWriter, r *http.Request) {
	lobbyID := lobbyIDParam(r)
	if !game.ValidCode(lobbyID) {
		http.NotFound(w, r)
		return
	}

	png, err := qrcode.Encode(ctx.joinURL(r, lobbyID), qrcode.Medium, qrSize)
	if err != nil {
		http.Error(w, "qr generation failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(png)
}
