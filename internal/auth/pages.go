package auth

import (
	"fmt"
	"html"
	"net/http"

	"github.com/markb/driveshelf/internal/log"
)

const successPage = `<!DOCTYPE html>
<html>
<head>
    <title>Signed in</title>
    <meta charset="utf-8">
    <style>
        body { font-family: sans-serif; margin: 40px; text-align: center; }
        .message { max-width: 480px; margin: 40px auto; padding: 20px; border-radius: 5px;
                   background-color: #e7f6e7; border: 1px solid #b3e6b3; color: #006600; }
    </style>
</head>
<body>
    <h1>Signed in to Google</h1>
    <div class="message"><p>You can close this window and return to driveshelf.</p></div>
    <script>setTimeout(function () { window.close(); }, 2000);</script>
</body>
</html>`

const failurePage = `<!DOCTYPE html>
<html>
<head>
    <title>Sign-in failed</title>
    <meta charset="utf-8">
    <style>
        body { font-family: sans-serif; margin: 40px; text-align: center; }
        .message { max-width: 480px; margin: 40px auto; padding: 20px; border-radius: 5px;
                   background-color: #ffe7e7; border: 1px solid #ffb3b3; color: #cc0000; }
    </style>
</head>
<body>
    <h1>Sign-in failed</h1>
    <div class="message"><p>%s</p></div>
</body>
</html>`

func setSecurityHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("X-Frame-Options", "DENY")
	w.Header().Set("Referrer-Policy", "no-referrer")
	w.Header().Set("Content-Security-Policy", "default-src 'none'; style-src 'unsafe-inline'; script-src 'unsafe-inline'")
}

func writeSuccessPage(w http.ResponseWriter) {
	setSecurityHeaders(w)
	if _, err := w.Write([]byte(successPage)); err != nil {
		log.Warn("failed to write success page", "error", err)
	}
}

func writeFailurePage(w http.ResponseWriter, msg string) {
	setSecurityHeaders(w)
	w.WriteHeader(http.StatusBadRequest)
	page := []byte(fmt.Sprintf(failurePage, html.EscapeString(msg)))
	if _, err := w.Write(page); err != nil {
		log.Warn("failed to write failure page", "error", err)
	}
}
