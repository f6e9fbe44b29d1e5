package auth

import (
	"fmt"
	"io"
	"strings"
)

// WriteCookieGuide prints how to copy the session cookies from a browser.
// The short form is a single hint line.
func WriteCookieGuide(w io.Writer, short bool) {
	if short {
		fmt.Fprintln(w, "Cookies: F12 → Application (Storage) → Cookies → https://www.instagram.com → copy sessionid and csrftoken")
		return
	}

	rule := strings.Repeat("=", 72)
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, "INSTAGRAM SESSION COOKIES")
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "igvision works anonymously for public profiles. Logging in raises")
	fmt.Fprintln(w, "Instagram's limits and exposes posts the session can see.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "1. Log in at https://www.instagram.com in your browser")
	fmt.Fprintln(w, "2. Open the developer tools (F12, or Cmd+Option+I on macOS)")
	fmt.Fprintln(w, "3. Open Application (Chrome, Edge) or Storage (Firefox)")
	fmt.Fprintln(w, "4. Expand Cookies and select https://www.instagram.com")
	fmt.Fprintln(w, "5. Copy the values of:")
	fmt.Fprintln(w, "     sessionid   long string containing %3A")
	fmt.Fprintln(w, "     csrftoken   32 characters")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Copy only the value, without quotes or semicolons. Cookies expire and")
	fmt.Fprintln(w, "grant full access to the account: never share them.")
	fmt.Fprintln(w, rule)
}
