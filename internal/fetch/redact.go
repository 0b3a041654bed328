package fetch

import "net/url"

// RedactURL keeps only scheme and host so tokens in paths or query strings
// never reach the logs.
//
//	https://example.com/path/private.ics?token=abcd -> https://example.com/...(redacted)
func RedactURL(raw string) string {
	const redactedSuffix = "/...(redacted)"

	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "url://...(redacted)"
	}
	return u.Scheme + "://" + u.Host + redactedSuffix
}
