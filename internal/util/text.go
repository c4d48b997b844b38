package util

import "unicode/utf8"

// PushBodyLimit is the maximum number of characters a push notification
// body may carry before truncation.
const PushBodyLimit = 50

// TruncatePushBody shortens a message body for push notification display.
// Bodies longer than PushBodyLimit characters are cut and suffixed with
// "...". Counts runes, not bytes, so multibyte text truncates cleanly.
func TruncatePushBody(body string) string {
	if utf8.RuneCountInString(body) <= PushBodyLimit {
		return body
	}
	runes := []rune(body)
	return string(runes[:PushBodyLimit]) + "..."
}
