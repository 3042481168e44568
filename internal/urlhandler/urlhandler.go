package urlhandler

import (
	"errors"
	"fmt"
	"net/url"
	"path"
	"regexp"
	"strings"
)

// Regex for cleaning filenames
var (
	unsafeFilenameCharsRegex = regexp.MustCompile(`[^a-zA-Z0-9_.-]+`)
	multipleUnderscoresRegex = regexp.MustCompile(`_+`)
)

// NormalizeURL normalizes a URL string, ensuring it has a scheme, lowercase host, and no fragment.
func NormalizeURL(rawURL string) (string, error) {
	trimmedURL := strings.TrimSpace(rawURL)
	if trimmedURL == "" {
		return "", errors.New("URL is empty or only whitespace")
	}

	// Add scheme if missing
	if !strings.Contains(trimmedURL, "://") && !strings.HasPrefix(trimmedURL, "//") {
		trimmedURL = "http://" + trimmedURL
	}

	parsedURL, err := url.Parse(trimmedURL)
	if err != nil {
		return "", fmt.Errorf("could not parse URL '%s': %w", trimmedURL, err)
	}

	if parsedURL.Host == "" {
		return "", errors.New("URL lacks a valid hostname")
	}

	parsedURL.Fragment = ""
	parsedURL.Host = strings.ToLower(parsedURL.Host)

	return parsedURL.String(), nil
}

// ValidateURLFormat validates URL format using net/url parsing (for config validation)
func ValidateURLFormat(rawURL string) error {
	trimmedURL := strings.TrimSpace(rawURL)
	if trimmedURL == "" {
		return fmt.Errorf("URL is empty")
	}

	_, err := url.ParseRequestURI(trimmedURL)
	if err != nil {
		return fmt.Errorf("invalid URL format '%s': %w", trimmedURL, err)
	}

	return nil
}

// ExtractHostnameWithPort extracts hostname:port from a URL string.
// For URLs without explicit port, it returns hostname:default_port (80 for http, 443 for https).
func ExtractHostnameWithPort(urlString string) (string, error) {
	if strings.TrimSpace(urlString) == "" {
		return "", fmt.Errorf("URL string is empty")
	}

	parsedURL, err := url.Parse(urlString)
	if err != nil {
		return "", fmt.Errorf("could not parse URL '%s': %w", urlString, err)
	}

	hostname := parsedURL.Hostname()
	if hostname == "" {
		return "", fmt.Errorf("URL has no hostname component: %s", urlString)
	}

	port := parsedURL.Port()
	if port == "" {
		switch strings.ToLower(parsedURL.Scheme) {
		case "https":
			port = "443"
		default:
			port = "80"
		}
	}

	return strings.ToLower(strings.TrimSpace(hostname)) + ":" + port, nil
}

// SanitizeHostnamePort creates a safe filename string from hostname:port format.
// It specifically handles the colon character by replacing it with an underscore.
func SanitizeHostnamePort(hostnamePort string) string {
	return strings.ReplaceAll(hostnamePort, ":", "_")
}

// SanitizeFilename creates a safe filename string from a URL or any input string.
// It removes the protocol, replaces unsafe characters with underscores, and cleans up underscores.
func SanitizeFilename(input string) string {
	name := input
	if i := strings.Index(name, "://"); i != -1 {
		name = name[i+3:]
	}

	name = unsafeFilenameCharsRegex.ReplaceAllString(name, "_")
	name = multipleUnderscoresRegex.ReplaceAllString(name, "_")
	name = strings.Trim(name, "_")

	if name == "" {
		return "sanitized_empty_input"
	}

	return name
}

// SourceIdentity derives the logical identity of a monitored URL: the trailing
// path segment with its extension stripped, sanitized for filesystem use.
// A URL without a usable path segment falls back to its sanitized hostname.
func SourceIdentity(rawURL string) string {
	parsedURL, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return SanitizeFilename(rawURL)
	}

	base := path.Base(parsedURL.Path)
	if base == "." || base == "/" || base == "" {
		return SanitizeFilename(parsedURL.Hostname())
	}

	if ext := path.Ext(base); ext != "" {
		base = strings.TrimSuffix(base, ext)
	}

	return SanitizeFilename(base)
}

// SourceExtension returns the extension of the URL's trailing path segment
// (including the leading dot), or the empty string if there is none.
func SourceExtension(rawURL string) string {
	parsedURL, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return ""
	}
	return path.Ext(path.Base(parsedURL.Path))
}
