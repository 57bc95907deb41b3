package utils

import (
	"path"
	"strings"
)

// ShortName extracts the last segment after "/" from an ARN or path.
// Returns the input unchanged if no "/" is found.
func ShortName(arn string) string {
	if parts := strings.Split(arn, "/"); len(parts) > 1 {
		return parts[len(parts)-1]
	}
	return arn
}

// BaseNameNoExt returns the last path segment of an object key without its extension.
func BaseNameNoExt(key string) string {
	base := path.Base(key)
	if base == "." || base == "/" {
		return ""
	}
	return strings.TrimSuffix(base, path.Ext(base))
}
