package usecase

import (
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// genericContentTypes carry no information about the payload; storage falls
// back to them when the uploader set nothing.
var genericContentTypes = []string{
	"application/octet-stream",
	"binary/octet-stream",
}

// resolveContentType keeps a specific type hint and sniffs the staged file
// when the hint is missing or generic.
func resolveContentType(hint, path string) string {
	media := strings.ToLower(strings.TrimSpace(hint))
	if media != "" {
		generic := false
		for _, g := range genericContentTypes {
			if strings.HasPrefix(media, g) {
				generic = true
				break
			}
		}
		if !generic {
			return hint
		}
	}
	detected, err := mimetype.DetectFile(path)
	if err != nil {
		return hint
	}
	return detected.String()
}
