package utils

import (
	"net/url"
	"path"
	"regexp"
	"strings"
)

var (
	// Characters invalid in filenames on most filesystems
	invalidFilenameChars = regexp.MustCompile(`[<>:"/\\|?*]`)
	// Whitespace characters to normalize
	whitespaceChars = regexp.MustCompile(`[\r\n\t]`)
	// Multiple spaces to collapse
	multipleSpaces = regexp.MustCompile(`\s+`)
)

// SanitizeFilename makes a title or key safe to use as a file name. It drops
// path separators and other characters rejected by common filesystems.
func SanitizeFilename(filename string) string {
	filename = invalidFilenameChars.ReplaceAllString(filename, "")
	filename = whitespaceChars.ReplaceAllString(filename, " ")
	filename = multipleSpaces.ReplaceAllString(filename, " ")
	filename = strings.TrimSpace(filename)

	// Leading dots would hide the file or walk up the tree.
	filename = strings.TrimLeft(filename, ".")
	filename = strings.TrimSpace(filename)

	// Limit length (most filesystems support 255, but leave room for extension)
	if len(filename) > 200 {
		filename = strings.TrimSpace(filename[:200])
	}

	if filename == "" {
		filename = "Untitled"
	}

	return filename
}

// DocumentFilename picks a file name for a downloaded document. The title
// wins when present, otherwise the last segment of the document URL is
// used. The result always ends in ext.
func DocumentFilename(title, documentURL, ext string) string {
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}

	name := strings.TrimSpace(title)
	if name == "" {
		if u, err := url.Parse(documentURL); err == nil {
			base := path.Base(u.Path)
			if base != "." && base != "/" {
				name = strings.TrimSuffix(base, path.Ext(base))
			}
		}
	}

	name = SanitizeFilename(name)
	if strings.HasSuffix(strings.ToLower(name), strings.ToLower(ext)) {
		return name
	}
	return name + ext
}
