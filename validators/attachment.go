package validators

import (
	"strings"
)

// AcceptedFormats lists the attachment formats shown to the user on rejection
const AcceptedFormats = "JPEG, JPG, PNG"

var allowedExtensions = map[string]string{
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
}

// extension returns the lowercased text after the final dot, or "" if there is none
func extension(fileName string) string {
	idx := strings.LastIndex(fileName, ".")
	if idx < 0 || idx == len(fileName)-1 {
		return ""
	}
	return strings.ToLower(fileName[idx+1:])
}

// ValidateExtension reports whether fileName ends in .jpg, .jpeg or .png (any case)
func ValidateExtension(fileName string) bool {
	_, ok := allowedExtensions[extension(fileName)]
	return ok
}

// ContentTypeFor returns the image MIME type for an accepted file name,
// or application/octet-stream for anything else
func ContentTypeFor(fileName string) string {
	if ct, ok := allowedExtensions[extension(fileName)]; ok {
		return ct
	}
	return "application/octet-stream"
}
