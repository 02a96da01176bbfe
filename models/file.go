package models

import "io"

// Attachment is a proof-of-expense file selected by the user
type Attachment struct {
	Name        string
	ContentType string
	Size        int64
	Content     io.Reader
}

// UploadResult identifies a stored attachment and the bill key reserved for it
type UploadResult struct {
	Key     string `json:"key"`
	FileURL string `json:"fileUrl"`
}
