package models

import "time"

// KYCDocument records an identity document uploaded to object storage.
type KYCDocument struct {
	ID           string
	UserID       string
	StorageKey   string
	DocumentType string
	CreatedAt    time.Time
}

// KYCUploadTask tells the client where to PUT the document bytes.
type KYCUploadTask struct {
	Key string
	URL string
}
