package upload

import "time"

type Kind string

const (
	KindProfileImage         Kind = "profile_image"
	KindDriverImage          Kind = "driver_image"
	KindCompanyLogo          Kind = "company_logo"
	KindVerificationDocument Kind = "verification_document"
)

// Policy is the size cap and content allow-list of one upload kind.
// Private kinds are never exposed under StaticURLBase.
type Policy struct {
	MaxSize int64
	Allowed map[string]bool
	Private bool
}

var policies = map[Kind]Policy{
	KindProfileImage: {
		MaxSize: 2 << 20,
		Allowed: map[string]bool{"image/jpeg": true, "image/png": true, "image/webp": true},
	},
	KindDriverImage: {
		MaxSize: 2 << 20,
		Allowed: map[string]bool{"image/jpeg": true, "image/png": true, "image/webp": true},
	},
	KindCompanyLogo: {
		MaxSize: 5 << 20,
		Allowed: map[string]bool{"image/jpeg": true, "image/png": true, "image/webp": true, "image/svg+xml": true},
	},
	KindVerificationDocument: {
		MaxSize: 7 << 20,
		Allowed: map[string]bool{"application/pdf": true, "image/jpeg": true, "image/png": true},
		Private: true,
	},
}

func PolicyFor(k Kind) (Policy, bool) {
	p, ok := policies[k]
	return p, ok
}

// Upload is a file stored on the local filesystem.
type Upload struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	OwnerID   int64     `gorm:"not null;index" json:"ownerId"`
	Kind      Kind      `gorm:"size:32;not null" json:"kind"`
	Filename  string    `gorm:"size:255;not null" json:"filename"`
	MimeType  string    `gorm:"size:100;not null" json:"mimeType"`
	Size      int64     `gorm:"not null" json:"size"`
	Path      string    `gorm:"size:500;not null" json:"-"`
	URL       string    `gorm:"size:500;not null" json:"url"`
	CreatedAt time.Time `json:"createdAt"`
}

func (Upload) TableName() string { return "uploads" }
