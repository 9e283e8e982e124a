package model

const (
	AssetKindAudio = "audio"
	AssetKindImage = "image"
)

// Asset is an uploaded file attached to a session, stored through the
// configured storage provider.
type Asset struct {
	BaseModel
	SessionID   *uint    `gorm:"index" json:"sessionId,omitempty"`
	Kind        string   `gorm:"size:20;not null" json:"kind"`
	ObjectKey   string   `gorm:"size:512;not null" json:"objectKey"`
	ContentType string   `gorm:"size:100" json:"contentType"`
	SizeBytes   int64    `json:"sizeBytes"`
	URL         string   `gorm:"size:1024" json:"url"`
	Ts          *float64 `json:"ts,omitempty"`
}
