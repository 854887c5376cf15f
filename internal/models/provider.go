package models

// ProviderMessage is the request-scoped shape a stored message is flattened
// into before it is sent to the completion provider. It is never persisted.
type ProviderMessage struct {
	Role    string        `json:"role"`
	Content []ContentPart `json:"content"`
}

type ContentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageRef `json:"image_url,omitempty"`
	File     *FileRef  `json:"file,omitempty"`
}

type ImageRef struct {
	URL string `json:"url"`
}

type FileRef struct {
	Filename string `json:"filename"`
	FileData string `json:"file_data"`
}

const (
	PartTypeText  = "text"
	PartTypeImage = "image_url"
	PartTypeFile  = "file"
)
