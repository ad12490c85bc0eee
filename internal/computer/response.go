package computer

import "encoding/json"

// Block types.
const (
	BlockText  = "text"
	BlockImage = "image"
)

// Block is one piece of tool output: either text or a base64 image.
type Block struct {
	Type     string `json:"type"`
	Text     string `json:"text,omitempty"`
	Data     string `json:"data,omitempty"`
	MimeType string `json:"mimeType,omitempty"`
}

// Response is the ordered list of blocks returned for one request.
type Response []Block

// TextBlock builds a text block.
func TextBlock(text string) Block {
	return Block{Type: BlockText, Text: text}
}

// ImageBlock builds an image block from an already base64-encoded payload.
func ImageBlock(data, mimeType string) Block {
	return Block{Type: BlockImage, Data: data, MimeType: mimeType}
}

// JSONBlock builds a text block carrying v encoded as JSON.
func JSONBlock(v any) (Block, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return Block{}, err
	}
	return TextBlock(string(data)), nil
}
