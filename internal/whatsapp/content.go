package whatsapp

import "strings"

// Message types stored alongside content.
const (
	TypeText     = "text"
	TypeImage    = "image"
	TypeVideo    = "video"
	TypeAudio    = "audio"
	TypeDocument = "document"
	TypeSticker  = "sticker"
	TypeUnknown  = "unknown"
)

// UnsupportedContent is stored when no text or known media container is present.
const UnsupportedContent = "[Unsupported message format]"

// Content is the nested `message` object of a provider message.
type Content struct {
	Conversation        string        `json:"conversation,omitempty"`
	ExtendedTextMessage *ExtendedText `json:"extendedTextMessage,omitempty"`
	ImageMessage        *Media        `json:"imageMessage,omitempty"`
	VideoMessage        *Media        `json:"videoMessage,omitempty"`
	AudioMessage        *Media        `json:"audioMessage,omitempty"`
	DocumentMessage     *Media        `json:"documentMessage,omitempty"`
	StickerMessage      *Media        `json:"stickerMessage,omitempty"`
}

// ExtendedText carries text with link previews or quotes.
type ExtendedText struct {
	Text string `json:"text"`
}

// Media describes an attachment container.
type Media struct {
	Caption  string `json:"caption,omitempty"`
	Mimetype string `json:"mimetype,omitempty"`
	FileName string `json:"fileName,omitempty"`
	URL      string `json:"url,omitempty"`
	Seconds  int    `json:"seconds,omitempty"`
}

// MediaAttachment returns the first present media container in fixed order.
func (c *Content) MediaAttachment() (string, *Media, bool) {
	if c == nil {
		return "", nil, false
	}
	containers := []struct {
		kind  string
		media *Media
	}{
		{TypeImage, c.ImageMessage},
		{TypeVideo, c.VideoMessage},
		{TypeAudio, c.AudioMessage},
		{TypeDocument, c.DocumentMessage},
		{TypeSticker, c.StickerMessage},
	}
	for _, item := range containers {
		if item.media != nil {
			return item.kind, item.media, true
		}
	}
	return "", nil, false
}

// ExtractContent derives the stored text and message type.
// Text wins over media; media becomes a "[<type> message]" placeholder.
func ExtractContent(c *Content) (text string, messageType string) {
	if c == nil {
		return UnsupportedContent, TypeUnknown
	}
	if strings.TrimSpace(c.Conversation) != "" {
		return c.Conversation, TypeText
	}
	if c.ExtendedTextMessage != nil && strings.TrimSpace(c.ExtendedTextMessage.Text) != "" {
		return c.ExtendedTextMessage.Text, TypeText
	}
	if kind, _, ok := c.MediaAttachment(); ok {
		return "[" + kind + " message]", kind
	}
	return UnsupportedContent, TypeUnknown
}

// ContainsMention reports whether text contains marker, ignoring case.
func ContainsMention(text, marker string) bool {
	marker = strings.TrimSpace(marker)
	if marker == "" {
		return false
	}
	return strings.Contains(strings.ToLower(text), strings.ToLower(marker))
}
