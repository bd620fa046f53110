package entities

// FileRef points at an attachment that still lives on the chat platform.
type FileRef struct {
	ID       string
	Name     string
	MimeType string
	Size     int64
}

type Message struct {
	ID       string
	ChatID   string
	From     string
	Content  string
	Command  string // bot command without the slash, e.g. "start"
	File     *FileRef
	Platform string // "telegram", "whatsapp", "web"
}

// HasFile reports whether the message carries an attachment.
func (m Message) HasFile() bool {
	return m.File != nil && m.File.ID != ""
}

// Markup names the rich text dialect a channel renders.
type Markup string

const (
	MarkupHTML     Markup = "html"
	MarkupWhatsApp Markup = "whatsapp"
	MarkupPlain    Markup = "plain"
)
