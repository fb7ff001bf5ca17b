package attachment

// SupportedAudioExtensions are accepted as audio when the declared type is empty or generic.
var SupportedAudioExtensions = []string{"wav", "mp3", "aiff", "aac", "ogg", "flac", "m4a"}

// SupportedAudioMIMETypes are accepted as audio without a warning.
var SupportedAudioMIMETypes = []string{
	"audio/wav",
	"audio/mp3",
	"audio/mpeg",
	"audio/aiff",
	"audio/aac",
	"audio/ogg",
	"audio/flac",
	"audio/m4a",
	"audio/x-m4a",
}

const (
	mimeOctetStream = "application/octet-stream"
	mimePDF         = "application/pdf"
	pdfSignature    = "%PDF-"
)

// MIMEHeadMaxBytes is the head size used for content-based MIME detection.
const MIMEHeadMaxBytes = 512

// DefaultMaxFileBytes caps the bytes read from a single file.
const DefaultMaxFileBytes int64 = 20 * 1024 * 1024
