package attachment

// Kind tags a classification outcome.
type Kind string

const (
	KindText        Kind = "text"
	KindImage       Kind = "image"
	KindAudio       Kind = "audio"
	KindPDF         Kind = "pdf"
	KindUnsupported Kind = "unsupported"
)

// Result is the outcome of classifying one File. The concrete type is one of
// TextFile, ImageFile, AudioFile, PDFFile or UnsupportedFile.
type Result interface {
	Kind() Kind
	Source() File
	isResult()
}

// TextFile carries decoded text prefixed with a banner naming the file.
type TextFile struct {
	File    File
	Content string
	Charset string
}

type ImageFile struct {
	File File
}

// AudioFile is accepted audio, possibly with a non-fatal warning.
type AudioFile struct {
	File    File
	Warning *AudioWarning
}

// PDFFile is a PDF. Pages is zero when the page count could not be read.
type PDFFile struct {
	File  File
	Pages int
}

type UnsupportedFile struct {
	File File
	Err  UnsupportedFileError
}

func (r *TextFile) Kind() Kind        { return KindText }
func (r *ImageFile) Kind() Kind       { return KindImage }
func (r *AudioFile) Kind() Kind       { return KindAudio }
func (r *PDFFile) Kind() Kind         { return KindPDF }
func (r *UnsupportedFile) Kind() Kind { return KindUnsupported }

func (r *TextFile) Source() File        { return r.File }
func (r *ImageFile) Source() File       { return r.File }
func (r *AudioFile) Source() File       { return r.File }
func (r *PDFFile) Source() File         { return r.File }
func (r *UnsupportedFile) Source() File { return r.File }

func (*TextFile) isResult()        {}
func (*ImageFile) isResult()       {}
func (*AudioFile) isResult()       {}
func (*PDFFile) isResult()         {}
func (*UnsupportedFile) isResult() {}

// WarningCode identifies a non-fatal audio warning.
type WarningCode string

const (
	WarningUncommonFormat    WarningCode = "audio_warning_uncommon_format"
	WarningExtensionFallback WarningCode = "audio_warning_extension_fallback"
)

// AudioWarning is attached to accepted audio that did not match the
// supported MIME list.
type AudioWarning struct {
	Code WarningCode `json:"code"`
	// MIME is the declared type, set for uncommon formats.
	MIME string `json:"mime,omitempty"`
	// Extension is a best guess for uncommon formats and the matched file
	// extension for extension fallbacks.
	Extension string `json:"extension"`
}
