package attachment

import (
	"errors"
	"fmt"
)

// ErrFileTooLarge is returned when a file exceeds the configured read cap.
var ErrFileTooLarge = errors.New("file exceeds maximum size")

// ErrorCode identifies why a file is unsupported.
type ErrorCode string

const (
	CodeUnsupportedAudioFormat ErrorCode = "unsupported_audio_format"
	CodePDFNotSupported        ErrorCode = "pdf_not_supported"
	CodeBinaryNotSupported     ErrorCode = "binary_not_supported"
	CodeProcessFailed          ErrorCode = "process_failed"
)

// UnsupportedFileError is the reason carried by an UnsupportedFile.
type UnsupportedFileError interface {
	error
	Code() ErrorCode
	isUnsupported()
}

// UnsupportedAudioFormat is reserved for audio that cannot be accepted.
// Audio is always accepted today, so the classifier never produces it.
type UnsupportedAudioFormat struct {
	MIME      string
	Supported []string
}

func (e *UnsupportedAudioFormat) Error() string {
	return fmt.Sprintf("unsupported audio format %q (supported: %v)", e.MIME, e.Supported)
}
func (e *UnsupportedAudioFormat) Code() ErrorCode { return CodeUnsupportedAudioFormat }

// PDFNotSupported is reserved for deployments that reject PDFs.
type PDFNotSupported struct{}

func (e *PDFNotSupported) Error() string   { return "pdf files are not supported" }
func (e *PDFNotSupported) Code() ErrorCode { return CodePDFNotSupported }

type BinaryNotSupported struct {
	MIME string
}

func (e *BinaryNotSupported) Error() string {
	return fmt.Sprintf("binary file not supported (detected %s)", e.MIME)
}
func (e *BinaryNotSupported) Code() ErrorCode { return CodeBinaryNotSupported }

// ProcessFailed wraps any failure while reading or decoding a file.
type ProcessFailed struct {
	Message string
	Err     error
}

func (e *ProcessFailed) Error() string   { return "failed to process file: " + e.Message }
func (e *ProcessFailed) Code() ErrorCode { return CodeProcessFailed }
func (e *ProcessFailed) Unwrap() error   { return e.Err }

func (*UnsupportedAudioFormat) isUnsupported() {}
func (*PDFNotSupported) isUnsupported()        {}
func (*BinaryNotSupported) isUnsupported()     {}
func (*ProcessFailed) isUnsupported()          {}
