package agreement

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/nao1215/agreement/domain/model"
)

// validator handles validation logic for Builder
type validator struct{}

// newValidator creates a new validator instance
func newValidator() *validator {
	return &validator{}
}

// validatePath validates a dataset or form file path
func (v *validator) validatePath(path string, supported func(string) bool) error {
	if strings.TrimSpace(path) == "" {
		return errors.New("path cannot be empty")
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return fmt.Errorf("failed to stat path %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("path is a directory: %s", path)
	}
	if !supported(path) {
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
	return nil
}

// validateReader validates a reader input
func (v *validator) validateReader(reader any, tableName string, fileType model.FileType) error {
	if reader == nil {
		return errors.New("reader cannot be nil")
	}
	if tableName == "" {
		return errors.New("table name must be specified for reader input")
	}
	if fileType == model.FileTypeUnsupported {
		return errors.New("file type must be specified for reader input")
	}
	if stringReader, ok := reader.(*strings.Reader); ok && stringReader.Len() == 0 {
		return fmt.Errorf("%w: reader %s", ErrEmptyData, tableName)
	}
	return nil
}

// validateSeparator accepts the two separators ODK exports use.
func (v *validator) validateSeparator(sep rune) error {
	switch sep {
	case 0, model.DefaultSeparator, model.AlternateSeparator:
		return nil
	default:
		return fmt.Errorf("%w: %q (want ':' or '-')", ErrInvalidSeparator, sep)
	}
}

// isFormFile reports whether path names an XlsForm workbook.
func isFormFile(path string) bool {
	ft, _ := model.DetectFileType(path)
	return ft == model.FileTypeXLSX
}
