package model

import (
	"path/filepath"
	"strings"
)

// FileType is the base format of a dataset file, without compression.
type FileType int

const (
	// FileTypeCSV represents CSV file type
	FileTypeCSV FileType = iota
	// FileTypeTSV represents TSV file type
	FileTypeTSV
	// FileTypeLTSV represents LTSV file type
	FileTypeLTSV
	// FileTypeXLSX represents Excel XLSX file type
	FileTypeXLSX
	// FileTypeParquet represents Parquet file type
	FileTypeParquet
	// FileTypeUnsupported represents unsupported file type
	FileTypeUnsupported
)

// File extensions
const (
	// ExtCSV is the CSV file extension
	ExtCSV = ".csv"
	// ExtTSV is the TSV file extension
	ExtTSV = ".tsv"
	// ExtLTSV is the LTSV file extension
	ExtLTSV = ".ltsv"
	// ExtXLSX is the Excel XLSX file extension
	ExtXLSX = ".xlsx"
	// ExtParquet is the Parquet file extension
	ExtParquet = ".parquet"
	// ExtJSON is the JSON file extension
	ExtJSON = ".json"
	// ExtGZ is the gzip compression extension
	ExtGZ = ".gz"
	// ExtBZ2 is the bzip2 compression extension
	ExtBZ2 = ".bz2"
	// ExtXZ is the xz compression extension
	ExtXZ = ".xz"
	// ExtZSTD is the zstd compression extension
	ExtZSTD = ".zst"
)

// String returns the format name
func (ft FileType) String() string {
	switch ft {
	case FileTypeCSV:
		return "csv"
	case FileTypeTSV:
		return "tsv"
	case FileTypeLTSV:
		return "ltsv"
	case FileTypeXLSX:
		return "xlsx"
	case FileTypeParquet:
		return "parquet"
	default:
		return "unsupported"
	}
}

// Extension returns the file extension for the FileType
func (ft FileType) Extension() string {
	switch ft {
	case FileTypeCSV:
		return ExtCSV
	case FileTypeTSV:
		return ExtTSV
	case FileTypeLTSV:
		return ExtLTSV
	case FileTypeXLSX:
		return ExtXLSX
	case FileTypeParquet:
		return ExtParquet
	default:
		return ""
	}
}

// CompressionType represents the compression type
type CompressionType int

const (
	// CompressionNone represents no compression
	CompressionNone CompressionType = iota
	// CompressionGZ represents gzip compression
	CompressionGZ
	// CompressionBZ2 represents bzip2 compression
	CompressionBZ2
	// CompressionXZ represents xz compression
	CompressionXZ
	// CompressionZSTD represents zstd compression
	CompressionZSTD
)

// String returns the string representation of CompressionType
func (c CompressionType) String() string {
	switch c {
	case CompressionGZ:
		return "gz"
	case CompressionBZ2:
		return "bz2"
	case CompressionXZ:
		return "xz"
	case CompressionZSTD:
		return "zstd"
	default:
		return "none"
	}
}

// Extension returns the file extension for the compression type
func (c CompressionType) Extension() string {
	switch c {
	case CompressionGZ:
		return ExtGZ
	case CompressionBZ2:
		return ExtBZ2
	case CompressionXZ:
		return ExtXZ
	case CompressionZSTD:
		return ExtZSTD
	default:
		return ""
	}
}

// ParseCompressionType maps a name ("none", "gz", "gzip", "bz2", "xz", "zstd", "zst")
// to a CompressionType.
func ParseCompressionType(name string) (CompressionType, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "none":
		return CompressionNone, true
	case "gz", "gzip":
		return CompressionGZ, true
	case "bz2", "bzip2":
		return CompressionBZ2, true
	case "xz":
		return CompressionXZ, true
	case "zstd", "zst":
		return CompressionZSTD, true
	default:
		return CompressionNone, false
	}
}

// DetectCompressionType detects the compression type from a file path
func DetectCompressionType(path string) CompressionType {
	path = strings.ToLower(path)
	switch {
	case strings.HasSuffix(path, ExtGZ):
		return CompressionGZ
	case strings.HasSuffix(path, ExtBZ2):
		return CompressionBZ2
	case strings.HasSuffix(path, ExtXZ):
		return CompressionXZ
	case strings.HasSuffix(path, ExtZSTD):
		return CompressionZSTD
	default:
		return CompressionNone
	}
}

// RemoveCompressionExtension removes the compression extension from a file path if present
func RemoveCompressionExtension(path string) string {
	ext := DetectCompressionType(path).Extension()
	return path[:len(path)-len(ext)]
}

// DetectFileType detects the base file type and compression of a path.
func DetectFileType(path string) (FileType, CompressionType) {
	compression := DetectCompressionType(path)
	base := RemoveCompressionExtension(path)

	switch strings.ToLower(filepath.Ext(base)) {
	case ExtCSV:
		return FileTypeCSV, compression
	case ExtTSV:
		return FileTypeTSV, compression
	case ExtLTSV:
		return FileTypeLTSV, compression
	case ExtXLSX:
		return FileTypeXLSX, compression
	case ExtParquet:
		return FileTypeParquet, compression
	default:
		return FileTypeUnsupported, compression
	}
}

// IsSupportedFile checks if the file has a supported extension
func IsSupportedFile(fileName string) bool {
	ft, _ := DetectFileType(fileName)
	return ft != FileTypeUnsupported
}
