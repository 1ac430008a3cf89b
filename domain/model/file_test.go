package model

import "testing"

func TestDetectFileType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path        string
		fileType    FileType
		compression CompressionType
	}{
		{"a.csv", FileTypeCSV, CompressionNone},
		{"a.CSV", FileTypeCSV, CompressionNone},
		{"a.tsv.gz", FileTypeTSV, CompressionGZ},
		{"a.ltsv.bz2", FileTypeLTSV, CompressionBZ2},
		{"a.xlsx.xz", FileTypeXLSX, CompressionXZ},
		{"a.parquet.zst", FileTypeParquet, CompressionZSTD},
		{"a.txt", FileTypeUnsupported, CompressionNone},
		{"a.gz", FileTypeUnsupported, CompressionGZ},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			t.Parallel()

			ft, c := DetectFileType(tt.path)
			if ft != tt.fileType || c != tt.compression {
				t.Errorf("DetectFileType(%s) = %s/%s, want %s/%s", tt.path, ft, c, tt.fileType, tt.compression)
			}
			if IsSupportedFile(tt.path) != (tt.fileType != FileTypeUnsupported) {
				t.Errorf("IsSupportedFile(%s) mismatch", tt.path)
			}
		})
	}
}

func TestParseCompressionType(t *testing.T) {
	t.Parallel()

	for name, want := range map[string]CompressionType{
		"":     CompressionNone,
		"gzip": CompressionGZ,
		"ZSTD": CompressionZSTD,
		"xz":   CompressionXZ,
	} {
		got, ok := ParseCompressionType(name)
		if !ok || got != want {
			t.Errorf("ParseCompressionType(%q) = %s %v, want %s", name, got, ok, want)
		}
	}
	if _, ok := ParseCompressionType("rar"); ok {
		t.Error("expected rar to be rejected")
	}
}
