package documents

// ConversionRequest asks the converter to turn SourcePath into TargetFormat at TargetPath.
type ConversionRequest struct {
	SourcePath   string
	SourceFormat string
	TargetFormat string
	TargetPath   string
}

// Conversion is the outcome of a successful conversion. Pages is zero when
// the output was not validated.
type Conversion struct {
	RemoteURL string
	LocalPath string
	Pages     int
}
