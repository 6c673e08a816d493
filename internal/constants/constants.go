package constants

const (
	DefaultPageSize = 12
	MaxPageSize     = 50

	// Upload limits for listing photos.
	MaxImageSizeBytes   = 5 << 20 // 5 MB per file
	MaxImagesPerRequest = 10
	MaxImageDimension   = 1920
	JpegQuality         = 85

	// MaxMultipartMemory bounds how much of a multipart upload is held in
	// memory before spilling to temp files.
	MaxMultipartMemory = 32 << 20

	ViewingRequestListLimit = 200
)

// AllowedImageExtensions is the upload allow-list, keyed by lowercased
// extension without the dot.
var AllowedImageExtensions = map[string]bool{
	"png":  true,
	"jpg":  true,
	"jpeg": true,
	"webp": true,
}
