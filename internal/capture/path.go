package capture

import (
	"path/filepath"
	"strings"
)

// DefaultExtension is appended to the recording name to form the log path.
const DefaultExtension = ".osd"

// OutputPath returns the OSD log path for a video recording by replacing its
// extension with .osd: /rec/DJI_0001.mp4 becomes /rec/DJI_0001.osd.
func OutputPath(videoPath string) string {
	return OutputPathWithExt(videoPath, DefaultExtension)
}

// OutputPathWithExt is OutputPath with a caller-chosen extension.
func OutputPathWithExt(videoPath, ext string) string {
	dir, base := filepath.Split(videoPath)
	if i := strings.LastIndexByte(base, '.'); i > 0 {
		base = base[:i]
	}
	return dir + base + ext
}
