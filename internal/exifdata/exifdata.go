// Package exifdata reads capture metadata from image files. Everything here is
// best effort: most junk files and many valid images carry no EXIF block.
package exifdata

import (
	"os"
	"time"

	"github.com/rwcarlsen/goexif/exif"
)

// Capture holds the metadata worth keeping on a catalog row.
type Capture struct {
	TakenAt *time.Time
	Camera  string
}

// Empty reports whether no metadata was found.
func (c Capture) Empty() bool {
	return c.TakenAt == nil && c.Camera == ""
}

// Extract reads EXIF capture metadata from an image file. A missing file,
// undecodable EXIF block, or absent tags all yield an empty Capture.
func Extract(path string) Capture {
	f, err := os.Open(path)
	if err != nil {
		return Capture{}
	}
	defer f.Close()

	data, err := exif.Decode(f)
	if err != nil {
		return Capture{}
	}

	var capture Capture
	if taken, err := data.DateTime(); err == nil {
		capture.TakenAt = &taken
	}
	if tag, err := data.Get(exif.Model); err == nil {
		if model, err := tag.StringVal(); err == nil {
			capture.Camera = model
		}
	}
	return capture
}
