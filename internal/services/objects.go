package services

import (
	"path"
	"strings"
	"time"
)

// now is replaced in tests.
var now = time.Now

// ObjectName builds the storage name of a receipt:
// <folder>/<YYYYMMDDhhmmss>_<file name>. Path components of name are dropped.
func ObjectName(folder, name string, at time.Time) string {
	base := path.Base(strings.ReplaceAll(name, "\\", "/"))
	if base == "." || base == "/" {
		base = "receipt"
	}
	base = strings.ReplaceAll(base, " ", "_")
	stamped := at.Format("20060102150405") + "_" + base
	folder = strings.Trim(folder, "/")
	if folder == "" {
		return stamped
	}
	return folder + "/" + stamped
}

// FileName returns the last path segment of a receipt reference.
func FileName(ref string) string {
	if i := strings.LastIndex(ref, "/"); i >= 0 {
		return ref[i+1:]
	}
	return ref
}
