package upload

import (
	"io"
	"path"
	"strings"
)

// UploadError is the status the submitting transport attached to a file.
type UploadError int

const (
	UploadOK UploadError = iota
	UploadIniSize
	UploadFormSize
	UploadPartial
	UploadNoFile
	_
	UploadNoTmpDir
	UploadCantWrite
	UploadExtension
)

func (e UploadError) String() string {
	switch e {
	case UploadOK:
		return "ok"
	case UploadIniSize, UploadFormSize:
		return "file too large"
	case UploadPartial:
		return "partial upload"
	case UploadNoFile:
		return "no file provided"
	case UploadNoTmpDir:
		return "no temporary directory"
	case UploadCantWrite:
		return "cannot write file"
	case UploadExtension:
		return "upload stopped by extension"
	default:
		return "unknown upload error"
	}
}

// File is an incoming upload. It is transient: only the Reference derived
// from it is persisted.
type File struct {
	Reader         io.Reader
	ClientFilename string
	Size           int64
	ContentType    string
	Error          UploadError
}

// Extension returns the client filename's extension without the dot, with
// its case preserved.
func (f *File) Extension() string {
	return extension(f.ClientFilename)
}

func extension(filename string) string {
	return strings.TrimPrefix(path.Ext(filename), ".")
}

// objectPath is the remote path of a key: "key.ext", or "key" when there is
// no extension.
func objectPath(key, ext string) string {
	if ext == "" {
		return key
	}
	return key + "." + ext
}
