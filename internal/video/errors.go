// internal/video/errors.go
package video

import "errors"

var (
	// ErrLengthMismatch indicates the video and directory lists are not index-aligned.
	ErrLengthMismatch = errors.New("videos and output directories differ in length")

	// ErrPathAssigned indicates a record already has its output path.
	ErrPathAssigned = errors.New("output path already assigned")
)
