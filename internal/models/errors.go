package models

import "errors"

var (
	// ErrUsage indicates the command line was malformed (wrong argument count or flags).
	ErrUsage = errors.New("usage")

	// ErrLoad indicates the input file is missing, unreadable or not well-formed XML.
	ErrLoad = errors.New("load kml")

	// ErrStructure indicates the document lacks an element the pipeline depends on.
	ErrStructure = errors.New("kml structure")

	// ErrParse indicates a coordinate field or tuple, or a precision value, could not be parsed.
	ErrParse = errors.New("parse")

	// ErrWrite indicates the output document could not be written.
	ErrWrite = errors.New("write kml")
)
