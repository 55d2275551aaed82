package sitemirror

// MirroredFile describes one file written into the mirror.
type MirroredFile struct {
	Source string // logical URL the file was produced from
	Path   string // slash-separated path below the destination root
	Kind   ContentKind
	Bytes  int
	Hash   string // xxhash of the written bytes, hex encoded
}
