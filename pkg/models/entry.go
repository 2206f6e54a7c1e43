package models

// Action represents what the sync engine decided for one entry
type Action string

const (
	// ActionUpload copies a local file to the remote
	ActionUpload Action = "upload"
	// ActionDownload copies a remote file to the local tree
	ActionDownload Action = "download"
	// ActionSkip leaves an up to date file alone
	ActionSkip Action = "skip"
	// ActionIgnore excludes an entry matched by an ignore rule
	ActionIgnore Action = "ignore"
	// ActionError records a failed entry
	ActionError Action = "error"
)

// FileEvent describes one decision of the sync engine
type FileEvent struct {
	// Path is the local path on upload and the remote path on download
	Path string

	// RelativePath is the path relative to the sync root, '/' separated
	RelativePath string

	// IsDir indicates if this is a directory
	IsDir bool

	// Size in bytes, when known
	Size int64

	Action Action
	Reason string
	Err    error
}
