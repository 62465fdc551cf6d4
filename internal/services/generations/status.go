package generations

// Completion status is never stored; it is derived on every read from the
// blob files the record currently points at.
const (
	StatusComplete   = "Complete"
	StatusImageOnly  = "Image Only"
	StatusIncomplete = "Incomplete"
)

// DeriveStatus is a pure function of the record's paths and a file-existence
// check. It can go stale if blobs are deleted out of band; that is accepted.
func DeriveStatus(imagePath, modelPath string, exists func(string) bool) string {
	if modelPath != "" && exists(modelPath) {
		return StatusComplete
	}
	if imagePath != "" && exists(imagePath) {
		return StatusImageOnly
	}
	return StatusIncomplete
}
