package inject

import "fmt"

// MarkerNotFoundError reports an entry file without the expected anchor
// comment. The file is left untouched and the install continues; the
// user registers the module by hand or restores the marker.
type MarkerNotFoundError struct {
	File   string
	Marker string
	Alias  string
}

func (e *MarkerNotFoundError) Error() string {
	return fmt.Sprintf("marker %q not found in %s, add it or register %s manually", e.Marker, e.File, e.Alias)
}
