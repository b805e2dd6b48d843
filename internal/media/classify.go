package media

// Route is the processing path chosen for an uploaded file.
type Route string

const (
	// RouteDirect submits the whole file as a single transcription unit.
	RouteDirect Route = "direct"
	// RouteSplit slices the file into bounded-duration segments first.
	RouteSplit Route = "split"
)

// Classify decides split-vs-direct from a file size measurement. A file is
// split only when strictly larger than the threshold.
func Classify(sizeBytes, thresholdBytes int64) Route {
	if sizeBytes > thresholdBytes {
		return RouteSplit
	}
	return RouteDirect
}

// ParseRoute converts a stored string into a known Route.
func ParseRoute(value string) (Route, bool) {
	switch Route(value) {
	case RouteDirect:
		return RouteDirect, true
	case RouteSplit:
		return RouteSplit, true
	}
	return "", false
}
