package reporting

// DefaultReporter bundles the console, file, and path implementations
// behind the combined Reporter interface.
type DefaultReporter struct {
	*DefaultConsoleReporter
	*DefaultCSVReporter
	*DefaultExcelReporter
	*DefaultJSONReporter
	*DefaultNoteReporter
	*DefaultPathManager
}

// NewDefaultReporter creates a reporter writing under the given root directory
func NewDefaultReporter(root string) *DefaultReporter {
	return &DefaultReporter{
		DefaultConsoleReporter: NewDefaultConsoleReporter(),
		DefaultCSVReporter:     NewDefaultCSVReporter(),
		DefaultExcelReporter:   NewDefaultExcelReporter(),
		DefaultJSONReporter:    NewDefaultJSONReporter(),
		DefaultNoteReporter:    NewDefaultNoteReporter(),
		DefaultPathManager:     NewDefaultPathManager(root),
	}
}
