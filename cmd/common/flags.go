package common

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// CommonFlags contains flags that are shared across the analysis commands
type CommonFlags struct {
	// Environment and configuration
	EnvFile    *string
	ConfigFile *string
	DataDir    *string
	OutputDir  *string

	// Logging and output
	ConsoleOnly *bool
	Verbose     *bool
	Silent      *bool
	NoEmojis    *bool

	// Help and version
	Version *bool
	Help    *bool
}

// RegisterCommonFlags registers common flags with the default flag set
func RegisterCommonFlags() *CommonFlags {
	return &CommonFlags{
		EnvFile:    flag.String("env", ".env", "Environment file path"),
		ConfigFile: flag.String("config", "", "Analysis config JSON (defaults apply when empty)"),
		DataDir:    flag.String("data-dir", "data", "Directory holding macro.csv and per-symbol price CSVs"),
		OutputDir:  flag.String("output-dir", "", "Report output directory (derived from date range when empty)"),

		ConsoleOnly: flag.Bool("console-only", false, "Console output only (no file reports)"),
		Verbose:     flag.Bool("verbose", false, "Enable debug logging"),
		Silent:      flag.Bool("silent", false, "Minimal output"),
		NoEmojis:    flag.Bool("no-emojis", false, "Disable emoji output"),

		Version: flag.Bool("version", false, "Show version information"),
		Help:    flag.Bool("help", false, "Show help information"),
	}
}

// FlagValidator accumulates flag validation errors
type FlagValidator struct {
	errors []string
}

// NewFlagValidator creates a new flag validator
func NewFlagValidator() *FlagValidator {
	return &FlagValidator{errors: make([]string, 0)}
}

// ValidateFloat validates a float flag value
func (v *FlagValidator) ValidateFloat(name string, value float64, min, max float64) *FlagValidator {
	if value < min || value > max {
		v.errors = append(v.errors, fmt.Sprintf("%s must be between %.4f and %.4f, got: %.4f", name, min, max, value))
	}
	return v
}

// ValidateInt validates an int flag value
func (v *FlagValidator) ValidateInt(name string, value int, min, max int) *FlagValidator {
	if value < min || value > max {
		v.errors = append(v.errors, fmt.Sprintf("%s must be between %d and %d, got: %d", name, min, max, value))
	}
	return v
}

// ValidateFile validates that a file exists
func (v *FlagValidator) ValidateFile(name, path string, required bool) *FlagValidator {
	if path == "" {
		if required {
			v.errors = append(v.errors, fmt.Sprintf("%s is required", name))
		}
		return v
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		v.errors = append(v.errors, fmt.Sprintf("%s file does not exist: %s", name, path))
	}
	return v
}

// ValidateDirectory validates that a directory exists
func (v *FlagValidator) ValidateDirectory(name, path string, required bool) *FlagValidator {
	if path == "" {
		if required {
			v.errors = append(v.errors, fmt.Sprintf("%s is required", name))
		}
		return v
	}

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		v.errors = append(v.errors, fmt.Sprintf("%s directory does not exist: %s", name, path))
	} else if err == nil && !info.IsDir() {
		v.errors = append(v.errors, fmt.Sprintf("%s is not a directory: %s", name, path))
	}
	return v
}

// AddError adds a custom validation error
func (v *FlagValidator) AddError(message string) *FlagValidator {
	v.errors = append(v.errors, message)
	return v
}

// HasErrors returns true if there are validation errors
func (v *FlagValidator) HasErrors() bool {
	return len(v.errors) > 0
}

// GetError returns a formatted error with all validation errors
func (v *FlagValidator) GetError() error {
	if len(v.errors) == 0 {
		return nil
	}

	if len(v.errors) == 1 {
		return fmt.Errorf("validation error: %s", v.errors[0])
	}

	return fmt.Errorf("validation errors:\n  - %s", strings.Join(v.errors, "\n  - "))
}

// PrintErrors prints all validation errors
func (v *FlagValidator) PrintErrors() {
	if len(v.errors) == 0 {
		return
	}

	fmt.Fprintf(os.Stderr, "❌ Flag validation errors:\n")
	for _, err := range v.errors {
		fmt.Fprintf(os.Stderr, "   • %s\n", err)
	}
}

// UsageFormatter provides utilities for formatting flag usage
type UsageFormatter struct {
	AppName        string
	AppDescription string
	Examples       []UsageExample
}

// UsageExample represents a usage example
type UsageExample struct {
	Command     string
	Description string
}

// NewUsageFormatter creates a new usage formatter
func NewUsageFormatter(appName, description string) *UsageFormatter {
	return &UsageFormatter{
		AppName:        appName,
		AppDescription: description,
		Examples:       make([]UsageExample, 0),
	}
}

// AddExample adds a usage example
func (u *UsageFormatter) AddExample(command, description string) *UsageFormatter {
	u.Examples = append(u.Examples, UsageExample{
		Command:     command,
		Description: description,
	})
	return u
}

// PrintUsage prints formatted usage information
func (u *UsageFormatter) PrintUsage() {
	fmt.Printf("%s - %s\n\n", u.AppName, u.AppDescription)

	fmt.Printf("USAGE:\n")
	fmt.Printf("  %s [OPTIONS]\n\n", filepath.Base(os.Args[0]))

	if len(u.Examples) > 0 {
		fmt.Printf("EXAMPLES:\n")
		for _, example := range u.Examples {
			fmt.Printf("  # %s\n", example.Description)
			fmt.Printf("  %s\n\n", example.Command)
		}
	}

	fmt.Printf("OPTIONS:\n")
	flag.PrintDefaults()
}

// ParseAndValidate parses flags and validates common requirements
func ParseAndValidate(validator *FlagValidator) error {
	flag.Parse()

	if validator.HasErrors() {
		validator.PrintErrors()
		return validator.GetError()
	}

	return nil
}

// CheckHelpAndVersion checks for help and version flags and handles them
func CheckHelpAndVersion(appName string, commonFlags *CommonFlags, formatter *UsageFormatter) bool {
	if *commonFlags.Version {
		PrintVersion(appName)
		return true
	}

	if *commonFlags.Help {
		formatter.PrintUsage()
		return true
	}

	return false
}
