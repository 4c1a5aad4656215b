package common

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// LogLevel represents different console verbosity levels
type LogLevel int

const (
	LogLevelError LogLevel = iota
	LogLevelWarn
	LogLevelInfo
	LogLevelDebug
)

// ConsolePrinter provides formatted console output for the CLI tools.
// Structured logging goes through zerolog; this is for human-facing
// progress text only.
type ConsolePrinter struct {
	Level      LogLevel
	ShowEmojis bool
	SilentMode bool
}

// NewConsolePrinter creates a printer with default settings
func NewConsolePrinter() *ConsolePrinter {
	return &ConsolePrinter{
		Level:      LogLevelInfo,
		ShowEmojis: true,
	}
}

// SetSilentMode enables or disables silent mode
func (p *ConsolePrinter) SetSilentMode(silent bool) {
	p.SilentMode = silent
}

// Header prints a formatted header
func (p *ConsolePrinter) Header(title string) {
	if p.SilentMode {
		return
	}

	emoji := "🎯"
	if !p.ShowEmojis {
		emoji = "***"
	}

	fmt.Printf("\n%s %s\n", emoji, strings.ToUpper(title))
	fmt.Printf("%s\n", strings.Repeat("=", len(title)+5))
}

// Section prints a formatted section header
func (p *ConsolePrinter) Section(title string) {
	if p.SilentMode {
		return
	}

	emoji := "📋"
	if !p.ShowEmojis {
		emoji = "---"
	}

	fmt.Printf("\n%s %s\n", emoji, title)
	fmt.Printf("%s\n", strings.Repeat("-", len(title)+5))
}

// Info prints an info message
func (p *ConsolePrinter) Info(format string, args ...interface{}) {
	if p.SilentMode || p.Level < LogLevelInfo {
		return
	}

	emoji := "ℹ️"
	if !p.ShowEmojis {
		emoji = "[INFO]"
	}

	fmt.Printf("%s  %s\n", emoji, fmt.Sprintf(format, args...))
}

// Error prints an error message
func (p *ConsolePrinter) Error(format string, args ...interface{}) {
	emoji := "❌"
	if !p.ShowEmojis {
		emoji = "[ERROR]"
	}

	fmt.Printf("%s %s\n", emoji, fmt.Sprintf(format, args...))
}

// Success prints a success message
func (p *ConsolePrinter) Success(format string, args ...interface{}) {
	if p.SilentMode {
		return
	}

	emoji := "✅"
	if !p.ShowEmojis {
		emoji = "[SUCCESS]"
	}

	fmt.Printf("%s %s\n", emoji, fmt.Sprintf(format, args...))
}

// Warn prints a warning message
func (p *ConsolePrinter) Warn(format string, args ...interface{}) {
	if p.Level < LogLevelWarn {
		return
	}

	emoji := "⚠️"
	if !p.ShowEmojis {
		emoji = "[WARN]"
	}

	fmt.Printf("%s  %s\n", emoji, fmt.Sprintf(format, args...))
}

// Progress prints a progress message
func (p *ConsolePrinter) Progress(format string, args ...interface{}) {
	if p.SilentMode {
		return
	}

	emoji := "🔄"
	if !p.ShowEmojis {
		emoji = "[PROGRESS]"
	}

	fmt.Printf("%s %s\n", emoji, fmt.Sprintf(format, args...))
}

// SetupPrinter configures the default printer based on common flags
func SetupPrinter(commonFlags *CommonFlags) {
	printer := DefaultPrinter

	if *commonFlags.Silent {
		printer.SetSilentMode(true)
	}
	if *commonFlags.Verbose {
		printer.Level = LogLevelDebug
	}
	if *commonFlags.NoEmojis {
		printer.ShowEmojis = false
	}
}

// EnvLoader provides environment loading utilities
type EnvLoader struct {
	printer *ConsolePrinter
}

// NewEnvLoader creates a new environment loader
func NewEnvLoader(printer *ConsolePrinter) *EnvLoader {
	return &EnvLoader{printer: printer}
}

// LoadEnvFile loads environment variables from a file
func (e *EnvLoader) LoadEnvFile(path string) error {
	if path == "" {
		path = ".env"
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	if err := godotenv.Load(path); err != nil {
		e.printer.Warn("Could not load environment file %s: %v", path, err)
		return err
	}
	return nil
}

// GetEnvWithDefault gets an environment variable with a default value
func (e *EnvLoader) GetEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// ValidateRequiredEnvVars validates that all required environment variables are set
func (e *EnvLoader) ValidateRequiredEnvVars(keys []string) error {
	missing := []string{}

	for _, key := range keys {
		if os.Getenv(key) == "" {
			missing = append(missing, key)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}

	return nil
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

// EnsureDir ensures a directory exists, creating it if necessary
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0755)
}

// Global instances for convenience
var (
	DefaultPrinter   = NewConsolePrinter()
	DefaultEnvLoader = NewEnvLoader(DefaultPrinter)
)

// Convenience functions using global instances
func Header(title string)                         { DefaultPrinter.Header(title) }
func Section(title string)                        { DefaultPrinter.Section(title) }
func Info(format string, args ...interface{})     { DefaultPrinter.Info(format, args...) }
func Error(format string, args ...interface{})    { DefaultPrinter.Error(format, args...) }
func Success(format string, args ...interface{})  { DefaultPrinter.Success(format, args...) }
func Warn(format string, args ...interface{})     { DefaultPrinter.Warn(format, args...) }
func Progress(format string, args ...interface{}) { DefaultPrinter.Progress(format, args...) }
func SetSilentMode(silent bool)                   { DefaultPrinter.SetSilentMode(silent) }

func LoadEnvFile(path string) error            { return DefaultEnvLoader.LoadEnvFile(path) }
func GetEnvWithDefault(key, def string) string { return DefaultEnvLoader.GetEnvWithDefault(key, def) }
