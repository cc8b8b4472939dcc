package contract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/fatih/color"
)

// Rating label constants.
const (
	HealthyValue  = "Healthy"  // Healthy value
	FairValue     = "Fair"     // Fair value
	AtRiskValue   = "At risk"  // At risk value
	CriticalValue = "Critical" // Critical value
)

// Color variables for console output.
var (
	HealthyColor  = color.New(color.FgGreen)              // healthyColor signals no action is needed.
	FairColor     = color.New(color.FgCyan)               // fairColor is informational.
	AtRiskColor   = color.New(color.FgYellow, color.Bold) // atRiskColor is standard caution.
	CriticalColor = color.New(color.FgRed, color.Bold)    // criticalColor represents standard danger.
	SuccessColor  = color.New(color.FgGreen, color.Bold)
	FailureColor  = color.New(color.FgRed, color.Bold)
)

var verbose atomic.Bool

// GetPlainLabel returns a plain text label for a 0-100 health rating.
// Higher ratings are healthier.
func GetPlainLabel(rating int) string {
	switch {
	case rating >= 75:
		return HealthyValue
	case rating >= 50:
		return FairValue
	case rating >= 25:
		return AtRiskValue
	default:
		return CriticalValue
	}
}

// GetColorLabel returns a colored text label for console output (table).
func GetColorLabel(rating int) string {
	text := GetPlainLabel(rating)

	switch text {
	case HealthyValue:
		return HealthyColor.Sprint(text)
	case FairValue:
		return FairColor.Sprint(text)
	case AtRiskValue:
		return AtRiskColor.Sprint(text)
	default:
		return CriticalColor.Sprint(text)
	}
}

// SelectOutputFile returns the appropriate file handle for output.
// An empty path selects os.Stdout.
func SelectOutputFile(filePath string) (*os.File, error) {
	if filePath == "" {
		return os.Stdout, nil
	}
	if err := os.MkdirAll(filepath.Dir(filePath), 0o755); err != nil {
		return nil, err
	}
	return os.Create(filePath)
}

// SetVerbose toggles LogVerbose output.
func SetVerbose(v bool) {
	verbose.Store(v)
}

// IsVerbose reports whether verbose logging is enabled.
func IsVerbose() bool {
	return verbose.Load()
}

// LogFatal logs an error and exits the program.
func LogFatal(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Fatal %s: %v\n", msg, err)
	os.Exit(1)
}

// LogWarn logs a warning message to stderr.
func LogWarn(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Warn %s: %v\n", msg, err)
}

// LogInfo logs a progress message to stderr.
func LogInfo(format string, args ...any) {
	_, _ = fmt.Fprintf(os.Stderr, format+"\n", args...)
}

// LogVerbose logs a message to stderr when verbose mode is on.
func LogVerbose(format string, args ...any) {
	if !verbose.Load() {
		return
	}
	_, _ = fmt.Fprintf(os.Stderr, "Debug "+format+"\n", args...)
}

// GetDefaultCacheDir returns the default disk cache root.
func GetDefaultCacheDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".devhealth", "cache")
	}
	return filepath.Join(homeDir, ".devhealth", "cache")
}

// GetRunsDBFilePath returns the path to the SQLite DB file for run storage.
func GetRunsDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".devhealth_runs.db"
	}
	return filepath.Join(homeDir, ".devhealth_runs.db")
}

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(homeDir, strings.TrimPrefix(path, "~"))
}

// ParseBoolString parses a string value into a boolean.
// Accepts "yes", "no", "true", "false", "1", "0" (case-insensitive).
func ParseBoolString(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "true", "1":
		return true, nil
	case "no", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean string: %s (expected yes/no/true/false/1/0)", s)
	}
}
