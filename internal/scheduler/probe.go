package scheduler

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/adamavenir/job-status/internal/types"
)

// SizeOf returns the size of dir/name in kibibytes formatted as "X.XX KB",
// or "N/A" when dir is unknown or the file cannot be stat'ed.
func SizeOf(dir, name string) string {
	if dir == "" || name == "" {
		return types.SizeUnknown
	}
	info, err := os.Stat(filepath.Join(dir, name))
	if err != nil || info.IsDir() {
		return types.SizeUnknown
	}
	return fmt.Sprintf("%.2f KB", float64(info.Size())/1024)
}

// ProbeLogs returns the stderr and stdout log sizes for a job directory.
func ProbeLogs(dir, errName, outName string) (errSize, outSize string) {
	return SizeOf(dir, errName), SizeOf(dir, outName)
}
