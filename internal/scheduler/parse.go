package scheduler

import (
	"bufio"
	"strings"

	"github.com/adamavenir/job-status/internal/types"
)

// QueueFormat is the squeue output format: id|name|state|elapsed|nodes|cpus.
const QueueFormat = "%A|%j|%T|%M|%D|%C"

const (
	queueFieldCount = 6
	workDirMarker   = "WorkDir="
)

// ParseQueue parses squeue output produced with QueueFormat. Blank lines are
// skipped; any other line must have exactly six fields.
func ParseQueue(output string) ([]types.LiveJob, error) {
	var jobs []types.LiveJob
	scanner := bufio.NewScanner(strings.NewReader(output))
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Split(line, "|")
		if len(fields) != queueFieldCount {
			return nil, &ParseError{Line: lineNo, Content: line, Fields: len(fields)}
		}
		jobs = append(jobs, types.LiveJob{
			JobID:   fields[0],
			JobName: fields[1],
			Status:  fields[2],
			RunTime: fields[3],
			Nodes:   fields[4],
			CPUs:    fields[5],
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return jobs, nil
}

// ParseWorkDir extracts the WorkDir value from `scontrol show job` output.
// It returns "" when the marker is absent, empty, or "(null)".
func ParseWorkDir(output string) string {
	for _, line := range strings.Split(output, "\n") {
		idx := strings.Index(line, workDirMarker)
		if idx < 0 {
			continue
		}
		dir := strings.TrimSpace(line[idx+len(workDirMarker):])
		if dir == "(null)" {
			return ""
		}
		return dir
	}
	return ""
}
