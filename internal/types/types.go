package types

// Sentinel for a log size that could not be determined.
const SizeUnknown = "N/A"

// LiveJob is one row of the scheduler's live listing for an operator.
type LiveJob struct {
	JobID   string `json:"job_id"`
	JobName string `json:"job_name"`
	Status  string `json:"status"`
	RunTime string `json:"run_time"`
	Nodes   string `json:"nodes"`
	CPUs    string `json:"cpus"`
}

// JobSnapshot is the last known state of one job.
// CapturedAt is unix milliseconds and is set by the history store on write.
type JobSnapshot struct {
	JobID      string `json:"job_id"`
	JobName    string `json:"job_name"`
	Status     string `json:"status"`
	RunTime    string `json:"run_time"`
	Nodes      string `json:"nodes"`
	CPUs       string `json:"cpus"`
	LogErrSize string `json:"log_err_size"`
	LogOutSize string `json:"log_out_size"`
	CapturedAt int64  `json:"captured_at"`
}

// Snapshot combines a live job with its probed log sizes.
func (j LiveJob) Snapshot(errSize, outSize string) JobSnapshot {
	return JobSnapshot{
		JobID:      j.JobID,
		JobName:    j.JobName,
		Status:     j.Status,
		RunTime:    j.RunTime,
		Nodes:      j.Nodes,
		CPUs:       j.CPUs,
		LogErrSize: errSize,
		LogOutSize: outSize,
	}
}

// Row returns the table cells in display order.
func (s JobSnapshot) Row() []string {
	return []string{
		s.JobID,
		s.JobName,
		s.Status,
		s.RunTime,
		s.Nodes,
		s.CPUs,
		s.LogErrSize,
		s.LogOutSize,
	}
}
