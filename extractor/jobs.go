package extractor

import (
	"errors"
	"slices"
	"strings"
	"sync"
	"time"
)

// JobRegistry tracks extraction jobs by name. One job per name runs at a
// time.
type JobRegistry struct {
	mu   sync.Mutex
	jobs map[string]*JobStatus
}

var ErrJobRunning = errors.New("an extraction with this name is already running")

func NewJobRegistry() *JobRegistry {
	return &JobRegistry{jobs: make(map[string]*JobStatus)}
}

// Start registers a running job, or returns ErrJobRunning.
func (r *JobRegistry) Start(name, source string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if j, ok := r.jobs[name]; ok && j.State == JobStateRunning {
		return ErrJobRunning
	}
	r.jobs[name] = &JobStatus{
		Name:      name,
		Source:    source,
		State:     JobStateRunning,
		StartedAt: time.Now().UTC(),
	}
	return nil
}

// Finish records the outcome of Run for the named job.
func (r *JobRegistry) Finish(name string, m *Manifest, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[name]
	if !ok {
		return
	}
	now := time.Now().UTC()
	j.FinishedAt = &now
	if m != nil {
		j.Assets = len(m.Assets)
		j.Errors = len(m.Errors)
	}
	switch {
	case errors.Is(err, ErrUnchanged):
		j.State = JobStateSkipped
	case err != nil:
		j.State = JobStateFailed
		j.Error = err.Error()
	default:
		j.State = JobStateDone
	}
}

// List returns copies of all jobs, running ones first, then by start time.
func (r *JobRegistry) List() []JobStatus {
	r.mu.Lock()
	out := make([]JobStatus, 0, len(r.jobs))
	for _, j := range r.jobs {
		out = append(out, *j)
	}
	r.mu.Unlock()
	slices.SortFunc(out, func(a, b JobStatus) int {
		if (a.State == JobStateRunning) != (b.State == JobStateRunning) {
			if a.State == JobStateRunning {
				return -1
			}
			return 1
		}
		if c := a.StartedAt.Compare(b.StartedAt); c != 0 {
			return c
		}
		return strings.Compare(a.Name, b.Name)
	})
	return out
}

func (r *JobRegistry) Get(name string) (JobStatus, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[name]
	if !ok {
		return JobStatus{}, false
	}
	return *j, true
}

// Jobs is the registry shared by the HTTP API and the CLI.
var Jobs = NewJobRegistry()

// RunJob registers payload in reg, runs it with a fresh extractor and
// records the result.
func RunJob(ex *HarukiSWFExtractor, reg *JobRegistry, payload HarukiSWFExtractorPayload) (*Manifest, error) {
	name := payload.JobName()
	payload.Name = name
	if err := reg.Start(name, payload.Source()); err != nil {
		return nil, err
	}
	m, err := ex.Run(payload)
	reg.Finish(name, m, err)
	return m, err
}
