package pipeline

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// JobStatus represents the state of a conversion job.
type JobStatus string

const (
	StatusQueued     JobStatus = "queued"
	StatusFetching   JobStatus = "fetching"
	StatusParsing    JobStatus = "parsing"
	StatusExtracting JobStatus = "extracting"
	StatusWriting    JobStatus = "writing"
	StatusCompleted  JobStatus = "completed"
	StatusFailed     JobStatus = "failed"
)

// Job tracks the state of a single book conversion. A job either fetches URL or
// converts uploaded file data.
type Job struct {
	mu sync.Mutex

	ID       string `json:"job_id"`
	URL      string `json:"url,omitempty"`
	Filename string `json:"filename,omitempty"`
	Title    string `json:"title"`

	Status JobStatus `json:"status"`
	Phase  string    `json:"phase"`

	Progress   Progress `json:"progress"`
	OutputPath string   `json:"output_path,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Internal: not serialized.
	fileData []byte
	errors   []string
}

// Progress records what the conversion produced so far.
type Progress struct {
	BytesFetched int64    `json:"bytes_fetched"`
	Nodes        int      `json:"nodes"`
	Chapters     int      `json:"chapters"`
	BodyUnits    int      `json:"body_units"`
	SpecialChars int      `json:"special_chars"`
	Errors       []string `json:"errors"`
}

func newJob() *Job {
	now := time.Now()
	return &Job{
		ID:        uuid.NewString(),
		Status:    StatusQueued,
		Phase:     "queued",
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// NewURLJob creates a job that fetches a page. A non-empty title overrides the
// title found in the page.
func NewURLJob(url, title string) *Job {
	j := newJob()
	j.URL = url
	j.Title = title
	return j
}

// NewFileJob creates a job for already available document bytes.
func NewFileJob(filename string, data []byte, title string) *Job {
	j := newJob()
	j.Filename = filename
	j.Title = title
	j.fileData = data
	return j
}

// Source returns the URL or filename the job converts.
func (j *Job) Source() string {
	if j.URL != "" {
		return j.URL
	}
	return j.Filename
}

// JobStore is a thread-safe in-memory job registry with TTL eviction.
type JobStore struct {
	mu   sync.Mutex
	jobs map[string]*Job
	ttl  time.Duration
}

func NewJobStore(ttl time.Duration) *JobStore {
	return &JobStore{
		jobs: make(map[string]*Job),
		ttl:  ttl,
	}
}

func (s *JobStore) Put(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

func (s *JobStore) Get(id string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[id]
}

// Cleanup removes expired jobs.
func (s *JobStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, job := range s.jobs {
		job.mu.Lock()
		updated := job.UpdatedAt
		job.mu.Unlock()
		if now.Sub(updated) > s.ttl {
			delete(s.jobs, id)
		}
	}
}

// SetStatus updates job status atomically.
func (j *Job) SetStatus(status JobStatus, phase string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.Phase = phase
	j.UpdatedAt = time.Now()
}

// AddError records an error.
func (j *Job) AddError(err string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errors = append(j.errors, err)
	j.Progress.Errors = j.errors
	j.UpdatedAt = time.Now()
}

// SetBytesFetched records the downloaded page size.
func (j *Job) SetBytesFetched(n int64) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.BytesFetched = n
	j.UpdatedAt = time.Now()
}

// SetExtracted records extraction counts.
func (j *Job) SetExtracted(nodes, chapters, bodyUnits, specialChars int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.Nodes = nodes
	j.Progress.Chapters = chapters
	j.Progress.BodyUnits = bodyUnits
	j.Progress.SpecialChars = specialChars
	j.UpdatedAt = time.Now()
}

// SetResult records the resolved title and the written file.
func (j *Job) SetResult(title, outputPath string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Title = title
	j.OutputPath = outputPath
	j.UpdatedAt = time.Now()
}

// FileData returns the uploaded bytes, or nil for URL jobs.
func (j *Job) FileData() []byte {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.fileData
}

// releaseFileData drops the uploaded bytes once they are no longer needed.
func (j *Job) releaseFileData() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.fileData = nil
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID         string    `json:"job_id"`
	URL        string    `json:"url,omitempty"`
	Filename   string    `json:"filename,omitempty"`
	Title      string    `json:"title"`
	Status     JobStatus `json:"status"`
	Phase      string    `json:"phase"`
	Progress   Progress  `json:"progress"`
	OutputPath string    `json:"output_path,omitempty"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	progress := j.Progress
	progress.Errors = append([]string{}, j.Progress.Errors...)
	return JobSnapshot{
		ID:         j.ID,
		URL:        j.URL,
		Filename:   j.Filename,
		Title:      j.Title,
		Status:     j.Status,
		Phase:      j.Phase,
		Progress:   progress,
		OutputPath: j.OutputPath,
	}
}
