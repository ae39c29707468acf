package api

import (
	"sync"
	"time"

	"github.com/wilnd/excel-handle/internal/reconcile"
	"github.com/wilnd/excel-handle/internal/store"
)

// JobEvent 进度事件，SSE 与 WebSocket 共用
type JobEvent struct {
	Type      string      `json:"type"` // start/progress/done/error
	Message   string      `json:"message"`
	Data      interface{} `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
}

// JobStatus 单个任务的状态快照
type JobStatus struct {
	JobID              string `json:"job_id"`
	Status             string `json:"status"`
	Progress           int    `json:"progress"`
	Message            string `json:"message"`
	YellowCount        int    `json:"yellow_count"`
	OrangeCount        int    `json:"orange_count"`
	PendingUploadCount int    `json:"pending_upload_count"`
	DownloadURL        string `json:"download_url,omitempty"`
	Error              string `json:"error,omitempty"`
}

// job 一次核对任务的运行时状态，由 web 层持有；核心只看到进度回调
type job struct {
	id         string
	labels     reconcile.Labels
	workDir    string
	planPath   string
	actualPath string
	outputPath string
	planName   string
	actualName string
	createdAt  time.Time

	mu       sync.Mutex
	status   string
	percent  int
	message  string
	result   *reconcile.Result
	errMsg   string
	subs     map[chan JobEvent]struct{}
	finished chan struct{}
}

func newJob(id string, labels reconcile.Labels, workDir string) *job {
	return &job{
		id:        id,
		labels:    labels,
		workDir:   workDir,
		createdAt: time.Now(),
		status:    store.StatusProcessing,
		subs:      make(map[chan JobEvent]struct{}),
		finished:  make(chan struct{}),
	}
}

// snapshot 当前状态
func (j *job) snapshot() JobStatus {
	j.mu.Lock()
	defer j.mu.Unlock()

	s := JobStatus{
		JobID:    j.id,
		Status:   j.status,
		Progress: j.percent,
		Message:  j.message,
		Error:    j.errMsg,
	}
	if j.result != nil {
		s.YellowCount = j.result.YellowCount
		s.OrangeCount = j.result.OrangeCount
		s.PendingUploadCount = j.result.PlannedCount
		s.DownloadURL = downloadURL(j.id)
	}
	return s
}

// subscribe 订阅后续事件；任务已结束时返回 nil
func (j *job) subscribe() chan JobEvent {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.status != store.StatusProcessing {
		return nil
	}
	ch := make(chan JobEvent, 64)
	j.subs[ch] = struct{}{}
	return ch
}

func (j *job) unsubscribe(ch chan JobEvent) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if _, ok := j.subs[ch]; ok {
		delete(j.subs, ch)
		close(ch)
	}
}

func (j *job) progress(percent int, message string) {
	j.mu.Lock()
	j.percent = percent
	j.message = message
	j.mu.Unlock()

	j.publish(JobEvent{
		Type:      "progress",
		Message:   message,
		Data:      map[string]any{"percent": percent},
		Timestamp: time.Now(),
	})
}

func (j *job) complete(res *reconcile.Result) {
	j.mu.Lock()
	j.status = store.StatusCompleted
	j.percent = 100
	j.message = res.Summary()
	j.result = res
	j.mu.Unlock()

	s := j.snapshot()
	j.finish(JobEvent{Type: "done", Message: s.Message, Data: s, Timestamp: time.Now()})
}

func (j *job) fail(err error) {
	j.mu.Lock()
	j.status = store.StatusError
	j.errMsg = err.Error()
	j.message = "reconcile failed: " + err.Error()
	j.mu.Unlock()

	s := j.snapshot()
	j.finish(JobEvent{Type: "error", Message: s.Message, Data: s, Timestamp: time.Now()})
}

// publish 向订阅者广播；订阅者缓冲满时丢弃该条进度
func (j *job) publish(ev JobEvent) {
	j.mu.Lock()
	defer j.mu.Unlock()

	for ch := range j.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// finish 发送最终事件并关闭所有订阅
func (j *job) finish(ev JobEvent) {
	j.mu.Lock()
	defer j.mu.Unlock()

	for ch := range j.subs {
		select {
		case ch <- ev:
		default:
			// 最终事件必须送达：腾出一个位置
			select {
			case <-ch:
			default:
			}
			ch <- ev
		}
		close(ch)
		delete(j.subs, ch)
	}
	close(j.finished)
}

// jobRegistry 内存中的任务表，过期后清除
type jobRegistry struct {
	mu    sync.Mutex
	ttl   time.Duration
	items map[string]*job
}

func newJobRegistry(ttl time.Duration) *jobRegistry {
	return &jobRegistry{
		ttl:   ttl,
		items: make(map[string]*job),
	}
}

func (r *jobRegistry) put(j *job) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.purgeExpiredLocked(time.Now())
	r.items[j.id] = j
}

func (r *jobRegistry) get(id string) (*job, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.purgeExpiredLocked(time.Now())
	j, ok := r.items[id]
	return j, ok
}

func (r *jobRegistry) delete(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, id)
}

// purgeExpiredLocked 只清除已结束且超过保留期的任务
func (r *jobRegistry) purgeExpiredLocked(now time.Time) {
	if r.ttl <= 0 {
		return
	}
	for k, j := range r.items {
		select {
		case <-j.finished:
			if now.Sub(j.createdAt) > r.ttl {
				delete(r.items, k)
			}
		default:
		}
	}
}
