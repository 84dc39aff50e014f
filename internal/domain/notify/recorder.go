package notify

import "sync"

// Recorder keeps published messages in memory. Tests use it as a Sink.
type Recorder struct {
	mu        sync.Mutex
	Directs   []Message
	Operators []string
}

type Message struct {
	AccountID int64
	Text      string
}

func (r *Recorder) Direct(accountID int64, text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Directs = append(r.Directs, Message{AccountID: accountID, Text: text})
}

func (r *Recorder) Operator(text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Operators = append(r.Operators, text)
}

func (r *Recorder) DirectsTo(accountID int64) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, m := range r.Directs {
		if m.AccountID == accountID {
			out = append(out, m.Text)
		}
	}
	return out
}

func (r *Recorder) OperatorCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.Operators)
}
