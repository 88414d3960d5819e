package queue

// Stats summarises the queue contents.
type Stats struct {
	Tasks           int  `json:"tasks"`
	Pending         int  `json:"pending"`
	Claimed         int  `json:"claimed"`
	Resolved        int  `json:"resolved"`
	ParkedWorkers   int  `json:"parked_workers"`
	ParkedListeners int  `json:"parked_listeners"`
	Closed          bool `json:"closed"`
}

// Stats walks the catalog; cost is linear in the number of tasks.
func (q *Queue) Stats() Stats {
	q.mu.Lock()
	defer q.mu.Unlock()

	s := Stats{
		Tasks:           len(q.catalog),
		Pending:         q.pending.len(),
		ParkedWorkers:   q.workers.len(),
		ParkedListeners: q.listening,
		Closed:          q.closed,
	}
	for _, t := range q.catalog {
		switch t.state {
		case StateClaimed:
			s.Claimed++
		case StateResolved:
			s.Resolved++
		}
	}
	return s
}
