package queue

import "math/rand/v2"

// pendingList holds tasks that were submitted but not yet claimed, in
// submission order. Lookups are linear; the queue is meant for pools of
// modest size.
type pendingList struct {
	tasks []*task
}

func (p *pendingList) len() int {
	return len(p.tasks)
}

func (p *pendingList) enqueue(t *task) {
	p.tasks = append(p.tasks, t)
}

// requeue puts t in front of every other pending task.
func (p *pendingList) requeue(t *task) {
	p.tasks = append([]*task{t}, p.tasks...)
}

// take selects a task by policy and removes it in the same step.
func (p *pendingList) take(policy Policy, rng *rand.Rand) *task {
	switch policy {
	case PolicyRandom:
		return p.selectRandom(rng)
	default:
		return p.selectFirst()
	}
}

func (p *pendingList) selectFirst() *task {
	if len(p.tasks) == 0 {
		return nil
	}
	return p.removeAt(0)
}

func (p *pendingList) selectRandom(rng *rand.Rand) *task {
	if len(p.tasks) == 0 {
		return nil
	}
	return p.removeAt(rng.IntN(len(p.tasks)))
}

func (p *pendingList) removeByID(id string) *task {
	for i, t := range p.tasks {
		if t.id == id {
			return p.removeAt(i)
		}
	}
	return nil
}

func (p *pendingList) remove(t *task) bool {
	for i, cur := range p.tasks {
		if cur == t {
			p.removeAt(i)
			return true
		}
	}
	return false
}

func (p *pendingList) removeAt(i int) *task {
	t := p.tasks[i]
	copy(p.tasks[i:], p.tasks[i+1:])
	p.tasks[len(p.tasks)-1] = nil
	p.tasks = p.tasks[:len(p.tasks)-1]
	return t
}
