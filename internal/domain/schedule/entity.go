package schedule

// ExternalTask is one scheduled assignment from the workforce-schedule feed (Float).
// Field presence varies between single- and multi-assignee tasks.
type ExternalTask struct {
	TaskID    int64
	PeopleID  *int64  // single assignee
	PeopleIDs []int64 // multi-assignee tasks
	ProjectID *int64
	StartDate string // YYYY-MM-DD
	EndDate   string
	StartTime string // HH:MM, empty for all-day tasks
	Hours     *float64
	Name      string
}

// Assignees returns the distinct assignee ids of the task, single assignee first, in feed
// order.
func (t ExternalTask) Assignees() []int64 {
	ids := make([]int64, 0, len(t.PeopleIDs)+1)
	seen := make(map[int64]struct{}, len(t.PeopleIDs)+1)
	if t.PeopleID != nil {
		ids = append(ids, *t.PeopleID)
		seen[*t.PeopleID] = struct{}{}
	}
	for _, id := range t.PeopleIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}
