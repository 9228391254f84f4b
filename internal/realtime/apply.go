package realtime

type Identifiable interface {
	GetID() string
}

// Apply patches a cached list with one change: inserts are prepended,
// updates replace the row with the same id, deletes filter it out. An
// insert for an id already present is treated as an update.
func Apply[T Identifiable](list []T, ev Event) ([]T, error) {
	switch ev.Type {
	case EventInsert, EventUpdate:
		row, err := Decode[T](ev.Record)
		if err != nil {
			return list, err
		}
		for i := range list {
			if list[i].GetID() == row.GetID() {
				out := make([]T, len(list))
				copy(out, list)
				out[i] = row
				return out, nil
			}
		}
		if ev.Type == EventUpdate {
			return list, nil
		}
		return append([]T{row}, list...), nil
	case EventDelete:
		id := ev.RecordID()
		out := make([]T, 0, len(list))
		for _, item := range list {
			if item.GetID() != id {
				out = append(out, item)
			}
		}
		return out, nil
	}
	return list, nil
}
