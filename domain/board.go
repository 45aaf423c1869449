package domain

// Column is a named lane on a board. TaskIDs is ordered and defines card
// display order within the lane.
type Column struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	TaskIDs []string `json:"taskIds"`
}

// Clone returns a deep copy of the column.
func (c Column) Clone() Column {
	out := c
	out.TaskIDs = make([]string, len(c.TaskIDs))
	copy(out.TaskIDs, c.TaskIDs)
	return out
}

// Board is the top-level container of columns for one workspace.
type Board struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	OwnerID string   `json:"ownerId"`
	Columns []Column `json:"columns"`
}

// Clone returns a deep copy of the board.
func (b Board) Clone() Board {
	out := b
	out.Columns = CloneColumns(b.Columns)
	return out
}

// ColumnIndex returns the position of the column with the given id, or -1.
func (b *Board) ColumnIndex(id string) int {
	for i := range b.Columns {
		if b.Columns[i].ID == id {
			return i
		}
	}
	return -1
}

// CloneColumns deep copies a column list.
func CloneColumns(cols []Column) []Column {
	out := make([]Column, len(cols))
	for i, c := range cols {
		out[i] = c.Clone()
	}
	return out
}

// RemoveTaskID returns ids with every occurrence of id removed.
func RemoveTaskID(ids []string, id string) []string {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

// InsertTaskID splices id into ids at the given index. Indexes out of range
// clamp to the nearest end.
func InsertTaskID(ids []string, id string, index int) []string {
	if index < 0 {
		index = 0
	}
	if index > len(ids) {
		index = len(ids)
	}
	out := make([]string, 0, len(ids)+1)
	out = append(out, ids[:index]...)
	out = append(out, id)
	out = append(out, ids[index:]...)
	return out
}

// IndexOfTaskID returns the position of id within ids, or -1.
func IndexOfTaskID(ids []string, id string) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}
