package model

// PlayerState holds a user's playback queue and the active song.
// ActiveID为0表示当前没有选中歌曲。
type PlayerState struct {
	Queue    []int64 `json:"queue"`
	ActiveID int64   `json:"activeId,omitempty"`
}

// Contains reports whether id is a member of the queue.
func (s *PlayerState) Contains(id int64) bool {
	for _, qid := range s.Queue {
		if qid == id {
			return true
		}
	}
	return false
}
