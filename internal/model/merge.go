package model

// MergeProgress performs a field-wise union of two progress documents: the
// higher point total, the union of badges, OR-ed completion flags, the best
// score per quiz and the most recent visit per module. Used when the sync
// coordinator runs under the "merge" reconciliation policy; "remote_wins"
// bypasses it entirely.
func MergeProgress(local, remote ProgressDocument) ProgressDocument {
	out := local.Clone()

	if remote.Points > out.Points {
		out.Points = remote.Points
	}
	for _, b := range remote.Badges {
		if !out.HasBadge(b) {
			out.Badges = append(out.Badges, b)
		}
	}
	for id, rm := range remote.Modules {
		lm, ok := out.Modules[id]
		if !ok {
			out.Modules[id] = rm.clone()
			continue
		}
		lm.Completed = lm.Completed || rm.Completed
		for k, v := range rm.Slides {
			lm.Slides[k] = lm.Slides[k] || v
		}
		for k, v := range rm.Quizzes {
			if v > lm.Quizzes[k] {
				lm.Quizzes[k] = v
			}
		}
		for k, v := range rm.Challenges {
			lm.Challenges[k] = lm.Challenges[k] || v
		}
		// RFC 3339 timestamps order lexically.
		if rm.LastVisited > lm.LastVisited {
			lm.LastVisited = rm.LastVisited
		}
		out.Modules[id] = lm
	}
	return RepairProgress(out)
}
