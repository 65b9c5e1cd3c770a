package booking

// QueueRank 管理员待办队列中的排序权重，越小越靠前
func QueueRank(s Status) int {
	switch s {
	case StatusPending:
		return 0
	case StatusModificationRequested:
		return 1
	case StatusCancellationRequested:
		return 2
	case StatusApproved:
		return 3
	case StatusRejected:
		return 4
	default:
		return 5
	}
}
