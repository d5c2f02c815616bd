package taskname

const (
	NotificationSend = "notification:send"
	TargetRecompute  = "target:recompute"
)
