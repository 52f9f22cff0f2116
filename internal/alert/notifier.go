package alert

// Notifier receives high and critical alerts after they are published.
// Calls run on their own goroutine; failures never reach the engine.
type Notifier interface {
	OnHighPriorityAlert(Alert)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Alert)

func (f NotifierFunc) OnHighPriorityAlert(a Alert) { f(a) }
