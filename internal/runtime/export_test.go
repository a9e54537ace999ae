package runtime

import "os"

// SendSignal stands in for the process signal handler in tests.
func (rt *Runtime) SendSignal(s os.Signal) {
	rt.signals <- s
}
