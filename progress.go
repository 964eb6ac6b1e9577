package openvote

type (
	// ProgressFollower is notified while a session runs: StepStart at the start
	// of every verification step with the number of proofs to check, Tick after
	// each verified proof and StepDone when the step completes.
	ProgressFollower interface {
		StepStart(desc string, intermediates int)
		Tick()
		StepDone()
	}

	EmptyFollower struct{}
)

func (*EmptyFollower) StepStart(_ string, _ int) {}
func (*EmptyFollower) Tick()                     {}
func (*EmptyFollower) StepDone()                 {}
