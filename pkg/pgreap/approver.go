package pgreap

import "context"

// Approver decides whether a destructive reap may go ahead.
//
// Implementations:
//   - ui.InteractiveApprover: asks "[y/N]" on the terminal; end of input declines
type Approver interface {
	// RequestApproval asks for confirmation before dropping every database in
	// databases. It returns false without error when the operator declines.
	RequestApproval(ctx context.Context, databases []string) (bool, error)
}
