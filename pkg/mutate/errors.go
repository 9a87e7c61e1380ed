package mutate

import (
	"fmt"

	perr "github.com/matzehuels/flowcanvas/pkg/errors"
)

// Failure signals. Every mutation returns one of these (possibly wrapped with
// context) instead of panicking; match with errors.Is or by code with
// [perr.Is].
var (
	ErrNoTree           = perr.New(perr.ErrCodeUnsupported, "no tree available")
	ErrNodeNotFound     = perr.New(perr.ErrCodeNotFound, "node not found")
	ErrWorkflowNotFound = perr.New(perr.ErrCodeNotFound, "workflow not found")
	ErrBranchNotFound   = perr.New(perr.ErrCodeNotFound, "branch not found")
	ErrNotConnected     = perr.New(perr.ErrCodeNotFound, "nodes are not connected")
	ErrReporterNotFound = perr.New(perr.ErrCodeNotFound, "no reporter at input path")
	ErrCycle            = perr.New(perr.ErrCodeCycle, "connection would create a cycle")
	ErrSelfConnection   = perr.New(perr.ErrCodeCycle, "node cannot connect to itself")
	ErrCrossWorkflow    = perr.New(perr.ErrCodeInvalidInput, "nodes belong to different workflows")
	ErrReporterNode     = perr.New(perr.ErrCodeInvalidInput, "reporters have no control-flow ports")
	ErrNotOrphan        = perr.New(perr.ErrCodeInvalidInput, "node is not an orphan root")
	ErrInvalidInputKey  = perr.New(perr.ErrCodeInvalidInput, "invalid input key")
	ErrInvalidOpcode    = perr.New(perr.ErrCodeInvalidInput, "opcode must not be empty")
	ErrMainWorkflow     = perr.New(perr.ErrCodeInvalidInput, "the main workflow cannot be deleted or renamed")
	ErrDuplicateName    = perr.New(perr.ErrCodeDuplicate, "workflow name already in use")
	ErrEmptySelection   = perr.New(perr.ErrCodeInvalidInput, "no nodes selected")
	ErrNotContiguous    = perr.New(perr.ErrCodeInvalidInput, "selection is not a contiguous run of one chain")
)

// failf wraps a sentinel with formatted context, keeping it matchable.
func failf(sentinel error, format string, args ...any) error {
	return fmt.Errorf("%w: %s", sentinel, fmt.Sprintf(format, args...))
}
