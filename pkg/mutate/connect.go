package mutate

import "github.com/matzehuels/flowcanvas/pkg/tree"

// endpoints resolves and validates the two ends of a control-flow link.
func endpoints(t *tree.Tree, from, to string) (lf, lt tree.Location, err error) {
	if from == to {
		return lf, lt, failf(ErrSelfConnection, "%s", from)
	}
	if lf, err = find(t, from); err != nil {
		return lf, lt, err
	}
	if lt, err = find(t, to); err != nil {
		return lf, lt, err
	}
	if lf.IsReporter() || lt.IsReporter() {
		return lf, lt, failf(ErrReporterNode, "%s -> %s", from, to)
	}
	if lf.Workflow != lt.Workflow {
		return lf, lt, failf(ErrCrossWorkflow, "%s in %s, %s in %s", from, lf.Workflow.Name, to, lt.Workflow.Name)
	}
	// The target may not be the source's predecessor, branch owner or any of
	// their ancestors.
	if t.IsAncestor(to, from) {
		return lf, lt, failf(ErrCycle, "%s is an ancestor of %s", to, from)
	}
	return lf, lt, nil
}

// ConnectNodes makes to (with its successors) the default successor of from.
// The target chain is detached from wherever it was; from's previous
// successor chain becomes an orphan root. Connecting to an ancestor of from
// fails with [ErrCycle] and leaves the tree unchanged.
func (e *Engine) ConnectNodes(from, to string) error {
	return e.apply("connect_nodes", func(t *tree.Tree) error {
		lf, lt, err := endpoints(t, from, to)
		if err != nil {
			return err
		}
		wf := lf.Workflow
		fromRoot := rootOf(lf)
		wasStart := isStart(lt)

		target := detach(lt)
		src := lf.Node
		if old := src.Next; old != nil && old != target {
			addRoot(wf, old)
		}
		src.Next = target

		if wasStart {
			promote(wf, fromRoot)
		}
		return nil
	})
}

// DisconnectNode detaches a node (with its successors) from its predecessor
// or branch owner and makes it an orphan root.
func (e *Engine) DisconnectNode(id string) error {
	return e.apply("disconnect_node", func(t *tree.Tree) error {
		loc, err := find(t, id)
		if err != nil {
			return err
		}
		if loc.IsReporter() {
			return failf(ErrReporterNode, "%s", id)
		}
		if loc.IsRootHead() {
			return failf(ErrNotConnected, "%s has no predecessor", id)
		}
		addRoot(loc.Workflow, detach(loc))
		return nil
	})
}

// ConnectBranch makes to (with its successors) the head of from's branch
// label. The branch's previous chain becomes an orphan root.
func (e *Engine) ConnectBranch(from, to, label string) error {
	return e.apply("connect_branch", func(t *tree.Tree) error {
		lf, lt, err := endpoints(t, from, to)
		if err != nil {
			return err
		}
		if _, ok := lf.Node.Branch(label); !ok {
			return failf(ErrBranchNotFound, "%s on %s", label, from)
		}
		wf := lf.Workflow
		fromRoot := rootOf(lf)
		wasStart := isStart(lt)

		target := detach(lt)
		b, _ := lf.Node.Branch(label)
		if old := b.Head; old != nil && old != target {
			addRoot(wf, old)
		}
		b.Head = target

		if wasStart {
			promote(wf, fromRoot)
		}
		return nil
	})
}

// DisconnectConnection removes the link from -> to: the default successor
// link when label is empty, otherwise the named branch link. The target
// chain becomes an orphan root.
func (e *Engine) DisconnectConnection(from, to, label string) error {
	return e.apply("disconnect_connection", func(t *tree.Tree) error {
		lf, err := find(t, from)
		if err != nil {
			return err
		}
		src := lf.Node
		if label == "" {
			if src.Next == nil || src.Next.ID != to {
				return failf(ErrNotConnected, "%s -> %s", from, to)
			}
			head := src.Next
			src.Next = nil
			addRoot(lf.Workflow, head)
			return nil
		}

		b, ok := src.Branch(label)
		if !ok {
			return failf(ErrBranchNotFound, "%s on %s", label, from)
		}
		if b.Head == nil || b.Head.ID != to {
			return failf(ErrNotConnected, "%s -%s-> %s", from, label, to)
		}
		head := b.Head
		b.Head = nil
		addRoot(lf.Workflow, head)
		return nil
	})
}
