package domain

// RefreshResult summarizes one page refresh.
type RefreshResult struct {
	Changed   bool
	Published int
	Invalid   int
	Reconcile *ReconcileResult
}

// RoutePlan is the set of mutations that converges the remote route
// table on the desired state.
type RoutePlan struct {
	Creates []RouteEntry `yaml:"creates"`
	Updates []RouteEntry `yaml:"updates"`
	Deletes []string     `yaml:"deletes"`
}

// Empty reports whether the plan has nothing to do.
func (p RoutePlan) Empty() bool {
	return len(p.Creates) == 0 && len(p.Updates) == 0 && len(p.Deletes) == 0
}

// ReconcileResult summarizes one reconciliation pass.
type ReconcileResult struct {
	Skipped  bool
	Created  int
	Updated  int
	Deleted  int
	Failures int
}

// OperateResult summarizes one file sync cycle.
type OperateResult struct {
	Done    int
	Removed int
	Errored int
	Failed  int // status reports that could not be delivered
}
