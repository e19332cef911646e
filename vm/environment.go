package vm

// Environment receives modifier callbacks during a pass and applies them
// after the pass completes.
type Environment interface {
	// Begin opens a transaction. Every append or revalidation pass runs
	// inside exactly one.
	Begin()
	// Commit closes the transaction and runs everything scheduled in it.
	Commit()
	// Abort closes the transaction without running anything scheduled in
	// it. It is called when a pass terminates with a fatal error.
	Abort()

	ScheduleInstallModifier(instance ModifierInstance, manager ModifierManager)
	ScheduleUpdateModifier(instance ModifierInstance, manager ModifierManager)
}

// DeferredEnvironment queues modifier callbacks and runs them at Commit,
// installs before updates, each in scheduling order.
type DeferredEnvironment struct {
	inTransaction bool
	installs      []ModifierPair
	updates       []ModifierPair
}

// NewDeferredEnvironment returns an idle environment.
func NewDeferredEnvironment() *DeferredEnvironment {
	return &DeferredEnvironment{}
}

// Begin implements Environment.
func (e *DeferredEnvironment) Begin() {
	if e.inTransaction {
		Fatalf(InvariantViolation, "Environment.Begin", "a transaction is already open")
	}
	e.inTransaction = true
}

// InTransaction reports whether Begin was called without a matching Commit.
func (e *DeferredEnvironment) InTransaction() bool {
	return e.inTransaction
}

// ScheduleInstallModifier implements Environment.
func (e *DeferredEnvironment) ScheduleInstallModifier(instance ModifierInstance, manager ModifierManager) {
	e.requireTransaction("ScheduleInstallModifier")
	e.installs = append(e.installs, ModifierPair{Manager: manager, Instance: instance})
}

// ScheduleUpdateModifier implements Environment.
func (e *DeferredEnvironment) ScheduleUpdateModifier(instance ModifierInstance, manager ModifierManager) {
	e.requireTransaction("ScheduleUpdateModifier")
	e.updates = append(e.updates, ModifierPair{Manager: manager, Instance: instance})
}

// Commit implements Environment.
func (e *DeferredEnvironment) Commit() {
	e.requireTransaction("Environment.Commit")
	installs, updates := e.installs, e.updates
	e.installs, e.updates = nil, nil
	e.inTransaction = false

	if len(installs)+len(updates) > 0 {
		log.Debugf("commit: %d modifier installs, %d modifier updates", len(installs), len(updates))
	}
	for _, p := range installs {
		p.Manager.Install(p.Instance)
	}
	for _, p := range updates {
		p.Manager.Update(p.Instance)
	}
}

// Abort implements Environment. Aborting outside a transaction is a no-op.
func (e *DeferredEnvironment) Abort() {
	if e.inTransaction {
		log.Debugf("abort: dropping %d modifier installs, %d modifier updates", len(e.installs), len(e.updates))
	}
	e.installs, e.updates = nil, nil
	e.inTransaction = false
}

func (e *DeferredEnvironment) requireTransaction(op string) {
	if !e.inTransaction {
		Fatalf(MissingContext, op, "called outside an environment transaction")
	}
}
