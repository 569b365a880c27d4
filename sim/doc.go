// Package sim provides the discrete-event simulation engine for a fleet of
// aircraft sharing a pool of repairable spare parts.
//
// # Reading Guide
//
// Start with these files to understand the simulation kernel:
//   - part.go, aircraft.go: cycle records and the stage codes written on them
//   - event.go, event_queue.go: event kinds and the (time, seq) calendar
//   - simulator.go: the event loop and dispatch
//   - handlers.go: what each event does to records, queues and the Depot
//   - initialize.go: how the t=0 state is seeded from an Allocation
//
// # Lifecycle
//
// A part cycles Fleet → Condition F → Depot → Condition A → Install and
// back to Fleet on whichever aircraft it was installed on. An aircraft whose
// Fleet stage ends while Condition A is empty waits in MICAP until a part
// finishes repair or a replacement arrives. A part reaching the condemn
// cycle gets a shortened Depot visit and is retired; a replacement is
// ordered and arrives after a fixed lag.
//
// # State
//
// Part and aircraft cycles live in CycleStore: active records keyed by a
// monotonically increasing id plus an append-only log of closed cycles.
// MicapQueue (FIFO) and InventoryQueue (earliest Condition A start) hold
// the waiting sides. DepotScheduler assigns repairs to the earliest free
// machine. Backlog tracks replacement orders.
//
// # Errors
//
// Duplicate inserts are rejected with RejectedError and logged. Soft
// conditions are recorded as Anomaly values. A broken lifecycle invariant
// aborts Run with an error wrapping ErrIntegrity.
//
// Sub-packages:
//   - sim/trace/: per-event and per-admission trace records
//   - sim/observe/: Prometheus metrics fed by the Observer hook
//   - sim/resultstore/: SQLite archive of finished runs
package sim
