// Package interfaces documents the core abstractions used throughout the application.
//
// # Interface Categories
//
// ## Sync Pipeline
//
//   - syncer.Source: produces the active universities (internal/asana/source.go)
//   - asana.TaskLister: fetches every project task, following pagination (internal/asana/client.go)
//   - syncer.Dispatcher: hands a started run to background execution
//     (tasks.Dispatcher on the backlite queue, syncer.GoDispatcher in-process)
//   - syncer.Observer: notified once per finished run (internal/telemetry)
//   - tasks.SyncExecutor: executes an already started run (syncer.Service)
//
// ## HTTP Layer
//
//   - MetricsReader, UniversityStore, UniversityHistoryReader, SyncService,
//     NextRunProvider, TaskStatusReader (internal/http/stores.go, internal/http/tasks.go)
//
// # Adding a New Source
//
// To mirror universities from a different tracker:
//
//  1. Implement syncer.Source in a new package:
//
//     func (s *Source) FetchActiveUniversities(ctx context.Context) ([]entities.University, error)
//
//     var _ syncer.Source = (*Source)(nil)
//
//  2. Construct it in entrypoint.NewSource.
//
// # Compile-Time Interface Checks
//
// All implementations should include compile-time checks to ensure they satisfy
// their interfaces. This catches missing methods at compile time rather than runtime:
//
//	var _ SomeInterface = (*MyImplementation)(nil)
//
// See checks.go for examples.
package interfaces
